package exports

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/haccp/pkg/storage"
)

// System defines the public contract for export operations.
type System interface {
	Handler() *Handler

	// List returns the exports of a plan, newest first.
	List(ctx context.Context, planID uuid.UUID) ([]Export, error)
	Find(ctx context.Context, id uuid.UUID) (*Export, error)
	// Create renders every requested format of the plan. Fails with
	// ErrNotExportable unless the export gate passes, and with ErrPlanChanged
	// if the plan was edited while rendering. Nothing is recorded on failure.
	Create(ctx context.Context, planID uuid.UUID, cmd CreateCommand) ([]Export, error)
	// Download returns the export record and its blob. The caller closes the blob body.
	Download(ctx context.Context, id uuid.UUID) (*Export, *storage.Blob, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
