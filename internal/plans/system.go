package plans

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/haccp/internal/hazards"
	"github.com/JaimeStill/haccp/pkg/pagination"
)

// System defines the public contract for plan domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Plan], error)

	// Find returns the plan with its hazards, summary, and a freshly restored session.
	Find(ctx context.Context, id uuid.UUID) (*Detail, error)
	Create(ctx context.Context, cmd CreateCommand) (*Detail, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Detail, error)
	// Delete removes a plan and its hazards. Fails with ErrHasExports while
	// exports of the plan remain.
	Delete(ctx context.Context, id uuid.UUID) error

	// Session restores the plan's hazards into a classification session.
	Session(ctx context.Context, id uuid.UUID) (*hazards.Session, error)
	Summary(ctx context.Context, id uuid.UUID) (*hazards.Summary, error)
	Exportable(ctx context.Context, id uuid.UUID) (*Gate, error)

	AddHazard(ctx context.Context, id uuid.UUID, cmd AddHazardCommand) (*Hazard, error)
	RemoveHazard(ctx context.Context, id uuid.UUID, hazardID string) error
	// Classification returns one hazard with its current classification.
	Classification(ctx context.Context, id uuid.UUID, hazardID string) (*Hazard, error)
	UpdateAnswer(ctx context.Context, id uuid.UUID, hazardID string, cmd AnswerCommand) (*AnswerResult, error)

	// Import creates a plan and its hazards from a YAML or JSON plan document.
	Import(ctx context.Context, doc *Document) (*Detail, error)
}
