// Package exports renders exportable HACCP plans to final documents, stores
// them in blob storage, and records each rendered file. A plan is rendered
// only when the export gate passes on answers read for that request.
package exports

import (
	"time"

	"github.com/google/uuid"
)

// Export is one rendered document of a plan.
type Export struct {
	ID          uuid.UUID `json:"id"`
	PlanID      uuid.UUID `json:"plan_id"`
	Format      Format    `json:"format"`
	Pipeline    Pipeline  `json:"pipeline"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	PageCount   *int      `json:"page_count"`
	StorageKey  string    `json:"storage_key"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
}

// CreateCommand requests one or more formats of a plan.
type CreateCommand struct {
	Formats []Format `json:"formats"`
}

// Validate checks that at least one format was requested.
func (c *CreateCommand) Validate() error {
	if len(c.Formats) == 0 {
		return ErrNoFormats
	}
	return nil
}

type rendered struct {
	job      Job
	id       uuid.UUID
	filename string
	key      string
	data     []byte
}
