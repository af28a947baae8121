package exports

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/haccp/pkg/formatting"
	"github.com/JaimeStill/haccp/pkg/query"
	"github.com/JaimeStill/haccp/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "exports", "e").
	Project("id", "id").
	Project("plan_id", "plan_id").
	Project("format", "format").
	Project("pipeline", "pipeline").
	Project("filename", "filename").
	Project("content_type", "content_type").
	Project("size_bytes", "size_bytes").
	Project("page_count", "page_count").
	Project("storage_key", "storage_key").
	Project("created_at", "created_at").
	Project("created_by", "created_by")

var defaultSort = query.SortField{
	Field:      "created_at",
	Descending: true,
}

const exportColumns = `id, plan_id, format, pipeline, filename, content_type,
	size_bytes, page_count, storage_key, created_at, created_by`

func scanExport(s repository.Scanner) (Export, error) {
	var e Export
	err := s.Scan(
		&e.ID,
		&e.PlanID,
		&e.Format,
		&e.Pipeline,
		&e.Filename,
		&e.ContentType,
		&e.SizeBytes,
		&e.PageCount,
		&e.StorageKey,
		&e.CreatedAt,
		&e.CreatedBy,
	)
	return e, err
}

// Filename derives a download file name from a plan name.
func Filename(planName string, ext string) string {
	return formatting.Slug(planName, "haccp-plan") + "." + ext
}

func buildStorageKey(planID, id uuid.UUID, filename string) string {
	return fmt.Sprintf("exports/%s/%s/%s", planID, id, filename)
}
