package exports

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/haccp/internal/hazards"
	"github.com/JaimeStill/haccp/internal/plans"
	"github.com/JaimeStill/haccp/pkg/auth"
	"github.com/JaimeStill/haccp/pkg/formatting"
	"github.com/JaimeStill/haccp/pkg/query"
	"github.com/JaimeStill/haccp/pkg/repository"
	"github.com/JaimeStill/haccp/pkg/storage"
)

type repo struct {
	db      *sql.DB
	plans   plans.System
	storage storage.System
	config  Config
	logger  *slog.Logger
}

// New creates an export repository implementing the System interface.
func New(
	db *sql.DB,
	plansSys plans.System,
	store storage.System,
	cfg Config,
	logger *slog.Logger,
) System {
	return &repo{
		db:      db,
		plans:   plansSys,
		storage: store,
		config:  cfg,
		logger:  logger.With("system", "exports"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) List(ctx context.Context, planID uuid.UUID) ([]Export, error) {
	q, args := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("plan_id", planID).
		Build()

	out, err := repository.QueryMany(ctx, r.db, q, args, scanExport)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	return out, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Export, error) {
	q, args := query.NewBuilder(projection).BuildSingle("id", id)

	e, err := repository.QueryOne(ctx, r.db, q, args, scanExport)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

func (r *repo) Create(ctx context.Context, planID uuid.UUID, cmd CreateCommand) ([]Export, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	jobs, err := r.config.Resolve(cmd.Formats)
	if err != nil {
		return nil, err
	}

	detail, err := r.plans.Find(ctx, planID)
	if err != nil {
		return nil, err
	}

	if !hazards.CanExport(detail.Session) {
		return nil, fmt.Errorf(
			"%w: %d hazards, %d indeterminate",
			ErrNotExportable, len(detail.Hazards), len(detail.Summary.IndeterminateHazardIDs),
		)
	}

	actor := auth.Actor(ctx)
	rep := NewReport(detail, actor, time.Now())

	docs, err := r.render(ctx, jobs, rep)
	if err != nil {
		return nil, err
	}

	if err := r.upload(ctx, docs); err != nil {
		return nil, err
	}

	exports, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) ([]Export, error) {
		if err := r.checkUnchanged(ctx, tx, planID, detail.UpdatedAt); err != nil {
			return nil, err
		}

		out := make([]Export, 0, len(docs))
		for _, d := range docs {
			e, err := r.insert(ctx, tx, planID, d, actor)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, nil
	})

	if err != nil {
		r.compensate(ctx, docs)
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	for _, e := range exports {
		r.logger.Info(
			"export created",
			"id", e.ID,
			"plan_id", planID,
			"format", e.Format,
			"pipeline", e.Pipeline,
			"size", formatting.FormatBytes(e.SizeBytes, 1),
		)
	}
	return exports, nil
}

func (r *repo) Download(ctx context.Context, id uuid.UUID) (*Export, *storage.Blob, error) {
	e, err := r.Find(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	blob, err := r.storage.Download(ctx, e.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: blob missing for %s", ErrNotFound, id)
		}
		return nil, nil, fmt.Errorf("download export: %w", err)
	}
	return e, blob, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	e, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM public.exports WHERE id = $1",
			id,
		)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if delErr := r.storage.Delete(ctx, e.StorageKey); delErr != nil {
		r.logger.Warn(
			"blob delete failed after DB delete",
			"key", e.StorageKey,
			"error", delErr,
		)
	}

	r.logger.Info("export deleted", "id", id, "plan_id", e.PlanID)
	return nil
}

// render runs every job concurrently under the configured render timeout.
// Any failure cancels the remaining jobs.
func (r *repo) render(ctx context.Context, jobs []Job, rep *Report) ([]rendered, error) {
	if d := r.config.RenderTimeoutDuration(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	docs := make([]rendered, len(jobs))
	g, gctx := errgroup.WithContext(ctx)

	for i, job := range jobs {
		g.Go(func() error {
			data, err := job.Renderer.Render(gctx, rep)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrRender, job.Format, err)
			}

			id := uuid.New()
			filename := Filename(rep.PlanName, job.Extension)
			docs[i] = rendered{
				job:      job,
				id:       id,
				filename: filename,
				key:      buildStorageKey(rep.PlanID, id, filename),
				data:     data,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// upload stores every rendered document. On failure the blobs already
// written are removed before returning.
func (r *repo) upload(ctx context.Context, docs []rendered) error {
	var (
		mu       sync.Mutex
		uploaded []rendered
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, d := range docs {
		g.Go(func() error {
			if err := r.storage.Upload(gctx, d.key, bytes.NewReader(d.data), d.job.ContentType); err != nil {
				return fmt.Errorf("upload %s: %w", d.job.Format, err)
			}
			mu.Lock()
			uploaded = append(uploaded, d)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.compensate(ctx, uploaded)
		return err
	}
	return nil
}

// checkUnchanged locks the plan row and fails with ErrPlanChanged if the
// plan was edited after it was read for rendering.
func (r *repo) checkUnchanged(ctx context.Context, tx *sql.Tx, planID uuid.UUID, readAt time.Time) error {
	var updatedAt time.Time
	err := tx.QueryRowContext(
		ctx,
		"SELECT updated_at FROM public.plans WHERE id = $1 FOR UPDATE",
		planID,
	).Scan(&updatedAt)
	if err != nil {
		return repository.MapError(err, plans.ErrNotFound, plans.ErrDuplicate)
	}

	if !updatedAt.Equal(readAt) {
		return ErrPlanChanged
	}
	return nil
}

func (r *repo) insert(ctx context.Context, tx *sql.Tx, planID uuid.UUID, d rendered, actor string) (Export, error) {
	q := `
		INSERT INTO public.exports(id, plan_id, format, pipeline, filename, content_type, size_bytes, page_count, storage_key, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + exportColumns

	args := []any{
		d.id,
		planID,
		string(d.job.Format),
		string(d.job.Pipeline),
		d.filename,
		d.job.ContentType,
		int64(len(d.data)),
		pageCount(d.job.Format, d.data),
		d.key,
		actor,
	}

	return repository.QueryOne(ctx, tx, q, args, scanExport)
}

// compensate removes blobs of an export that will not be recorded. It runs
// detached from ctx so a cancelled request still cleans up.
func (r *repo) compensate(ctx context.Context, docs []rendered) {
	ctx = context.WithoutCancel(ctx)
	for _, d := range docs {
		if err := r.storage.Delete(ctx, d.key); err != nil {
			r.logger.Warn("compensating blob delete failed", "key", d.key, "error", err)
		}
	}
}
