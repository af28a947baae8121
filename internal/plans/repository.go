package plans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/haccp/internal/hazards"
	"github.com/JaimeStill/haccp/pkg/auth"
	"github.com/JaimeStill/haccp/pkg/pagination"
	"github.com/JaimeStill/haccp/pkg/query"
	"github.com/JaimeStill/haccp/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a plan repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "plans"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Plan], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "name", "description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.Count(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count plans: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	plans, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanPlan)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}

	result := pagination.NewPageResult(plans, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Detail, error) {
	return r.detail(ctx, r.db, id)
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Detail, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Detail, error) {
		id, err := r.insertPlan(ctx, tx, cmd, auth.Actor(ctx))
		if err != nil {
			return nil, err
		}
		return r.detail(ctx, tx, id)
	})
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Detail, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	q := `
		UPDATE public.plans
		SET name = COALESCE($1, name),
			description = COALESCE($2, description),
			updated_at = now(),
			updated_by = $3
		WHERE id = $4`

	return repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Detail, error) {
		err := repository.ExecExpectOne(ctx, tx, q, cmd.Name, cmd.Description, auth.Actor(ctx), id)
		if err != nil {
			return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
		}
		return r.detail(ctx, tx, id)
	})
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM public.plans WHERE id = $1", id)
	if repository.IsForeignKeyViolation(err) {
		return ErrHasExports
	}
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("plan deleted", "id", id, "actor", auth.Actor(ctx))
	return nil
}

func (r *repo) Session(ctx context.Context, id uuid.UUID) (*hazards.Session, error) {
	if err := r.planExists(ctx, r.db, id, false); err != nil {
		return nil, err
	}
	sess, _, err := r.loadSession(ctx, r.db, id)
	return sess, err
}

func (r *repo) Summary(ctx context.Context, id uuid.UUID) (*hazards.Summary, error) {
	sess, err := r.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	s := sess.Summary()
	return &s, nil
}

func (r *repo) Exportable(ctx context.Context, id uuid.UUID) (*Gate, error) {
	sess, err := r.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Gate{
		Exportable: hazards.CanExport(sess),
		Summary:    sess.Summary(),
	}, nil
}

func (r *repo) AddHazard(ctx context.Context, id uuid.UUID, cmd AddHazardCommand) (*Hazard, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	actor := auth.Actor(ctx)

	h, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Hazard, error) {
		sess, err := r.lockSession(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if err := r.appendHazard(ctx, tx, sess, id, cmd, actor); err != nil {
			return nil, err
		}
		if err := r.touchPlan(ctx, tx, id, actor); err != nil {
			return nil, err
		}
		return r.findHazard(ctx, tx, id, cmd.HazardID)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info(
		"hazard added",
		"plan", id,
		"hazard", h.HazardID,
		"classification", h.Classification,
		"actor", actor,
	)
	return h, nil
}

func (r *repo) RemoveHazard(ctx context.Context, id uuid.UUID, hazardID string) error {
	actor := auth.Actor(ctx)

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		sess, err := r.lockSession(ctx, tx, id)
		if err != nil {
			return struct{}{}, err
		}
		if err := sess.RemoveHazard(hazardID); err != nil {
			return struct{}{}, mapSessionError(err)
		}

		err = repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM public.hazards WHERE plan_id = $1 AND hazard_id = $2",
			id, hazardID,
		)
		if err != nil {
			return struct{}{}, repository.MapError(err, ErrHazardNotFound, ErrHazardExists)
		}
		return struct{}{}, r.touchPlan(ctx, tx, id, actor)
	})
	if err != nil {
		return err
	}

	r.logger.Info("hazard removed", "plan", id, "hazard", hazardID, "actor", actor)
	return nil
}

func (r *repo) Classification(ctx context.Context, id uuid.UUID, hazardID string) (*Hazard, error) {
	if err := r.planExists(ctx, r.db, id, false); err != nil {
		return nil, err
	}
	return r.findHazard(ctx, r.db, id, hazardID)
}

func (r *repo) UpdateAnswer(
	ctx context.Context,
	id uuid.UUID,
	hazardID string,
	cmd AnswerCommand,
) (*AnswerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	actor := auth.Actor(ctx)

	result, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*AnswerResult, error) {
		sess, err := r.lockSession(ctx, tx, id)
		if err != nil {
			return nil, err
		}

		classification, err := sess.UpdateAnswer(hazardID, cmd.Question, *cmd.Answer)
		if err != nil {
			return nil, mapSessionError(err)
		}

		// only the answered column is written so concurrent edits to other
		// questions of the same hazard are not overwritten
		q := fmt.Sprintf(`
			UPDATE public.hazards
			SET %s = $1, classification = $2, updated_at = now(), updated_by = $3
			WHERE plan_id = $4 AND hazard_id = $5`,
			answerColumns[cmd.Question],
		)
		err = repository.ExecExpectOne(
			ctx, tx, q,
			cmd.Answer.String(), string(classification), actor, id, hazardID,
		)
		if err != nil {
			return nil, repository.MapError(err, ErrHazardNotFound, ErrHazardExists)
		}
		if err := r.touchPlan(ctx, tx, id, actor); err != nil {
			return nil, err
		}

		h, err := r.findHazard(ctx, tx, id, hazardID)
		if err != nil {
			return nil, err
		}
		return &AnswerResult{Hazard: *h, Summary: sess.Summary()}, nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info(
		"answer recorded",
		"plan", id,
		"hazard", hazardID,
		"question", cmd.Question,
		"answer", cmd.Answer.String(),
		"classification", result.Hazard.Classification,
		"actor", actor,
	)
	return result, nil
}

func (r *repo) Import(ctx context.Context, doc *Document) (*Detail, error) {
	cmd, hazardCmds, err := doc.Commands()
	if err != nil {
		return nil, err
	}
	actor := auth.Actor(ctx)

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Detail, error) {
		id, err := r.insertPlan(ctx, tx, cmd, actor)
		if err != nil {
			return nil, err
		}

		sess := hazards.NewSession()
		for _, hc := range hazardCmds {
			if err := r.appendHazard(ctx, tx, sess, id, hc, actor); err != nil {
				return nil, fmt.Errorf("hazard %s: %w", hc.HazardID, err)
			}
		}
		return r.detail(ctx, tx, id)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info(
		"plan imported",
		"id", d.ID,
		"name", d.Name,
		"hazards", len(d.Hazards),
		"complete", d.Summary.Complete,
		"actor", actor,
	)
	return d, nil
}

func (r *repo) insertPlan(ctx context.Context, tx *sql.Tx, cmd CreateCommand, actor string) (uuid.UUID, error) {
	id := uuid.New()
	err := repository.ExecExpectOne(
		ctx, tx,
		`INSERT INTO public.plans(id, name, description, updated_by) VALUES ($1, $2, $3, $4)`,
		id, cmd.Name, cmd.Description, actor,
	)
	if err != nil {
		return uuid.Nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return id, nil
}

// appendHazard adds the hazard to sess, applies any initial answers, and
// inserts the row at the next position.
func (r *repo) appendHazard(
	ctx context.Context,
	tx *sql.Tx,
	sess *hazards.Session,
	planID uuid.UUID,
	cmd AddHazardCommand,
	actor string,
) error {
	if _, err := sess.AddHazard(cmd.HazardID); err != nil {
		return mapSessionError(err)
	}

	var answers hazards.AnswerSet
	if cmd.Answers != nil {
		answers = *cmd.Answers
		for _, q := range hazards.Questions() {
			if _, err := sess.UpdateAnswer(cmd.HazardID, q, answers.Get(q)); err != nil {
				return mapSessionError(err)
			}
		}
	}

	classification, _ := sess.Classification(cmd.HazardID)

	q := `
		INSERT INTO public.hazards(
			plan_id, hazard_id, position, description, step, category,
			q1, q2, q3, q4, classification, updated_by
		)
		VALUES (
			$1, $2,
			(SELECT COALESCE(MAX(position), -1) + 1 FROM public.hazards WHERE plan_id = $1),
			$3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	err := repository.ExecExpectOne(
		ctx, tx, q,
		planID, cmd.HazardID, cmd.Description, cmd.Step, string(cmd.Category),
		answers.Q1.String(), answers.Q2.String(), answers.Q3.String(), answers.Q4.String(),
		string(classification), actor,
	)
	return repository.MapError(err, ErrNotFound, ErrHazardExists)
}

func (r *repo) touchPlan(ctx context.Context, tx *sql.Tx, id uuid.UUID, actor string) error {
	err := repository.ExecExpectOne(
		ctx, tx,
		"UPDATE public.plans SET updated_at = now(), updated_by = $1 WHERE id = $2",
		actor, id,
	)
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

// lockSession locks the plan row for the rest of tx and restores its session.
// Concurrent mutations of the same plan serialize on the lock.
func (r *repo) lockSession(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*hazards.Session, error) {
	if err := r.planExists(ctx, tx, id, true); err != nil {
		return nil, err
	}
	sess, _, err := r.loadSession(ctx, tx, id)
	return sess, err
}

func (r *repo) planExists(ctx context.Context, q repository.Querier, id uuid.UUID, lock bool) error {
	stmt := "SELECT id FROM public.plans WHERE id = $1"
	if lock {
		stmt += " FOR UPDATE"
	}

	var found uuid.UUID
	if err := q.QueryRowContext(ctx, stmt, id).Scan(&found); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (r *repo) loadHazards(ctx context.Context, q repository.Querier, id uuid.UUID) ([]Hazard, error) {
	stmt := "SELECT " + hazardColumns + " FROM public.hazards WHERE plan_id = $1 ORDER BY position"
	hs, err := repository.QueryMany(ctx, q, stmt, []any{id}, scanHazard)
	if err != nil {
		return nil, fmt.Errorf("query hazards: %w", err)
	}
	return hs, nil
}

func (r *repo) loadSession(ctx context.Context, q repository.Querier, id uuid.UUID) (*hazards.Session, []Hazard, error) {
	hs, err := r.loadHazards(ctx, q, id)
	if err != nil {
		return nil, nil, err
	}

	sess, err := hazards.Restore(snapshots(hs))
	if err != nil {
		return nil, nil, fmt.Errorf("restore session: %w", err)
	}

	for i := range hs {
		hs[i].Classification, _ = sess.Classification(hs[i].HazardID)
	}
	return sess, hs, nil
}

func (r *repo) findHazard(ctx context.Context, q repository.Querier, id uuid.UUID, hazardID string) (*Hazard, error) {
	stmt := "SELECT " + hazardColumns + " FROM public.hazards WHERE plan_id = $1 AND hazard_id = $2"
	h, err := repository.QueryOne(ctx, q, stmt, []any{id, hazardID}, scanHazard)
	if err != nil {
		return nil, repository.MapError(err, ErrHazardNotFound, ErrHazardExists)
	}
	h.Classification = hazards.Classify(h.Answers)
	return &h, nil
}

func (r *repo) detail(ctx context.Context, q repository.Querier, id uuid.UUID) (*Detail, error) {
	stmt, args := query.NewBuilder(projection).BuildSingle("id", id)
	p, err := repository.QueryOne(ctx, q, stmt, args, scanPlan)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	sess, hs, err := r.loadSession(ctx, q, id)
	if err != nil {
		return nil, err
	}

	return &Detail{
		Plan:    p,
		Hazards: hs,
		Summary: sess.Summary(),
		Session: sess,
	}, nil
}

func mapSessionError(err error) error {
	switch {
	case errors.Is(err, hazards.ErrUnknownHazard):
		return fmt.Errorf("%w: %v", ErrHazardNotFound, err)
	case errors.Is(err, hazards.ErrDuplicateHazard):
		return fmt.Errorf("%w: %v", ErrHazardExists, err)
	}
	return err
}
