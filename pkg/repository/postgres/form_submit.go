package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
)

const formSubmitColumns = `id, risk_model_id, success, created_at`

type formSubmitRepository struct {
	db *sql.DB
}

func scanFormSubmit(row scannable) (*model.FormSubmit, error) {
	var fs model.FormSubmit
	if err := row.Scan(&fs.ID, &fs.RiskModel, &fs.Success, &fs.CreatedAt); err != nil {
		return nil, err
	}
	return &fs, nil
}

func (r *formSubmitRepository) Create(ctx context.Context, fs *model.FormSubmit) (*model.FormSubmit, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO form_submits (risk_model_id, success, created_at)
		VALUES ($1, $2, $3)
		RETURNING `+formSubmitColumns,
		int64(fs.RiskModel),
		fs.Success,
		time.Now().UTC(),
	)
	created, err := scanFormSubmit(row)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert form submit", goerr.V("risk_model_id", fs.RiskModel))
	}
	return created, nil
}

func (r *formSubmitRepository) Get(ctx context.Context, id types.FormSubmitID) (*model.FormSubmit, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+formSubmitColumns+` FROM form_submits WHERE id = $1`, int64(id))
	fs, err := scanFormSubmit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(ErrNotFound, "form submit not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get form submit", goerr.V("id", id))
	}
	return fs, nil
}

func (r *formSubmitRepository) Update(ctx context.Context, fs *model.FormSubmit) (*model.FormSubmit, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE form_submits SET success = $2 WHERE id = $1 RETURNING `+formSubmitColumns,
		int64(fs.ID), fs.Success)
	updated, err := scanFormSubmit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(ErrNotFound, "form submit not found", goerr.V("id", fs.ID))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update form submit", goerr.V("id", fs.ID))
	}
	return updated, nil
}

func (r *formSubmitRepository) List(ctx context.Context, filter model.FormSubmitFilter) ([]*model.FormSubmit, error) {
	var (
		where []string
		args  []any
	)
	if filter.SuccessOnly {
		where = append(where, "success = TRUE")
	}
	if filter.RiskModel != nil {
		args = append(args, int64(*filter.RiskModel))
		where = append(where, "risk_model_id = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + formSubmitColumns + ` FROM form_submits`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query form submits")
	}
	defer rows.Close()

	submits := []*model.FormSubmit{}
	for rows.Next() {
		fs, err := scanFormSubmit(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan form submit")
		}
		submits = append(submits, fs)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate form submits")
	}
	return submits, nil
}

func (r *formSubmitRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `TRUNCATE form_submits RESTART IDENTITY CASCADE`); err != nil {
		return goerr.Wrap(err, "failed to delete form submits")
	}
	return nil
}
