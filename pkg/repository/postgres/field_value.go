package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
)

const fieldValueColumns = `id, form_submit_id, field_id, value, created_at, updated_at`

type fieldValueRepository struct {
	db *sql.DB
}

func scanFieldValue(row scannable) (*model.FieldValue, error) {
	var fv model.FieldValue
	if err := row.Scan(&fv.ID, &fv.FormSubmit, &fv.Field, &fv.Value, &fv.CreatedAt, &fv.UpdatedAt); err != nil {
		return nil, err
	}
	return &fv, nil
}

func (r *fieldValueRepository) CreateMany(ctx context.Context, values []*model.FieldValue) ([]*model.FieldValue, error) {
	created := make([]*model.FieldValue, 0, len(values))
	if len(values) == 0 {
		return created, nil
	}

	now := time.Now().UTC()
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, fv := range values {
			row := tx.QueryRowContext(ctx, `
				INSERT INTO field_values (form_submit_id, field_id, value, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $4)
				RETURNING `+fieldValueColumns,
				int64(fv.FormSubmit),
				int64(fv.Field),
				fv.Value,
				now,
			)
			stored, err := scanFieldValue(row)
			if err != nil {
				return goerr.Wrap(err, "failed to insert field value",
					goerr.V("form_submit_id", fv.FormSubmit),
					goerr.V("field_id", fv.Field))
			}
			created = append(created, stored)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *fieldValueRepository) ListByFormSubmit(ctx context.Context, id types.FormSubmitID) ([]*model.FieldValue, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+fieldValueColumns+` FROM field_values WHERE form_submit_id = $1 ORDER BY id`,
		int64(id))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query field values", goerr.V("form_submit_id", id))
	}
	defer rows.Close()

	values := []*model.FieldValue{}
	for rows.Next() {
		fv, err := scanFieldValue(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan field value")
		}
		values = append(values, fv)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate field values")
	}
	return values, nil
}

func (r *fieldValueRepository) ExistsInSuccessfulSubmit(ctx context.Context, field types.FieldID, value string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM field_values fv
			JOIN form_submits fs ON fs.id = fv.form_submit_id
			WHERE fv.field_id = $1 AND fv.value = $2 AND fs.success
		)`,
		int64(field), value,
	).Scan(&exists)
	if err != nil {
		return false, goerr.Wrap(err, "failed to check field value", goerr.V("field_id", field))
	}
	return exists, nil
}

func (r *fieldValueRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `TRUNCATE field_values RESTART IDENTITY`); err != nil {
		return goerr.Wrap(err, "failed to delete field values")
	}
	return nil
}
