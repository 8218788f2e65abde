package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
)

const riskModelColumns = `id, name, button, description, success_msg, activated, created_at, updated_at`

const fieldColumns = `id, risk_model_id, name, slug, field_type, default_value, regex_pattern,
	min_length, max_length, choices, required, help_text, field_order, is_unique, deleted,
	created_at, updated_at`

type riskModelRepository struct {
	db *sql.DB
}

func scanRiskModel(row scannable) (*model.RiskModel, error) {
	var rm model.RiskModel
	if err := row.Scan(
		&rm.ID,
		&rm.Name,
		&rm.Button,
		&rm.Description,
		&rm.SuccessMsg,
		&rm.Activated,
		&rm.CreatedAt,
		&rm.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rm.Fields = []*model.Field{}
	return &rm, nil
}

func scanField(row scannable) (types.RiskModelID, *model.Field, error) {
	var (
		f         model.Field
		owner     types.RiskModelID
		fieldType string
		choices   pq.StringArray
	)
	if err := row.Scan(
		&f.ID,
		&owner,
		&f.Name,
		&f.Slug,
		&fieldType,
		&f.Default,
		&f.RegexPattern,
		&f.MinLength,
		&f.MaxLength,
		&choices,
		&f.Required,
		&f.HelpText,
		&f.Order,
		&f.Unique,
		&f.Deleted,
		&f.CreatedAt,
		&f.UpdatedAt,
	); err != nil {
		return 0, nil, err
	}
	f.FieldType = types.FieldType(fieldType)
	if choices != nil {
		f.Choices = []string(choices)
	}
	return owner, &f, nil
}

// loadFields attaches fields to the given models with one query
func loadFields(ctx context.Context, db executor, models ...*model.RiskModel) error {
	if len(models) == 0 {
		return nil
	}

	byID := make(map[types.RiskModelID]*model.RiskModel, len(models))
	ids := make([]int64, len(models))
	for i, rm := range models {
		byID[rm.ID] = rm
		ids[i] = int64(rm.ID)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+fieldColumns+` FROM fields WHERE risk_model_id = ANY($1) ORDER BY id`,
		pq.Array(ids))
	if err != nil {
		return goerr.Wrap(err, "failed to query fields")
	}
	defer rows.Close()

	for rows.Next() {
		owner, f, err := scanField(rows)
		if err != nil {
			return goerr.Wrap(err, "failed to scan field")
		}
		if rm, ok := byID[owner]; ok {
			rm.Fields = append(rm.Fields, f)
		}
	}
	if err := rows.Err(); err != nil {
		return goerr.Wrap(err, "failed to iterate fields")
	}
	return nil
}

func insertField(ctx context.Context, db executor, owner types.RiskModelID, f *model.Field, now time.Time) error {
	err := db.QueryRowContext(ctx, `
		INSERT INTO fields (
			risk_model_id, name, slug, field_type, default_value, regex_pattern,
			min_length, max_length, choices, required, help_text, field_order, is_unique, deleted,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
		RETURNING id`,
		int64(owner),
		f.Name,
		f.Slug,
		string(f.FieldType),
		f.Default,
		f.RegexPattern,
		f.MinLength,
		f.MaxLength,
		pq.Array(f.Choices),
		f.Required,
		f.HelpText,
		f.Order,
		f.Unique,
		f.Deleted,
		now,
	).Scan(&f.ID)
	if err != nil {
		return goerr.Wrap(err, "failed to insert field", goerr.V("slug", f.Slug))
	}
	f.CreatedAt = now
	f.UpdatedAt = now
	return nil
}

func updateField(ctx context.Context, db executor, owner types.RiskModelID, f *model.Field, now time.Time) error {
	err := db.QueryRowContext(ctx, `
		UPDATE fields SET
			name = $3, slug = $4, field_type = $5, default_value = $6, regex_pattern = $7,
			min_length = $8, max_length = $9, choices = $10, required = $11, help_text = $12,
			field_order = $13, is_unique = $14, deleted = $15, updated_at = $16
		WHERE id = $1 AND risk_model_id = $2
		RETURNING created_at`,
		int64(f.ID),
		int64(owner),
		f.Name,
		f.Slug,
		string(f.FieldType),
		f.Default,
		f.RegexPattern,
		f.MinLength,
		f.MaxLength,
		pq.Array(f.Choices),
		f.Required,
		f.HelpText,
		f.Order,
		f.Unique,
		f.Deleted,
		now,
	).Scan(&f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return goerr.Wrap(ErrNotFound, "field not found", goerr.V("id", f.ID), goerr.V("risk_model_id", owner))
	}
	if err != nil {
		return goerr.Wrap(err, "failed to update field", goerr.V("id", f.ID))
	}
	f.UpdatedAt = now
	return nil
}

func (r *riskModelRepository) Create(ctx context.Context, rm *model.RiskModel) (*model.RiskModel, error) {
	created := rm.Copy()
	now := time.Now().UTC()

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO risk_models (name, button, description, success_msg, activated, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING id`,
			created.Name,
			created.Button,
			created.Description,
			created.SuccessMsg,
			created.Activated,
			now,
		).Scan(&created.ID); err != nil {
			return goerr.Wrap(err, "failed to insert risk model", goerr.V("name", created.Name))
		}

		for _, f := range created.Fields {
			if err := insertField(ctx, tx, created.ID, f, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created.CreatedAt = now
	created.UpdatedAt = now
	return created, nil
}

func (r *riskModelRepository) Get(ctx context.Context, id types.RiskModelID) (*model.RiskModel, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+riskModelColumns+` FROM risk_models WHERE id = $1`, int64(id))
	rm, err := scanRiskModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(ErrNotFound, "risk model not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get risk model", goerr.V("id", id))
	}

	if err := loadFields(ctx, r.db, rm); err != nil {
		return nil, err
	}
	return rm, nil
}

func (r *riskModelRepository) List(ctx context.Context) ([]*model.RiskModel, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+riskModelColumns+` FROM risk_models ORDER BY id DESC`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query risk models")
	}
	defer rows.Close()

	models := []*model.RiskModel{}
	for rows.Next() {
		rm, err := scanRiskModel(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan risk model")
		}
		models = append(models, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate risk models")
	}

	if err := loadFields(ctx, r.db, models...); err != nil {
		return nil, err
	}
	return models, nil
}

func (r *riskModelRepository) Update(ctx context.Context, rm *model.RiskModel) (*model.RiskModel, error) {
	updated := rm.Copy()
	now := time.Now().UTC()

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			UPDATE risk_models SET
				name = $2, button = $3, description = $4, success_msg = $5, activated = $6, updated_at = $7
			WHERE id = $1
			RETURNING created_at`,
			int64(updated.ID),
			updated.Name,
			updated.Button,
			updated.Description,
			updated.SuccessMsg,
			updated.Activated,
			now,
		).Scan(&updated.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return goerr.Wrap(ErrNotFound, "risk model not found", goerr.V("id", rm.ID))
		}
		if err != nil {
			return goerr.Wrap(err, "failed to update risk model", goerr.V("id", rm.ID))
		}

		for _, f := range updated.Fields {
			if f.ID == 0 {
				err = insertField(ctx, tx, updated.ID, f, now)
			} else {
				err = updateField(ctx, tx, updated.ID, f, now)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated.UpdatedAt = now
	return updated, nil
}

func (r *riskModelRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `TRUNCATE risk_models, fields RESTART IDENTITY CASCADE`); err != nil {
		return goerr.Wrap(err, "failed to delete risk models")
	}
	return nil
}
