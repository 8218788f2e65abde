package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
	"github.com/secmon-lab/riskmodel/pkg/repository/postgres"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		_ = db.Close()
	})
	return db, mock
}

var riskModelRowColumns = []string{
	"id", "name", "button", "description", "success_msg", "activated", "created_at", "updated_at",
}

var fieldRowColumns = []string{
	"id", "risk_model_id", "name", "slug", "field_type", "default_value", "regex_pattern",
	"min_length", "max_length", "choices", "required", "help_text", "field_order", "is_unique", "deleted",
	"created_at", "updated_at",
}

var formSubmitRowColumns = []string{"id", "risk_model_id", "success", "created_at"}

var fieldValueRowColumns = []string{"id", "form_submit_id", "field_id", "value", "created_at", "updated_at"}

func TestRiskModelGet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewWithDB(db)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM risk_models WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(riskModelRowColumns).
			AddRow(int64(7), "Incident", "Send", "desc", nil, true, now, now))
	mock.ExpectQuery(`SELECT .+ FROM fields WHERE risk_model_id = ANY\(\$1\) ORDER BY id`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(fieldRowColumns).
			AddRow(int64(1), int64(7), "Title", "title", "text", nil, nil, 1, 20, nil, true, nil, 1, false, false, now, now).
			AddRow(int64(2), int64(7), "Severity", "severity", "select", "low", nil, nil, nil, "{low,high}", false, "pick one", 2, false, false, now, now))

	rm, err := repo.RiskModel().Get(context.Background(), 7)
	gt.NoError(t, err).Required()

	gt.Value(t, rm.ID).Equal(types.RiskModelID(7))
	gt.Value(t, rm.Name).Equal("Incident")
	gt.Value(t, *rm.Description).Equal("desc")
	gt.Value(t, rm.SuccessMsg).Nil()
	gt.Array(t, rm.Fields).Length(2).Required()

	title := rm.Fields[0]
	gt.Value(t, title.FieldType).Equal(types.FieldTypeText)
	gt.Value(t, *title.MinLength).Equal(1)
	gt.Value(t, *title.MaxLength).Equal(20)
	gt.Array(t, title.Choices).Length(0)

	severity := rm.Fields[1]
	gt.Value(t, severity.Choices).Equal([]string{"low", "high"})
	gt.Value(t, *severity.Default).Equal("low")
	gt.Value(t, severity.Order).Equal(2)
	gt.Bool(t, severity.Required).False()
}

func TestRiskModelGetNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewWithDB(db)

	mock.ExpectQuery(`SELECT .+ FROM risk_models WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.RiskModel().Get(context.Background(), 99)
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, postgres.ErrNotFound)).True()
}

func TestRiskModelCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewWithDB(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO risk_models`).
		WithArgs("Incident", "Send", nil, nil, true, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectQuery(`INSERT INTO fields`).
		WithArgs(int64(3), "Title", "title", "text",
			nil, nil, nil, nil, sqlmock.AnyArg(), true, nil, 1, false, false, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	mock.ExpectCommit()

	created, err := repo.RiskModel().Create(context.Background(), &model.RiskModel{
		Name:      "Incident",
		Button:    "Send",
		Activated: true,
		Fields: []*model.Field{
			{Name: "Title", Slug: "title", FieldType: types.FieldTypeText, Required: true, Order: 1},
		},
	})
	gt.NoError(t, err).Required()
	gt.Value(t, created.ID).Equal(types.RiskModelID(3))
	gt.Value(t, created.Fields[0].ID).Equal(types.FieldID(10))
	gt.Bool(t, created.CreatedAt.IsZero()).False()
}

func TestRiskModelCreateRollback(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewWithDB(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO risk_models`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectQuery(`INSERT INTO fields`).
		WillReturnError(errors.New("duplicate slug"))
	mock.ExpectRollback()

	_, err := repo.RiskModel().Create(context.Background(), &model.RiskModel{
		Name:   "Incident",
		Button: "Send",
		Fields: []*model.Field{{Name: "Title", Slug: "title", FieldType: types.FieldTypeText, Order: 1}},
	})
	gt.Error(t, err)
}

func TestRiskModelUpdateUnknownField(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewWithDB(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE risk_models SET`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectQuery(`UPDATE fields SET`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.RiskModel().Update(context.Background(), &model.RiskModel{
		ID:     1,
		Name:   "Incident",
		Button: "Send",
		Fields: []*model.Field{{ID: 42, Name: "Title", Slug: "title", FieldType: types.FieldTypeText, Order: 1}},
	})
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, postgres.ErrNotFound)).True()
}

func TestFormSubmitList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewWithDB(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM form_submits WHERE success = TRUE AND risk_model_id = \$1 ORDER BY id DESC`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(formSubmitRowColumns).
			AddRow(int64(9), int64(5), true, now).
			AddRow(int64(4), int64(5), true, now))

	rmID := types.RiskModelID(5)
	submits, err := repo.FormSubmit().List(context.Background(), model.FormSubmitFilter{
		RiskModel:   &rmID,
		SuccessOnly: true,
	})
	gt.NoError(t, err).Required()
	gt.Array(t, submits).Length(2).Required()
	gt.Value(t, submits[0].ID).Equal(types.FormSubmitID(9))
	gt.Value(t, submits[1].ID).Equal(types.FormSubmitID(4))
}

func TestFormSubmitUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewWithDB(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`UPDATE form_submits SET success = \$2 WHERE id = \$1`).
		WithArgs(int64(3), true).
		WillReturnRows(sqlmock.NewRows(formSubmitRowColumns).AddRow(int64(3), int64(1), true, now))

	updated, err := repo.FormSubmit().Update(context.Background(), &model.FormSubmit{ID: 3, Success: true})
	gt.NoError(t, err).Required()
	gt.Bool(t, updated.Success).True()
	gt.Value(t, updated.RiskModel).Equal(types.RiskModelID(1))
}

func TestFieldValueCreateMany(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewWithDB(db)
	now := time.Now().UTC()
	v := "hello"

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO field_values`).
		WithArgs(int64(1), int64(10), "hello", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(fieldValueRowColumns).AddRow(int64(1), int64(1), int64(10), "hello", now, now))
	mock.ExpectQuery(`INSERT INTO field_values`).
		WithArgs(int64(1), int64(11), nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(fieldValueRowColumns).AddRow(int64(2), int64(1), int64(11), nil, now, now))
	mock.ExpectCommit()

	created, err := repo.FieldValue().CreateMany(context.Background(), []*model.FieldValue{
		{FormSubmit: 1, Field: 10, Value: &v},
		{FormSubmit: 1, Field: 11},
	})
	gt.NoError(t, err).Required()
	gt.Array(t, created).Length(2).Required()
	gt.Value(t, *created[0].Value).Equal("hello")
	gt.Value(t, created[1].Value).Nil()
}

func TestFieldValueExistsInSuccessfulSubmit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := postgres.NewWithDB(db)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(10), "dup").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.FieldValue().ExistsInSuccessfulSubmit(context.Background(), 10, "dup")
	gt.NoError(t, err).Required()
	gt.Bool(t, exists).True()
}
