package repository_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskmodel/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
)

func ptr[T any](v T) *T {
	return &v
}

func newTestRiskModel(name string) *model.RiskModel {
	return &model.RiskModel{
		Name:        name,
		Button:      "Submit",
		Description: ptr("risk model " + name),
		Activated:   true,
		Fields: []*model.Field{
			{
				Name:      "Title",
				Slug:      name + "-title",
				FieldType: types.FieldTypeText,
				MaxLength: ptr(100),
				Required:  true,
				Order:     1,
			},
			{
				Name:      "Severity",
				Slug:      name + "-severity",
				FieldType: types.FieldTypeSelect,
				Choices:   []string{"low", "high"},
				Order:     2,
			},
		},
	}
}

func runRiskModelRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create assigns auto-increment IDs to model and fields", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created1, err := repo.RiskModel().Create(ctx, newTestRiskModel("first"))
		if err != nil {
			t.Fatalf("failed to create risk model: %v", err)
		}
		if created1.ID != 1 {
			t.Errorf("expected ID=1, got %d", created1.ID)
		}
		if len(created1.Fields) != 2 {
			t.Fatalf("expected 2 fields, got %d", len(created1.Fields))
		}
		if created1.Fields[0].ID == 0 || created1.Fields[1].ID == 0 {
			t.Error("expected field IDs to be assigned")
		}
		if created1.Fields[0].ID == created1.Fields[1].ID {
			t.Error("expected distinct field IDs")
		}
		if created1.CreatedAt.IsZero() {
			t.Error("expected non-zero CreatedAt")
		}

		created2, err := repo.RiskModel().Create(ctx, newTestRiskModel("second"))
		if err != nil {
			t.Fatalf("failed to create risk model: %v", err)
		}
		if created2.ID != 2 {
			t.Errorf("expected ID=2, got %d", created2.ID)
		}
	})

	t.Run("Create ignores IDs carried by incoming fields", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		rm := newTestRiskModel("ids")
		rm.Fields[0].ID = 500
		created, err := repo.RiskModel().Create(ctx, rm)
		gt.NoError(t, err).Required()
		gt.Value(t, created.Fields[0].ID).NotEqual(types.FieldID(500))
	})

	t.Run("Get retrieves model with all attributes", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.RiskModel().Create(ctx, newTestRiskModel("get"))
		gt.NoError(t, err).Required()

		got, err := repo.RiskModel().Get(ctx, created.ID)
		gt.NoError(t, err).Required()

		gt.Value(t, got.Name).Equal("get")
		gt.Value(t, got.Button).Equal("Submit")
		gt.Value(t, *got.Description).Equal("risk model get")
		gt.Value(t, got.SuccessMsg).Nil()
		gt.Bool(t, got.Activated).True()
		gt.Array(t, got.Fields).Length(2).Required()

		fields := got.ActiveFields()
		gt.Value(t, fields[0].Slug).Equal("get-title")
		gt.Value(t, *fields[0].MaxLength).Equal(100)
		gt.Value(t, fields[0].MinLength).Nil()
		gt.Bool(t, fields[0].Required).True()
		gt.Value(t, fields[1].FieldType).Equal(types.FieldTypeSelect)
		gt.Value(t, fields[1].Choices).Equal([]string{"low", "high"})
		gt.Value(t, fields[1].Order).Equal(2)
	})

	t.Run("Get returns not found for unknown ID", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.RiskModel().Get(context.Background(), 99999)
		if err == nil {
			t.Fatal("expected error for non-existent risk model")
		}
		if !isNotFound(err) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Returned model is a copy", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.RiskModel().Create(ctx, newTestRiskModel("copy"))
		gt.NoError(t, err).Required()
		created.Name = "modified"
		created.Fields[0].Name = "modified"

		got, err := repo.RiskModel().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal("copy")
		gt.Value(t, got.ActiveFields()[0].Name).Equal("Title")
	})

	t.Run("List returns newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		models, err := repo.RiskModel().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, models).Length(0)

		for _, name := range []string{"a", "b", "c"} {
			_, err := repo.RiskModel().Create(ctx, newTestRiskModel(name))
			gt.NoError(t, err).Required()
		}

		models, err = repo.RiskModel().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, models).Length(3).Required()
		gt.Value(t, models[0].Name).Equal("c")
		gt.Value(t, models[2].Name).Equal("a")
		gt.Array(t, models[0].Fields).Length(2)
	})

	t.Run("Update keeps existing fields, adds new ones and stores deleted flag", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.RiskModel().Create(ctx, newTestRiskModel("update"))
		gt.NoError(t, err).Required()

		title := created.Fields[0]
		severity := created.Fields[1]

		updated := created.Copy()
		updated.Name = "updated"
		updated.Fields[0].Name = "Headline"
		updated.Fields[1].Deleted = true
		updated.Fields = append(updated.Fields, &model.Field{
			Name:      "Note",
			Slug:      "update-note",
			FieldType: types.FieldTypeTextArea,
			Order:     2,
		})

		result, err := repo.RiskModel().Update(ctx, updated)
		gt.NoError(t, err).Required()
		gt.Array(t, result.Fields).Length(3).Required()
		gt.Value(t, result.Fields[2].ID).NotEqual(types.FieldID(0))

		got, err := repo.RiskModel().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal("updated")
		gt.Value(t, got.CreatedAt.Unix()).Equal(created.CreatedAt.Unix())

		headline := got.FieldByID(title.ID)
		gt.Value(t, headline).NotNil()
		gt.Value(t, headline.Name).Equal("Headline")
		gt.Value(t, headline.Slug).Equal("update-title")

		removed := got.FieldByID(severity.ID)
		gt.Value(t, removed).NotNil()
		gt.Bool(t, removed.Deleted).True()

		active := got.ActiveFields()
		gt.Array(t, active).Length(2).Required()
		gt.Value(t, active[1].Name).Equal("Note")
	})

	t.Run("Update returns not found for unknown model", func(t *testing.T) {
		repo := newRepo(t)

		rm := newTestRiskModel("ghost")
		rm.ID = 99999
		_, err := repo.RiskModel().Update(context.Background(), rm)
		gt.Error(t, err)
		gt.Bool(t, isNotFound(err)).True()
	})

	t.Run("DeleteAll resets models and IDs", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.RiskModel().Create(ctx, newTestRiskModel("x"))
		gt.NoError(t, err).Required()
		gt.NoError(t, repo.RiskModel().DeleteAll(ctx)).Required()

		models, err := repo.RiskModel().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, models).Length(0)

		created, err := repo.RiskModel().Create(ctx, newTestRiskModel("y"))
		gt.NoError(t, err).Required()
		gt.Value(t, created.ID).Equal(types.RiskModelID(1))
	})
}

func TestRiskModelRepository(t *testing.T) {
	for name, newRepo := range repositoryFactories {
		t.Run(name, func(t *testing.T) {
			runRiskModelRepositoryTest(t, newRepo)
		})
	}
}
