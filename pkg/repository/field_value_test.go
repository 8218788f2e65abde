package repository_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskmodel/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
)

func runFieldValueRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	setup := func(t *testing.T, repo interfaces.Repository, name string) (*model.RiskModel, *model.FormSubmit) {
		t.Helper()
		ctx := context.Background()
		rm, err := repo.RiskModel().Create(ctx, newTestRiskModel(name))
		gt.NoError(t, err).Required()
		fs, err := repo.FormSubmit().Create(ctx, &model.FormSubmit{RiskModel: rm.ID})
		gt.NoError(t, err).Required()
		return rm, fs
	}

	t.Run("CreateMany assigns IDs in order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		rm, fs := setup(t, repo, "create")

		created, err := repo.FieldValue().CreateMany(ctx, []*model.FieldValue{
			{FormSubmit: fs.ID, Field: rm.Fields[0].ID, Value: ptr("outage")},
			{FormSubmit: fs.ID, Field: rm.Fields[1].ID},
		})
		gt.NoError(t, err).Required()
		gt.Array(t, created).Length(2).Required()
		gt.Value(t, created[0].ID < created[1].ID).Equal(true)
		gt.Value(t, *created[0].Value).Equal("outage")
		gt.Value(t, created[1].Value).Nil()
	})

	t.Run("CreateMany with no values is a no-op", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.FieldValue().CreateMany(context.Background(), nil)
		gt.NoError(t, err).Required()
		gt.Array(t, created).Length(0)
	})

	t.Run("ListByFormSubmit returns only values of the submission", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		rm, fs1 := setup(t, repo, "list")
		fs2, err := repo.FormSubmit().Create(ctx, &model.FormSubmit{RiskModel: rm.ID})
		gt.NoError(t, err).Required()

		_, err = repo.FieldValue().CreateMany(ctx, []*model.FieldValue{
			{FormSubmit: fs1.ID, Field: rm.Fields[0].ID, Value: ptr("a")},
			{FormSubmit: fs1.ID, Field: rm.Fields[1].ID, Value: ptr("low")},
		})
		gt.NoError(t, err).Required()
		_, err = repo.FieldValue().CreateMany(ctx, []*model.FieldValue{
			{FormSubmit: fs2.ID, Field: rm.Fields[0].ID, Value: ptr("b")},
		})
		gt.NoError(t, err).Required()

		values, err := repo.FieldValue().ListByFormSubmit(ctx, fs1.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, values).Length(2).Required()
		gt.Value(t, *values[0].Value).Equal("a")
		gt.Value(t, *values[1].Value).Equal("low")

		empty, err := repo.FieldValue().ListByFormSubmit(ctx, 99999)
		gt.NoError(t, err).Required()
		gt.Array(t, empty).Length(0)
	})

	t.Run("ExistsInSuccessfulSubmit ignores failed submissions", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		rm, fs := setup(t, repo, "unique")
		field := rm.Fields[0].ID

		_, err := repo.FieldValue().CreateMany(ctx, []*model.FieldValue{
			{FormSubmit: fs.ID, Field: field, Value: ptr("dup")},
		})
		gt.NoError(t, err).Required()

		exists, err := repo.FieldValue().ExistsInSuccessfulSubmit(ctx, field, "dup")
		gt.NoError(t, err).Required()
		gt.Bool(t, exists).False()

		fs.Success = true
		_, err = repo.FormSubmit().Update(ctx, fs)
		gt.NoError(t, err).Required()

		exists, err = repo.FieldValue().ExistsInSuccessfulSubmit(ctx, field, "dup")
		gt.NoError(t, err).Required()
		gt.Bool(t, exists).True()

		exists, err = repo.FieldValue().ExistsInSuccessfulSubmit(ctx, field, "other")
		gt.NoError(t, err).Required()
		gt.Bool(t, exists).False()

		exists, err = repo.FieldValue().ExistsInSuccessfulSubmit(ctx, rm.Fields[1].ID, "dup")
		gt.NoError(t, err).Required()
		gt.Bool(t, exists).False()
	})
}

func TestFieldValueRepository(t *testing.T) {
	for name, newRepo := range repositoryFactories {
		t.Run(name, func(t *testing.T) {
			runFieldValueRepositoryTest(t, newRepo)
		})
	}
}
