package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
	"github.com/secmon-lab/riskmodel/pkg/repository/memory"
	"github.com/secmon-lab/riskmodel/pkg/usecase"
)

func ptr[T any](v T) *T {
	return &v
}

func newAutomobileInput() *model.RiskModel {
	return &model.RiskModel{
		Name:      "Automobile",
		Button:    "Submit",
		Activated: true,
		Fields: []*model.Field{
			{Name: "Model", FieldType: types.FieldTypeText, Required: true, Order: 1},
			{Name: "Color", FieldType: types.FieldTypeSelect, Choices: []string{"red", "blue"}, Required: true, Order: 2},
			{Name: "Plate Number", FieldType: types.FieldTypeText, Unique: true, Order: 3},
		},
	}
}

func requireValidationError(t *testing.T, err error) model.ValidationError {
	t.Helper()
	var verr model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	return verr
}

func TestRiskModelUseCase_CreateRiskModel(t *testing.T) {
	t.Run("create generates slugs and ignores field IDs", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)
		ctx := context.Background()

		input := newAutomobileInput()
		input.Fields[0].ID = 77
		created, err := uc.RiskModel.CreateRiskModel(ctx, input)
		gt.NoError(t, err).Required()

		gt.Value(t, created.ID).NotEqual(types.RiskModelID(0))
		gt.Array(t, created.Fields).Length(3).Required()
		gt.Value(t, created.Fields[0].Slug).Equal("model")
		gt.Value(t, created.Fields[1].Slug).Equal("color")
		gt.Value(t, created.Fields[2].Slug).Equal("plate-number")
		gt.Value(t, created.Fields[0].ID).NotEqual(types.FieldID(77))
	})

	t.Run("slugs are unique across risk models", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)
		ctx := context.Background()

		_, err := uc.RiskModel.CreateRiskModel(ctx, newAutomobileInput())
		gt.NoError(t, err).Required()

		second := newAutomobileInput()
		second.Name = "Truck"
		created, err := uc.RiskModel.CreateRiskModel(ctx, second)
		gt.NoError(t, err).Required()
		gt.Value(t, created.Fields[0].Slug).Equal("model-1")
		gt.Value(t, created.Fields[2].Slug).Equal("plate-number-1")

		third := newAutomobileInput()
		third.Name = "Bus"
		created, err = uc.RiskModel.CreateRiskModel(ctx, third)
		gt.NoError(t, err).Required()
		gt.Value(t, created.Fields[0].Slug).Equal("model-2")
	})

	t.Run("risk model without fields is rejected", func(t *testing.T) {
		uc := usecase.New(memory.New())
		input := newAutomobileInput()
		input.Fields = []*model.Field{}

		_, err := uc.RiskModel.CreateRiskModel(context.Background(), input)
		verr := requireValidationError(t, err)
		gt.Value(t, verr["fields"]).Equal([]string{"Risk Model has no fields. At least one field is required."})
	})

	t.Run("non sequential order is rejected", func(t *testing.T) {
		uc := usecase.New(memory.New())
		input := newAutomobileInput()
		input.Fields[2].Order = 5

		_, err := uc.RiskModel.CreateRiskModel(context.Background(), input)
		verr := requireValidationError(t, err)
		gt.Value(t, verr["fields"]).Equal([]string{"Riskmodel fields must have a sequential order."})
	})

	t.Run("order must start at one", func(t *testing.T) {
		uc := usecase.New(memory.New())
		input := newAutomobileInput()
		for i, f := range input.Fields {
			f.Order = i
		}

		_, err := uc.RiskModel.CreateRiskModel(context.Background(), input)
		verr := requireValidationError(t, err)
		gt.Array(t, verr["fields"]).Has("Riskmodel fields must have a sequential order.")
	})

	t.Run("duplicate field names are rejected", func(t *testing.T) {
		uc := usecase.New(memory.New())
		input := newAutomobileInput()
		input.Fields[1].Name = "Model"

		_, err := uc.RiskModel.CreateRiskModel(context.Background(), input)
		verr := requireValidationError(t, err)
		gt.Value(t, verr["fields"]).Equal([]string{"Riskmodel fields must have unique names."})
	})

	t.Run("field attribute errors", func(t *testing.T) {
		uc := usecase.New(memory.New())
		input := &model.RiskModel{
			Name:   "",
			Button: "Go",
			Fields: []*model.Field{
				{Name: "A", FieldType: types.FieldTypeText, MinLength: ptr(10), MaxLength: ptr(5), Order: 1},
				{Name: "B", FieldType: types.FieldTypeMultiSelect, Order: 2},
				{Name: "C", FieldType: types.FieldTypeRegex, Order: 3},
				{Name: "D", FieldType: types.FieldTypeText, MaxLength: ptr(300), Order: 4},
				{Name: "E", FieldType: types.FieldType("hidden"), Order: 5},
			},
		}

		_, err := uc.RiskModel.CreateRiskModel(context.Background(), input)
		verr := requireValidationError(t, err)
		gt.Array(t, verr["name"]).Has("This field may not be blank.")
		gt.Array(t, verr["min_length"]).Has("Min Length can't be greater than Max Length.")
		gt.Array(t, verr["choices"]).Has("Choices are required for this Field type.")
		gt.Array(t, verr["regex_pattern"]).Has("Regex Pattern is required for the REGEX Field type.")
		gt.Array(t, verr["max_length"]).Has("Ensure this value is less than or equal to 255.")
		gt.Array(t, verr["field_type"]).Has(`"hidden" is not a valid choice.`)
	})

	t.Run("invalid regex pattern is rejected", func(t *testing.T) {
		uc := usecase.New(memory.New())
		input := newAutomobileInput()
		input.Fields[0].FieldType = types.FieldTypeRegex
		input.Fields[0].RegexPattern = ptr("([a-z")

		_, err := uc.RiskModel.CreateRiskModel(context.Background(), input)
		verr := requireValidationError(t, err)
		gt.Array(t, verr["regex_pattern"]).Has("Regex Pattern is not a valid regular expression.")
	})

	t.Run("risk model names are unique", func(t *testing.T) {
		uc := usecase.New(memory.New())
		ctx := context.Background()

		_, err := uc.RiskModel.CreateRiskModel(ctx, newAutomobileInput())
		gt.NoError(t, err).Required()

		_, err = uc.RiskModel.CreateRiskModel(ctx, newAutomobileInput())
		verr := requireValidationError(t, err)
		gt.Array(t, verr["name"]).Has("risk model with this name already exists.")
	})
}

func TestRiskModelUseCase_UpdateRiskModel(t *testing.T) {
	setup := func(t *testing.T) (*usecase.UseCases, *model.RiskModel) {
		t.Helper()
		uc := usecase.New(memory.New())
		created, err := uc.RiskModel.CreateRiskModel(context.Background(), newAutomobileInput())
		gt.NoError(t, err).Required()
		return uc, created
	}

	t.Run("update, create and soft delete fields", func(t *testing.T) {
		uc, created := setup(t)
		ctx := context.Background()

		input := created.Copy()
		input.Description = ptr("cars")
		input.Fields[0].Name = "Model Name"
		input.Fields[0].Slug = "ignored"
		// drop Color, add Year
		input.Fields = []*model.Field{
			input.Fields[0],
			input.Fields[2],
			{Name: "Year", FieldType: types.FieldTypeNumber, Order: 3},
		}
		input.Fields[1].Order = 2

		updated, err := uc.RiskModel.UpdateRiskModel(ctx, created.ID, input)
		gt.NoError(t, err).Required()

		gt.Value(t, *updated.Description).Equal("cars")
		gt.Array(t, updated.Fields).Length(3).Required()
		gt.Value(t, updated.Fields[0].ID).Equal(created.Fields[0].ID)
		gt.Value(t, updated.Fields[0].Name).Equal("Model Name")
		gt.Value(t, updated.Fields[0].Slug).Equal("model")
		gt.Value(t, updated.Fields[2].Slug).Equal("year")

		got, err := uc.RiskModel.GetRiskModel(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, got.Fields).Length(3)
		for _, f := range got.Fields {
			gt.Value(t, f.Name).NotEqual("Color")
		}
	})

	t.Run("field ID of another model is not found", func(t *testing.T) {
		uc, created := setup(t)

		input := created.Copy()
		input.Fields[0].ID = 9999

		_, err := uc.RiskModel.UpdateRiskModel(context.Background(), created.ID, input)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrNotFound)).True()
	})

	t.Run("unknown risk model is not found", func(t *testing.T) {
		uc, created := setup(t)

		_, err := uc.RiskModel.UpdateRiskModel(context.Background(), created.ID+100, created.Copy())
		gt.Bool(t, errors.Is(err, usecase.ErrNotFound)).True()
	})

	t.Run("own name does not conflict", func(t *testing.T) {
		uc, created := setup(t)

		_, err := uc.RiskModel.UpdateRiskModel(context.Background(), created.ID, created.Copy())
		gt.NoError(t, err)
	})
}

func TestRiskModelUseCase_ListRiskModels(t *testing.T) {
	uc := usecase.New(memory.New())
	ctx := context.Background()

	for _, name := range []string{"Automobile", "Property"} {
		input := newAutomobileInput()
		input.Name = name
		_, err := uc.RiskModel.CreateRiskModel(ctx, input)
		gt.NoError(t, err).Required()
	}

	models, err := uc.RiskModel.ListRiskModels(ctx)
	gt.NoError(t, err).Required()
	gt.Array(t, models).Length(2).Required()
	gt.Value(t, models[0].Name).Equal("Property")
	gt.Value(t, models[1].Name).Equal("Automobile")
}

func TestRiskModelUseCase_FieldTypes(t *testing.T) {
	uc := usecase.New(memory.New())
	choices := uc.RiskModel.FieldTypes(context.Background())

	gt.Array(t, choices).Length(17).Required()
	gt.Value(t, choices[0].Value).Equal(types.FieldTypeArray)
	gt.Value(t, choices[0].Text).Equal("ARRAY")
	gt.Value(t, choices[16].Value).Equal(types.FieldTypeURL)
}

func TestSlugify(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  string
	}{
		{"Plate Number", "plate-number"},
		{"  Crème Brûlée!  ", "creme-brulee"},
		{"a -- b", "a-b"},
		{"snake_case", "snake_case"},
		{"???", ""},
	} {
		t.Run(tc.input, func(t *testing.T) {
			gt.Value(t, usecase.Slugify(tc.input)).Equal(tc.want)
		})
	}
}
