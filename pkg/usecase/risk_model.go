package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
	"github.com/secmon-lab/riskmodel/pkg/utils/logging"
)

type RiskModelUseCase struct {
	repo interfaces.Repository
}

func NewRiskModelUseCase(repo interfaces.Repository) *RiskModelUseCase {
	return &RiskModelUseCase{
		repo: repo,
	}
}

// ListRiskModels returns all risk models, newest first, without deleted fields
func (uc *RiskModelUseCase) ListRiskModels(ctx context.Context) ([]*model.RiskModel, error) {
	models, err := uc.repo.RiskModel().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list risk models")
	}

	presented := make([]*model.RiskModel, len(models))
	for i, rm := range models {
		presented[i] = rm.Presented()
	}
	return presented, nil
}

func (uc *RiskModelUseCase) GetRiskModel(ctx context.Context, id types.RiskModelID) (*model.RiskModel, error) {
	rm, err := uc.repo.RiskModel().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get risk model", goerr.V(RiskModelIDKey, id))
	}
	return rm.Presented(), nil
}

// FieldTypes returns the selectable field types in declaration order
func (uc *RiskModelUseCase) FieldTypes(ctx context.Context) []*model.FieldTypeChoice {
	return model.FieldTypeChoices()
}

// CreateRiskModel validates input and stores it with generated field slugs.
// Field IDs carried by input are ignored.
func (uc *RiskModelUseCase) CreateRiskModel(ctx context.Context, input *model.RiskModel) (*model.RiskModel, error) {
	existing, err := uc.repo.RiskModel().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list risk models")
	}

	if err := validateRiskModel(input, existing, 0); err != nil {
		return nil, goerr.Wrap(err, "invalid risk model")
	}

	slugs := newSlugRegistry(existing)
	rm := trimmed(input)
	rm.ID = 0
	for _, f := range rm.Fields {
		f.ID = 0
		f.Deleted = false
		f.Slug = slugs.generate(f.Name)
	}

	created, err := uc.repo.RiskModel().Create(ctx, rm)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create risk model")
	}

	logging.From(ctx).Info("risk model created",
		"id", created.ID,
		"name", created.Name,
		"fields", len(created.Fields))

	return created.Presented(), nil
}

// UpdateRiskModel replaces the attributes of a risk model. Posted fields with an
// ID are updated in place, fields without one are created, and existing fields
// that are not posted are soft deleted.
func (uc *RiskModelUseCase) UpdateRiskModel(ctx context.Context, id types.RiskModelID, input *model.RiskModel) (*model.RiskModel, error) {
	current, err := uc.repo.RiskModel().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get risk model", goerr.V(RiskModelIDKey, id))
	}

	all, err := uc.repo.RiskModel().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list risk models")
	}

	if err := validateRiskModel(input, all, id); err != nil {
		return nil, goerr.Wrap(err, "invalid risk model", goerr.V(RiskModelIDKey, id))
	}

	slugs := newSlugRegistry(all)
	updated := trimmed(input)
	updated.ID = id
	updated.CreatedAt = current.CreatedAt

	posted := make(map[types.FieldID]struct{})
	fields := make([]*model.Field, 0, len(current.Fields)+len(updated.Fields))
	for _, f := range updated.Fields {
		if f.ID == 0 {
			f.Deleted = false
			f.Slug = slugs.generate(f.Name)
			fields = append(fields, f)
			continue
		}

		prev := current.FieldByID(f.ID)
		if prev == nil || prev.Deleted {
			return nil, goerr.Wrap(ErrNotFound, "field not found",
				goerr.V(RiskModelIDKey, id),
				goerr.V(FieldIDKey, f.ID))
		}
		if _, dup := posted[f.ID]; dup {
			return nil, goerr.Wrap(model.NewValidationError("fields", fmt.Sprintf("Field %d is posted more than once.", f.ID)),
				"duplicated field", goerr.V(FieldIDKey, f.ID))
		}
		posted[f.ID] = struct{}{}

		f.Slug = prev.Slug
		f.Deleted = false
		f.CreatedAt = prev.CreatedAt
		fields = append(fields, f)
	}

	var removed int
	for _, prev := range current.Fields {
		if _, ok := posted[prev.ID]; ok {
			continue
		}
		if !prev.Deleted {
			removed++
		}
		gone := prev.Copy()
		gone.Deleted = true
		fields = append(fields, gone)
	}
	updated.Fields = fields

	result, err := uc.repo.RiskModel().Update(ctx, updated)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update risk model", goerr.V(RiskModelIDKey, id))
	}

	logging.From(ctx).Info("risk model updated",
		"id", result.ID,
		"name", result.Name,
		"removed_fields", removed)

	return result.Presented(), nil
}

// trimmed returns a copy of rm with surrounding spaces removed from names
func trimmed(rm *model.RiskModel) *model.RiskModel {
	c := rm.Copy()
	c.Name = strings.TrimSpace(c.Name)
	c.Button = strings.TrimSpace(c.Button)
	for _, f := range c.Fields {
		f.Name = strings.TrimSpace(f.Name)
	}
	return c
}

// validateRiskModel checks attributes of rm. self is the ID of the model being
// updated, excluded from the name uniqueness check.
func validateRiskModel(rm *model.RiskModel, existing []*model.RiskModel, self types.RiskModelID) error {
	verr := model.ValidationError{}

	checkCharField(verr, "name", rm.Name)
	checkCharField(verr, "button", rm.Button)
	for _, other := range existing {
		if other.ID != self && other.Name == strings.TrimSpace(rm.Name) {
			verr.Add("name", msgNameExists)
			break
		}
	}

	if rm.Fields == nil {
		verr.Add("fields", msgRequired)
	}
	for _, f := range rm.Fields {
		validateField(verr, f)
	}
	if len(verr) > 0 {
		return verr
	}

	if msg := checkFieldList(rm.Fields); msg != "" {
		return model.NewValidationError("fields", msg)
	}
	return nil
}

func checkCharField(verr model.ValidationError, attr, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		verr.Add(attr, msgMayNotBeBlank)
		return
	}
	if utf8.RuneCountInString(value) > model.FieldMaxLength {
		verr.Add(attr, fmt.Sprintf("Ensure this field has no more than %d characters.", model.FieldMaxLength))
	}
}

func validateField(verr model.ValidationError, f *model.Field) {
	if strings.TrimSpace(f.Name) == "" {
		verr.Add("fields", "Field name may not be blank.")
	} else if utf8.RuneCountInString(f.Name) > model.FieldMaxLength {
		verr.Add("fields", fmt.Sprintf("Field name must have no more than %d characters.", model.FieldMaxLength))
	}

	if !f.FieldType.IsValid() {
		verr.Add("field_type", fmt.Sprintf("%q is not a valid choice.", string(f.FieldType)))
		return
	}

	for attr, v := range map[string]*int{"min_length": f.MinLength, "max_length": f.MaxLength} {
		if v == nil {
			continue
		}
		if *v < 0 {
			verr.Add(attr, "Ensure this value is greater than or equal to 0.")
		}
		if *v > model.FieldMaxLength {
			verr.Add(attr, fmt.Sprintf("Ensure this value is less than or equal to %d.", model.FieldMaxLength))
		}
	}
	if f.MinLength != nil && f.MaxLength != nil && *f.MinLength > 0 && *f.MaxLength > 0 && *f.MinLength > *f.MaxLength {
		verr.Add("min_length", msgMinOverMax)
	}

	if (f.FieldType == types.FieldTypeSelect || f.FieldType == types.FieldTypeMultiSelect) && len(f.Choices) == 0 {
		verr.Add("choices", msgChoicesRequired)
	}

	if f.FieldType == types.FieldTypeRegex {
		if f.RegexPattern == nil {
			verr.Add("regex_pattern", msgRegexRequired)
		} else if _, err := regexp.Compile(*f.RegexPattern); err != nil {
			verr.Add("regex_pattern", msgRegexInvalid)
		}
	}
}

// checkFieldList validates the field list as a whole: it must be non-empty,
// ordered 1..N in posted order, and use distinct names.
func checkFieldList(fields []*model.Field) string {
	if len(fields) == 0 {
		return msgNoFields
	}

	for i, f := range fields {
		if f.Order != i+1 {
			return msgSequentialOrder
		}
	}

	names := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := names[f.Name]; dup {
			return msgUniqueFieldNames
		}
		names[f.Name] = struct{}{}
	}
	return ""
}
