package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
	"github.com/secmon-lab/riskmodel/pkg/utils/logging"
	"github.com/secmon-lab/riskmodel/pkg/utils/safe"
)

type RiskDataUseCase struct {
	repo        interfaces.Repository
	fileStorage interfaces.FileStorage
}

func NewRiskDataUseCase(repo interfaces.Repository, fileStorage interfaces.FileStorage) *RiskDataUseCase {
	return &RiskDataUseCase{
		repo:        repo,
		fileStorage: fileStorage,
	}
}

// pendingValue is a validated value waiting to be stored
type pendingValue struct {
	field  *model.Field
	parsed *model.ParsedValue
}

// SubmitRiskData validates a submission against its risk model and stores its
// values. The submission event is logged before validation and flagged as
// successful only after every value is stored.
func (uc *RiskDataUseCase) SubmitRiskData(ctx context.Context, data *model.RiskData) (*model.RiskDataReceipt, error) {
	if err := validateRiskDataInput(data); err != nil {
		return nil, goerr.Wrap(err, "invalid risk data")
	}

	rm, err := uc.repo.RiskModel().Get(ctx, data.RiskModel)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get risk model", goerr.V(RiskModelIDKey, data.RiskModel))
	}

	for _, f := range rm.Fields {
		if f.Deleted || !f.Required {
			continue
		}
		if _, ok := data.Data[f.Slug]; !ok {
			return nil, goerr.Wrap(model.NewValidationError("data", fmt.Sprintf("%s is required.", f.Name)),
				"required field is missing", goerr.V(FieldSlugKey, f.Slug))
		}
	}

	submit, err := uc.repo.FormSubmit().Create(ctx, &model.FormSubmit{RiskModel: rm.ID})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to log form submit", goerr.V(RiskModelIDKey, rm.ID))
	}
	logger := logging.From(ctx).With("form_submit_id", submit.ID, "risk_model_id", rm.ID)

	pending, err := uc.validateValues(ctx, rm, data.Data)
	if err != nil {
		logger.Info("risk data rejected", "error", err.Error())
		return nil, goerr.Wrap(err, "failed to validate risk data", goerr.V(FormSubmitIDKey, submit.ID))
	}

	values := make([]*model.FieldValue, len(pending))
	for i, p := range pending {
		value := p.parsed.Value
		if p.parsed.File != nil {
			stored, err := uc.storeFile(ctx, p.parsed.File)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to store file",
					goerr.V(FormSubmitIDKey, submit.ID),
					goerr.V(FieldSlugKey, p.field.Slug))
			}
			value = &stored
		}
		values[i] = &model.FieldValue{
			FormSubmit: submit.ID,
			Field:      p.field.ID,
			Value:      value,
		}
	}

	if _, err := uc.repo.FieldValue().CreateMany(ctx, values); err != nil {
		return nil, goerr.Wrap(err, "failed to store field values", goerr.V(FormSubmitIDKey, submit.ID))
	}

	submit.Success = true
	done, err := uc.repo.FormSubmit().Update(ctx, submit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to mark form submit as successful", goerr.V(FormSubmitIDKey, submit.ID))
	}

	logger.Info("risk data submitted", "values", len(values))

	return &model.RiskDataReceipt{
		FormSubmit:    done.ID,
		RiskModel:     rm.ID,
		RiskModelName: strings.TrimSpace(data.RiskModelName),
		TimeCreated:   done.CreatedAt,
	}, nil
}

func validateRiskDataInput(data *model.RiskData) error {
	verr := model.ValidationError{}
	if data.RiskModel == 0 {
		verr.Add("risk_model", msgRequired)
	}
	name := strings.TrimSpace(data.RiskModelName)
	if name == "" {
		verr.Add("risk_model_name", msgMayNotBeBlank)
	} else if utf8.RuneCountInString(name) > model.FieldMaxLength {
		verr.Add("risk_model_name", fmt.Sprintf("Ensure this field has no more than %d characters.", model.FieldMaxLength))
	}
	if data.Data == nil {
		verr.Add("data", msgRequired)
	}
	if len(verr) > 0 {
		return verr
	}
	return nil
}

// validateValues checks each submitted value in field order and stops at the
// first invalid one. Unknown slugs are reported as not found.
func (uc *RiskDataUseCase) validateValues(ctx context.Context, rm *model.RiskModel, data map[string]any) ([]*pendingValue, error) {
	fields := make([]*model.Field, 0, len(data))
	for slug := range data {
		f := rm.FieldBySlug(slug)
		if f == nil {
			return nil, goerr.Wrap(ErrNotFound, "field not found",
				goerr.V(RiskModelIDKey, rm.ID),
				goerr.V(FieldSlugKey, slug))
		}
		fields = append(fields, f)
	}
	slices.SortFunc(fields, func(a, b *model.Field) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return int(a.ID - b.ID)
	})

	pending := make([]*pendingValue, 0, len(fields))
	for _, f := range fields {
		parsed, err := model.NewFieldValidator(f).Validate(data[f.Slug])
		if err != nil {
			return nil, err
		}

		if f.Unique && parsed.Value != nil {
			exists, err := uc.repo.FieldValue().ExistsInSuccessfulSubmit(ctx, f.ID, *parsed.Value)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to check unique value", goerr.V(FieldIDKey, f.ID))
			}
			if exists {
				return nil, model.NewValidationError(f.Name, model.MsgDuplicateValue)
			}
		}

		if parsed.File != nil && uc.fileStorage == nil {
			return nil, goerr.Wrap(ErrFileStorageNotConfigured, "file field cannot be stored", goerr.V(FieldSlugKey, f.Slug))
		}

		pending = append(pending, &pendingValue{field: f, parsed: parsed})
	}
	return pending, nil
}

func (uc *RiskDataUseCase) storeFile(ctx context.Context, file *model.UploadedFile) (string, error) {
	if file.Open == nil {
		return "", goerr.New("uploaded file has no content", goerr.V("filename", file.Filename))
	}
	r, err := file.Open()
	if err != nil {
		return "", goerr.Wrap(err, "failed to open uploaded file", goerr.V("filename", file.Filename))
	}
	defer safe.Close(ctx, r, "filename", file.Filename)

	url, err := uc.fileStorage.Save(ctx, file.Filename, r, file.ContentType)
	if err != nil {
		return "", goerr.Wrap(err, "failed to save uploaded file", goerr.V("filename", file.Filename))
	}
	return url, nil
}

// GetRiskData returns the stored values of one submission ordered by ID. An
// unknown submission has no values.
func (uc *RiskDataUseCase) GetRiskData(ctx context.Context, id types.FormSubmitID) ([]*model.FieldValueView, error) {
	views := []*model.FieldValueView{}

	submit, err := uc.repo.FormSubmit().Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return views, nil
		}
		return nil, goerr.Wrap(err, "failed to get form submit", goerr.V(FormSubmitIDKey, id))
	}

	values, err := uc.repo.FieldValue().ListByFormSubmit(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list field values", goerr.V(FormSubmitIDKey, id))
	}
	if len(values) == 0 {
		return views, nil
	}

	rm, err := uc.repo.RiskModel().Get(ctx, submit.RiskModel)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get risk model", goerr.V(RiskModelIDKey, submit.RiskModel))
	}

	for _, v := range values {
		f := rm.FieldByID(v.Field)
		if f == nil {
			return nil, goerr.New("field of stored value is missing",
				goerr.V(FormSubmitIDKey, id),
				goerr.V(FieldIDKey, v.Field))
		}
		views = append(views, &model.FieldValueView{
			ID:        v.ID,
			FieldName: f.Name,
			FieldType: f.FieldType,
			Value:     v.Value,
		})
	}
	return views, nil
}
