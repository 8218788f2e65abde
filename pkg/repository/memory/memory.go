package memory

import (
	"github.com/secmon-lab/riskmodel/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
)

// ErrNotFound is returned (wrapped) when an entity does not exist
var ErrNotFound = model.ErrNotFound

type Memory struct {
	riskModel  *riskModelRepository
	formSubmit *formSubmitRepository
	fieldValue *fieldValueRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	formSubmitRepo := newFormSubmitRepository()

	return &Memory{
		riskModel:  newRiskModelRepository(),
		formSubmit: formSubmitRepo,
		fieldValue: newFieldValueRepository(formSubmitRepo),
	}
}

func (m *Memory) RiskModel() interfaces.RiskModelRepository {
	return m.riskModel
}

func (m *Memory) FormSubmit() interfaces.FormSubmitRepository {
	return m.formSubmit
}

func (m *Memory) FieldValue() interfaces.FieldValueRepository {
	return m.fieldValue
}

func (m *Memory) Close() error {
	return nil
}
