package model

import (
	"io"
	"time"

	"github.com/secmon-lab/riskmodel/pkg/domain/types"
)

// RiskData is a submission of values against the fields of a risk model.
// Data is keyed by field slug.
type RiskData struct {
	RiskModel     types.RiskModelID `json:"risk_model"`
	RiskModelName string            `json:"risk_model_name"`
	Data          map[string]any    `json:"data"`
}

// UploadedFile is a file value of a multipart risk data submission
type UploadedFile struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// RiskDataReceipt is returned after a successful risk data submission
type RiskDataReceipt struct {
	FormSubmit    types.FormSubmitID `json:"form_submit"`
	RiskModel     types.RiskModelID  `json:"risk_model"`
	RiskModelName string             `json:"risk_model_name"`
	TimeCreated   time.Time          `json:"time_created"`
}

// FormSubmit logs one risk data submission event. It stays unsuccessful when
// validation of the submitted values fails.
type FormSubmit struct {
	ID        types.FormSubmitID `json:"id"`
	RiskModel types.RiskModelID  `json:"risk_model"`
	Success   bool               `json:"success"`
	CreatedAt time.Time          `json:"created_on"`
}

// RiskDataLogEntry is the read-only view of a FormSubmit
type RiskDataLogEntry = FormSubmit

// FormSubmitFilter narrows a form submit listing
type FormSubmitFilter struct {
	RiskModel   *types.RiskModelID
	SuccessOnly bool
}

// FieldValue is one stored value of a submission
type FieldValue struct {
	ID         types.FieldValueID
	FormSubmit types.FormSubmitID
	Field      types.FieldID
	Value      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FieldValueView is a stored value resolved against its field
type FieldValueView struct {
	ID        types.FieldValueID `json:"id"`
	FieldName string             `json:"field_name"`
	FieldType types.FieldType    `json:"field_type"`
	Value     *string            `json:"value"`
}
