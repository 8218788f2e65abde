package usecase

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
)

// Sentinel errors for use case layer
var (
	ErrNotFound = model.ErrNotFound

	ErrFileStorageNotConfigured = goerr.New("file storage is not configured")
)

// Context keys for error values
const (
	RiskModelIDKey  = "risk_model_id"
	FieldIDKey      = "field_id"
	FieldSlugKey    = "field_slug"
	FormSubmitIDKey = "form_submit_id"
)

// Messages reported to API clients
const (
	msgRequired         = "This field is required."
	msgMayNotBeBlank    = "This field may not be blank."
	msgNoFields         = "Risk Model has no fields. At least one field is required."
	msgSequentialOrder  = "Riskmodel fields must have a sequential order."
	msgUniqueFieldNames = "Riskmodel fields must have unique names."
	msgMinOverMax       = "Min Length can't be greater than Max Length."
	msgChoicesRequired  = "Choices are required for this Field type."
	msgRegexRequired    = "Regex Pattern is required for the REGEX Field type."
	msgRegexInvalid     = "Regex Pattern is not a valid regular expression."
	msgNameExists       = "risk model with this name already exists."
)
