package types

import (
	"strconv"

	"github.com/m-mizutani/goerr/v2"
)

// RiskModelID identifies a risk model
type RiskModelID int64

// FieldID identifies a field of a risk model
type FieldID int64

// FormSubmitID identifies one risk data submission event
type FormSubmitID int64

// FieldValueID identifies one stored field value
type FieldValueID int64

func (id RiskModelID) String() string  { return strconv.FormatInt(int64(id), 10) }
func (id FieldID) String() string      { return strconv.FormatInt(int64(id), 10) }
func (id FormSubmitID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id FieldValueID) String() string { return strconv.FormatInt(int64(id), 10) }

// ErrInvalidID is returned when a path or query parameter is not a positive integer
var ErrInvalidID = goerr.New("invalid ID")

func parseID(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 1 {
		return 0, goerr.Wrap(ErrInvalidID, "ID must be a positive integer", goerr.V("id", s))
	}
	return v, nil
}

// ParseRiskModelID parses a decimal risk model ID
func ParseRiskModelID(s string) (RiskModelID, error) {
	v, err := parseID(s)
	return RiskModelID(v), err
}

// ParseFormSubmitID parses a decimal form submit ID
func ParseFormSubmitID(s string) (FormSubmitID, error) {
	v, err := parseID(s)
	return FormSubmitID(v), err
}
