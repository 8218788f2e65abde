package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/secmon-lab/riskmodel/pkg/domain/types"
)

// Messages reported for submitted values
const (
	msgMayNotBeNull    = "This field may not be null."
	msgMayNotBeBlank   = "This field may not be blank."
	msgNotAString      = "Not a valid string."
	msgInvalidEmail    = "Enter a valid email address."
	msgInvalidNumber   = "A valid number is required."
	msgInvalidInteger  = "A valid integer is required."
	msgInvalidDate     = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	msgInvalidTime     = "Time has wrong format. Use one of these formats instead: hh:mm[:ss[.uuuuuu]]."
	msgInvalidBoolean  = "Must be a valid boolean."
	msgInvalidURL      = "Enter a valid URL."
	msgPatternMismatch = "This value does not match the required pattern."
	msgNoFile          = "No file was submitted."
	msgNotAFile        = "The submitted data was not a file. Check the encoding type on the form."
	msgDuplicateValue  = "An entry with this value already exists."
)

// MsgDuplicateValue is reported when a unique field already holds the value
const MsgDuplicateValue = msgDuplicateValue

// ParsedValue is a submitted value converted to its stored form. File is set
// only for file fields; its stored value is known after the upload.
type ParsedValue struct {
	Value *string
	File  *UploadedFile
}

// FieldValidator converts raw submitted values according to a field definition
type FieldValidator struct {
	field *Field
}

func NewFieldValidator(field *Field) *FieldValidator {
	return &FieldValidator{field: field}
}

// Validate checks raw and returns the value to store. A failed check returns a
// ValidationError keyed by the field name.
func (v *FieldValidator) Validate(raw any) (*ParsedValue, error) {
	f := v.field

	if s, ok := raw.(string); ok && s == "" {
		raw = nil
	}
	if f.FieldType.IsBoolean() && raw == nil {
		raw = false
	}

	if raw == nil {
		if f.Required {
			if f.FieldType == types.FieldTypeFile {
				return nil, v.fail(msgNoFile)
			}
			return nil, v.fail(msgMayNotBeNull)
		}
		return &ParsedValue{}, nil
	}

	var (
		value string
		msgs  []string
	)
	switch f.FieldType {
	case types.FieldTypeText, types.FieldTypeTextArea, types.FieldTypePassword:
		value, msgs = v.validateText(raw)
	case types.FieldTypeEmail:
		value, msgs = v.validateEmail(raw)
	case types.FieldTypeFloat:
		value, msgs = v.validateFloat(raw)
	case types.FieldTypeNumber:
		value, msgs = v.validateNumber(raw)
	case types.FieldTypeDate:
		value, msgs = v.validateDate(raw)
	case types.FieldTypeTime:
		value, msgs = v.validateTime(raw)
	case types.FieldTypeSelect, types.FieldTypeRadio:
		value, msgs = v.validateChoice(raw)
	case types.FieldTypeMultiSelect:
		value, msgs = v.validateMultiChoice(raw)
	case types.FieldTypeCheckbox, types.FieldTypeSwitch:
		value, msgs = v.validateBoolean(raw)
	case types.FieldTypeURL:
		value, msgs = v.validateURL(raw)
	case types.FieldTypeArray:
		value, msgs = v.validateArray(raw)
	case types.FieldTypeRegex:
		value, msgs = v.validateRegex(raw)
	case types.FieldTypeFile:
		file, ok := raw.(*UploadedFile)
		if !ok {
			return nil, v.fail(msgNotAFile)
		}
		return &ParsedValue{File: file}, nil
	default:
		return nil, NewValidationError("fields", fmt.Sprintf("%s is not a valid field type.", f.FieldType))
	}

	if len(msgs) > 0 {
		return nil, v.fail(msgs...)
	}
	if utf8.RuneCountInString(value) > FieldMaxLength {
		return nil, v.fail(fmt.Sprintf("Ensure this field has no more than %d characters.", FieldMaxLength))
	}
	return &ParsedValue{Value: &value}, nil
}

func (v *FieldValidator) fail(msgs ...string) error {
	return NewValidationError(v.field.Name, msgs...)
}

// asString accepts strings and numbers, as a form posts both as text
func asString(raw any) (string, bool) {
	switch x := raw.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	}
	return "", false
}

func (v *FieldValidator) checkLength(s string) []string {
	var msgs []string
	n := utf8.RuneCountInString(s)
	if v.field.MaxLength != nil && n > *v.field.MaxLength {
		msgs = append(msgs, fmt.Sprintf("Ensure this field has no more than %d characters.", *v.field.MaxLength))
	}
	if v.field.MinLength != nil && n < *v.field.MinLength {
		msgs = append(msgs, fmt.Sprintf("Ensure this field has at least %d characters.", *v.field.MinLength))
	}
	return msgs
}

// trimmedString is the common first step of every string typed field
func (v *FieldValidator) trimmedString(raw any) (string, []string) {
	s, ok := asString(raw)
	if !ok {
		return "", []string{msgNotAString}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", []string{msgMayNotBeBlank}
	}
	return s, nil
}

func (v *FieldValidator) validateText(raw any) (string, []string) {
	s, msgs := v.trimmedString(raw)
	if msgs != nil {
		return "", msgs
	}
	return s, v.checkLength(s)
}

func (v *FieldValidator) validateEmail(raw any) (string, []string) {
	s, msgs := v.trimmedString(raw)
	if msgs != nil {
		return "", msgs
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || !strings.Contains(s[strings.LastIndex(s, "@")+1:], ".") {
		return "", []string{msgInvalidEmail}
	}
	return s, v.checkLength(s)
}

func (v *FieldValidator) validateFloat(raw any) (string, []string) {
	var f float64
	switch x := raw.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return "", []string{msgInvalidNumber}
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return "", []string{msgInvalidNumber}
		}
		f = parsed
	default:
		return "", []string{msgInvalidNumber}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", []string{msgInvalidNumber}
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func (v *FieldValidator) validateNumber(raw any) (string, []string) {
	switch x := raw.(type) {
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		n, ok := floatToInt(x)
		if !ok {
			return "", []string{msgInvalidInteger}
		}
		return strconv.FormatInt(n, 10), nil
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return "", []string{msgInvalidInteger}
		}
		return strconv.FormatInt(n, 10), nil
	case string:
		s := strings.TrimSpace(x)
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return strconv.FormatInt(n, 10), nil
		}
		if errors.Is(err, strconv.ErrRange) {
			return "", []string{msgInvalidInteger}
		}
		// "3.0" is accepted as 3
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			if n, ok := floatToInt(f); ok {
				return strconv.FormatInt(n, 10), nil
			}
		}
		return "", []string{msgInvalidInteger}
	}
	return "", []string{msgInvalidInteger}
}

// floatToInt converts an integral f that fits in int64. 2^63 itself is
// rejected since it rounds from math.MaxInt64 but overflows.
func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func (v *FieldValidator) validateDate(raw any) (string, []string) {
	s, ok := raw.(string)
	if !ok {
		return "", []string{msgInvalidDate}
	}
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return "", []string{msgInvalidDate}
	}
	return d.Format(time.DateOnly), nil
}

var timeLayouts = []string{"15:04:05.999999", "15:04:05", "15:04"}

func (v *FieldValidator) validateTime(raw any) (string, []string) {
	s, ok := raw.(string)
	if !ok {
		return "", []string{msgInvalidTime}
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Nanosecond() != 0 {
				return t.Format("15:04:05.000000"), nil
			}
			return t.Format(time.TimeOnly), nil
		}
	}
	return "", []string{msgInvalidTime}
}

func notAValidChoice(s string) string {
	return fmt.Sprintf("%q is not a valid choice.", s)
}

func (v *FieldValidator) validateChoice(raw any) (string, []string) {
	s, ok := asString(raw)
	if !ok || !slices.Contains(v.field.Choices, s) {
		return "", []string{notAValidChoice(fmt.Sprint(raw))}
	}
	return s, nil
}

// pyTypeName names the type of a decoded JSON value the way API clients see it
func pyTypeName(raw any) string {
	switch raw.(type) {
	case string:
		return "str"
	case bool:
		return "bool"
	case float64, json.Number:
		return "float"
	case int, int64:
		return "int"
	case map[string]any:
		return "dict"
	}
	return fmt.Sprintf("%T", raw)
}

func asList(raw any) ([]any, bool) {
	switch x := raw.(type) {
	case []any:
		return x, true
	case []string:
		items := make([]any, len(x))
		for i, s := range x {
			items[i] = s
		}
		return items, true
	}
	return nil, false
}

func (v *FieldValidator) validateMultiChoice(raw any) (string, []string) {
	items, ok := asList(raw)
	if !ok {
		return "", []string{fmt.Sprintf("Expected a list of items but got type %q.", pyTypeName(raw))}
	}

	selected := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := asString(item)
		if !ok || !slices.Contains(v.field.Choices, s) {
			return "", []string{notAValidChoice(fmt.Sprint(item))}
		}
		if !slices.Contains(selected, s) {
			selected = append(selected, s)
		}
	}
	if len(selected) == 0 && v.field.Required {
		return "", []string{"This selection may not be empty."}
	}

	encoded, err := json.Marshal(selected)
	if err != nil {
		return "", []string{err.Error()}
	}
	return string(encoded), nil
}

var (
	trueValues  = []string{"true", "on", "1", "yes", "y", "t"}
	falseValues = []string{"false", "off", "0", "no", "n", "f"}
)

func (v *FieldValidator) validateBoolean(raw any) (string, []string) {
	switch x := raw.(type) {
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		if x == 1 || x == 0 {
			return strconv.FormatBool(x == 1), nil
		}
	case json.Number:
		if x == "1" || x == "0" {
			return strconv.FormatBool(x == "1"), nil
		}
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		if slices.Contains(trueValues, s) {
			return "true", nil
		}
		if slices.Contains(falseValues, s) {
			return "false", nil
		}
	}
	return "", []string{msgInvalidBoolean}
}

func (v *FieldValidator) validateURL(raw any) (string, []string) {
	s, msgs := v.trimmedString(raw)
	if msgs != nil {
		return "", msgs
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || !slices.Contains([]string{"http", "https", "ftp", "ftps"}, strings.ToLower(u.Scheme)) {
		return "", []string{msgInvalidURL}
	}
	return s, v.checkLength(s)
}

func (v *FieldValidator) validateArray(raw any) (string, []string) {
	items, ok := asList(raw)
	if !ok {
		return "", []string{fmt.Sprintf("Expected a list of items but got type %q.", pyTypeName(raw))}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return "", []string{err.Error()}
	}
	return string(encoded), nil
}

func (v *FieldValidator) validateRegex(raw any) (string, []string) {
	s, msgs := v.trimmedString(raw)
	if msgs != nil {
		return "", msgs
	}
	if v.field.RegexPattern == nil {
		return "", []string{msgPatternMismatch}
	}
	re, err := regexp.Compile(*v.field.RegexPattern)
	if err != nil || !re.MatchString(s) {
		return "", []string{msgPatternMismatch}
	}
	return s, v.checkLength(s)
}
