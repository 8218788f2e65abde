package types

// FieldType represents the input type of a risk model field
type FieldType string

const (
	FieldTypeArray       FieldType = "array"
	FieldTypeCheckbox    FieldType = "checkbox"
	FieldTypeDate        FieldType = "date"
	FieldTypeEmail       FieldType = "email"
	FieldTypeFile        FieldType = "file"
	FieldTypeFloat       FieldType = "float"
	FieldTypeMultiSelect FieldType = "multiselect"
	FieldTypeNumber      FieldType = "number"
	FieldTypePassword    FieldType = "password"
	FieldTypeRadio       FieldType = "radio"
	FieldTypeRegex       FieldType = "regex"
	FieldTypeSelect      FieldType = "select"
	FieldTypeSwitch      FieldType = "switch"
	FieldTypeText        FieldType = "text"
	FieldTypeTextArea    FieldType = "textarea"
	FieldTypeTime        FieldType = "time"
	FieldTypeURL         FieldType = "url"
)

var fieldTypeLabels = map[FieldType]string{
	FieldTypeArray:       "ARRAY",
	FieldTypeCheckbox:    "CHECKBOX/BOOL",
	FieldTypeDate:        "DATE",
	FieldTypeEmail:       "EMAIL",
	FieldTypeFile:        "FILE",
	FieldTypeFloat:       "FLOAT",
	FieldTypeMultiSelect: "MULTI SELECT/GROUP CHECKBOX",
	FieldTypeNumber:      "NUMBER",
	FieldTypePassword:    "PASSWORD",
	FieldTypeRadio:       "RADIO",
	FieldTypeRegex:       "REGEX",
	FieldTypeSelect:      "SELECT",
	FieldTypeSwitch:      "SWITCH",
	FieldTypeText:        "TEXT",
	FieldTypeTextArea:    "TEXT AREA",
	FieldTypeTime:        "TIME",
	FieldTypeURL:         "URL",
}

// AllFieldTypes returns all valid field types in display order
func AllFieldTypes() []FieldType {
	return []FieldType{
		FieldTypeArray,
		FieldTypeCheckbox,
		FieldTypeDate,
		FieldTypeEmail,
		FieldTypeFile,
		FieldTypeFloat,
		FieldTypeMultiSelect,
		FieldTypeNumber,
		FieldTypePassword,
		FieldTypeRadio,
		FieldTypeRegex,
		FieldTypeSelect,
		FieldTypeSwitch,
		FieldTypeText,
		FieldTypeTextArea,
		FieldTypeTime,
		FieldTypeURL,
	}
}

// IsValid checks if the field type is valid
func (t FieldType) IsValid() bool {
	_, ok := fieldTypeLabels[t]
	return ok
}

// Label returns the human readable name of the field type
func (t FieldType) Label() string {
	return fieldTypeLabels[t]
}

// HasChoices reports whether values of this type are picked from the field's choices
func (t FieldType) HasChoices() bool {
	switch t {
	case FieldTypeSelect, FieldTypeMultiSelect, FieldTypeRadio:
		return true
	default:
		return false
	}
}

// IsBoolean reports whether values of this type are true/false toggles
func (t FieldType) IsBoolean() bool {
	return t == FieldTypeCheckbox || t == FieldTypeSwitch
}

// String returns the string representation of the field type
func (t FieldType) String() string {
	return string(t)
}
