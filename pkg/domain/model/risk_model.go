package model

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/secmon-lab/riskmodel/pkg/domain/types"
)

// FieldMaxLength bounds min_length/max_length of a field and the stored length of a value
const FieldMaxLength = 255

// RiskModel is a named schema of ordered, typed fields used to collect risk data
type RiskModel struct {
	ID          types.RiskModelID `json:"id"`
	Name        string            `json:"name"`
	Button      string            `json:"button"`
	Description *string           `json:"description"`
	SuccessMsg  *string           `json:"success_msg"`
	Activated   bool              `json:"activated"`
	Fields      []*Field          `json:"fields"`
	CreatedAt   time.Time         `json:"-"`
	UpdatedAt   time.Time         `json:"-"`
}

// UnmarshalJSON applies the defaults of an omitted "activated" attribute
func (m *RiskModel) UnmarshalJSON(data []byte) error {
	type plain RiskModel
	v := plain{Activated: true}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = RiskModel(v)
	return nil
}

// Field is one typed input definition of a risk model
type Field struct {
	ID           types.FieldID   `json:"id,omitempty"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	FieldType    types.FieldType `json:"field_type"`
	Default      *string         `json:"default"`
	RegexPattern *string         `json:"regex_pattern"`
	MinLength    *int            `json:"min_length"`
	MaxLength    *int            `json:"max_length"`
	Choices      []string        `json:"choices"`
	Required     bool            `json:"required"`
	HelpText     *string         `json:"help_text"`
	Order        int             `json:"order"`
	Unique       bool            `json:"unique"`

	// Deleted marks a field removed by an update. It is kept so stored values still resolve.
	Deleted   bool      `json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// UnmarshalJSON applies the defaults of an omitted "required" attribute
func (f *Field) UnmarshalJSON(data []byte) error {
	type plain Field
	v := plain{Required: true}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Field(v)
	return nil
}

// SetOrder sets the 1-based position of the field in its model
func (f *Field) SetOrder(order int) {
	f.Order = order
}

// Copy returns a deep copy of the field
func (f *Field) Copy() *Field {
	c := *f
	c.Default = copyString(f.Default)
	c.RegexPattern = copyString(f.RegexPattern)
	c.HelpText = copyString(f.HelpText)
	if f.MinLength != nil {
		v := *f.MinLength
		c.MinLength = &v
	}
	if f.MaxLength != nil {
		v := *f.MaxLength
		c.MaxLength = &v
	}
	if f.Choices != nil {
		c.Choices = slices.Clone(f.Choices)
	}
	return &c
}

// Copy returns a deep copy of the risk model including deleted fields
func (m *RiskModel) Copy() *RiskModel {
	c := *m
	c.Description = copyString(m.Description)
	c.SuccessMsg = copyString(m.SuccessMsg)
	c.Fields = make([]*Field, len(m.Fields))
	for i, f := range m.Fields {
		c.Fields[i] = f.Copy()
	}
	return &c
}

// ActiveFields returns the non-deleted fields sorted by order
func (m *RiskModel) ActiveFields() []*Field {
	fields := make([]*Field, 0, len(m.Fields))
	for _, f := range m.Fields {
		if !f.Deleted {
			fields = append(fields, f)
		}
	}
	slices.SortStableFunc(fields, func(a, b *Field) int {
		return a.Order - b.Order
	})
	return fields
}

// Presented returns a copy of the model as exposed by the API: deleted fields are
// dropped and the rest are sorted by order.
func (m *RiskModel) Presented() *RiskModel {
	c := m.Copy()
	c.Fields = c.ActiveFields()
	return c
}

// FieldByID looks up a field including deleted ones
func (m *RiskModel) FieldByID(id types.FieldID) *Field {
	for _, f := range m.Fields {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// FieldBySlug looks up a non-deleted field
func (m *RiskModel) FieldBySlug(slug string) *Field {
	for _, f := range m.Fields {
		if !f.Deleted && f.Slug == slug {
			return f
		}
	}
	return nil
}

// NullBlankFields replaces every nullable attribute holding an empty string with
// nil, on the model and on each of its fields. It returns m for chaining.
func (m *RiskModel) NullBlankFields() *RiskModel {
	nullBlank(&m.Description)
	nullBlank(&m.SuccessMsg)
	for _, f := range m.Fields {
		nullBlank(&f.Default)
		nullBlank(&f.RegexPattern)
		nullBlank(&f.HelpText)
	}
	return m
}

func nullBlank(p **string) {
	if *p != nil && **p == "" {
		*p = nil
	}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// FieldTypeChoice describes one selectable field type
type FieldTypeChoice struct {
	Text  string          `json:"text"`
	Value types.FieldType `json:"value"`
}

// FieldTypeChoices lists all field types as text/value pairs
func FieldTypeChoices() []*FieldTypeChoice {
	all := types.AllFieldTypes()
	choices := make([]*FieldTypeChoice, len(all))
	for i, ft := range all {
		choices[i] = &FieldTypeChoice{Text: ft.Label(), Value: ft}
	}
	return choices
}
