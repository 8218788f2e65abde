package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
)

func TestFieldType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		fieldType types.FieldType
		want      bool
	}{
		{name: "valid text", fieldType: types.FieldTypeText, want: true},
		{name: "valid multiselect", fieldType: types.FieldTypeMultiSelect, want: true},
		{name: "valid regex", fieldType: types.FieldTypeRegex, want: true},
		{name: "valid file", fieldType: types.FieldTypeFile, want: true},
		{name: "hidden is not supported", fieldType: types.FieldType("hidden"), want: false},
		{name: "dashed multi-select is not supported", fieldType: types.FieldType("multi-select"), want: false},
		{name: "empty", fieldType: types.FieldType(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tt.fieldType.IsValid()).Equal(tt.want)
		})
	}
}

func TestAllFieldTypes(t *testing.T) {
	all := types.AllFieldTypes()
	gt.Array(t, all).Length(17)

	seen := make(map[types.FieldType]bool)
	for _, ft := range all {
		gt.Bool(t, ft.IsValid()).True()
		gt.String(t, ft.Label()).NotEqual("")
		gt.Bool(t, seen[ft]).False()
		seen[ft] = true
	}

	gt.Value(t, all[0]).Equal(types.FieldTypeArray)
	gt.Value(t, all[16]).Equal(types.FieldTypeURL)
	gt.Value(t, types.FieldTypeMultiSelect.Label()).Equal("MULTI SELECT/GROUP CHECKBOX")
}

func TestParseRiskModelID(t *testing.T) {
	id, err := types.ParseRiskModelID("42")
	gt.NoError(t, err)
	gt.Value(t, id).Equal(types.RiskModelID(42))
	gt.Value(t, id.String()).Equal("42")

	for _, s := range []string{"", "abc", "0", "-1", "1.5"} {
		_, err := types.ParseRiskModelID(s)
		gt.Error(t, err).Is(types.ErrInvalidID)
	}
}
