// Package formdata holds the helpers used while editing risk model payloads:
// blank value normalization and field reordering.
package formdata

// Record is a decoded JSON object such as a risk model or one of its fields
type Record = map[string]any

// FieldsKey is the attribute holding the nested field records of a risk model
const FieldsKey = "fields"

// NullBlankFields replaces every empty-string attribute of data with nil. The
// records listed under FieldsKey are processed the same way. data is mutated in
// place and returned.
func NullBlankFields(data Record) Record {
	for key, value := range data {
		if s, ok := value.(string); ok && s == "" {
			data[key] = nil
			continue
		}
		if key != FieldsKey {
			continue
		}

		switch fields := value.(type) {
		case []any:
			for _, field := range fields {
				if rec, ok := field.(Record); ok {
					NullBlankFields(rec)
				}
			}
		case []Record:
			for _, rec := range fields {
				NullBlankFields(rec)
			}
		}
	}
	return data
}
