package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
	"github.com/secmon-lab/riskmodel/pkg/utils/formdata"
)

// Fixture is a TOML file of risk models loaded by the seed command
type Fixture struct {
	RiskModels []FixtureRiskModel `toml:"risk_model"`
}

type FixtureRiskModel struct {
	Name        string         `toml:"name"`
	Button      string         `toml:"button"`
	Description string         `toml:"description"`
	SuccessMsg  string         `toml:"success_msg"`
	Activated   *bool          `toml:"activated"`
	Fields      []FixtureField `toml:"field"`
}

type FixtureField struct {
	Name         string   `toml:"name"`
	FieldType    string   `toml:"type"`
	Default      string   `toml:"default"`
	RegexPattern string   `toml:"regex_pattern"`
	MinLength    *int     `toml:"min_length"`
	MaxLength    *int     `toml:"max_length"`
	Choices      []string `toml:"choices"`
	Required     *bool    `toml:"required"`
	HelpText     string   `toml:"help_text"`
	Unique       bool     `toml:"unique"`
}

// LoadFixture reads and checks a fixture file
func LoadFixture(path string) (*Fixture, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read fixture file", goerr.V(ConfigPathKey, path))
	}

	var fixture Fixture
	if err := toml.Unmarshal(data, &fixture); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML fixture", goerr.V(ConfigPathKey, path))
	}

	if err := fixture.Validate(); err != nil {
		return nil, goerr.Wrap(err, "fixture validation failed", goerr.V(ConfigPathKey, path))
	}
	return &fixture, nil
}

// Validate checks what the API cannot report by model index: names and field types
func (x *Fixture) Validate() error {
	names := make(map[string]bool)
	for i, rm := range x.RiskModels {
		if rm.Name == "" {
			return goerr.Wrap(ErrInvalidFixture, "risk model name is required", goerr.V(ModelIndexKey, i))
		}
		if names[rm.Name] {
			return goerr.Wrap(ErrInvalidFixture, "duplicate risk model name", goerr.V("name", rm.Name))
		}
		names[rm.Name] = true

		for j, f := range rm.Fields {
			if !types.FieldType(f.FieldType).IsValid() {
				return goerr.Wrap(ErrInvalidFixture, "invalid field type",
					goerr.V(ModelIndexKey, i),
					goerr.V("field_index", j),
					goerr.V("type", f.FieldType))
			}
		}
	}
	return nil
}

// ToRiskModels converts the fixture to risk model inputs. Blank strings become
// nil and field orders follow the file.
func (x *Fixture) ToRiskModels() []*model.RiskModel {
	models := make([]*model.RiskModel, len(x.RiskModels))
	for i, rm := range x.RiskModels {
		m := &model.RiskModel{
			Name:        rm.Name,
			Button:      rm.Button,
			Description: &rm.Description,
			SuccessMsg:  &rm.SuccessMsg,
			Activated:   rm.Activated == nil || *rm.Activated,
			Fields:      make([]*model.Field, len(rm.Fields)),
		}
		for j, f := range rm.Fields {
			m.Fields[j] = &model.Field{
				Name:         f.Name,
				FieldType:    types.FieldType(f.FieldType),
				Default:      &f.Default,
				RegexPattern: &f.RegexPattern,
				MinLength:    f.MinLength,
				MaxLength:    f.MaxLength,
				Choices:      f.Choices,
				Required:     f.Required == nil || *f.Required,
				HelpText:     &f.HelpText,
				Unique:       f.Unique,
			}
		}
		formdata.RefreshFieldOrder(m.Fields)
		models[i] = m.NullBlankFields()
	}
	return models
}
