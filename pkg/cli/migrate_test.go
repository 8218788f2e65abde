package cli_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskmodel/pkg/cli"
	"github.com/secmon-lab/riskmodel/pkg/cli/config"
)

func TestIndexConfig(t *testing.T) {
	cfg := cli.IndexConfig("dev")
	gt.NoError(t, cfg.Validate())
	gt.Array(t, cfg.Collections).Length(2).Required()
	gt.Value(t, cfg.Collections[0].Name).Equal("dev_form_submits")
	gt.Value(t, cfg.Collections[1].Name).Equal("dev_field_values")

	for _, col := range cfg.Collections {
		for _, idx := range col.Indexes {
			// single field indexes are created by Firestore itself
			gt.Number(t, len(idx.Fields)).GreaterOrEqual(2)
		}
	}

	last := cfg.Collections[0].Indexes[0].Fields[1]
	gt.Value(t, last.Path).Equal("id")
	gt.Value(t, last.Order).Equal(fireconf.OrderDescending)

	gt.Value(t, cli.IndexConfig("").Collections[0].Name).Equal("form_submits")
}

func TestMigrateRequiresProject(t *testing.T) {
	t.Setenv("RISKMODEL_FIRESTORE_PROJECT_ID", "")
	_, err := runCLI(t, "migrate", "--dry-run")
	gt.Error(t, err)
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
