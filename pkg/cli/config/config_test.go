package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskmodel/pkg/cli/config"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
	"github.com/secmon-lab/riskmodel/pkg/repository/memory"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o600)).Required()
	return path
}

func TestLoadFixture(t *testing.T) {
	t.Run("valid fixture", func(t *testing.T) {
		path := writeFile(t, "fixture.toml", `
[[risk_model]]
name = "Automobile"
button = "Submit"
description = ""
success_msg = "Thanks"

  [[risk_model.field]]
  name = "Model"
  type = "text"
  max_length = 40

  [[risk_model.field]]
  name = "Color"
  type = "select"
  choices = ["red", "blue"]
  required = false

[[risk_model]]
name = "Property"
button = "Send"
activated = false

  [[risk_model.field]]
  name = "Address"
  type = "textarea"
  unique = true
`)
		fixture, err := config.LoadFixture(path)
		gt.NoError(t, err).Required()

		models := fixture.ToRiskModels()
		gt.Array(t, models).Length(2).Required()

		auto := models[0]
		gt.Value(t, auto.Name).Equal("Automobile")
		gt.Bool(t, auto.Activated).True()
		gt.Value(t, auto.Description).Nil()
		gt.Value(t, *auto.SuccessMsg).Equal("Thanks")
		gt.Array(t, auto.Fields).Length(2).Required()
		gt.Value(t, auto.Fields[0].Order).Equal(1)
		gt.Value(t, auto.Fields[1].Order).Equal(2)
		gt.Value(t, *auto.Fields[0].MaxLength).Equal(40)
		gt.Bool(t, auto.Fields[0].Required).True()
		gt.Bool(t, auto.Fields[1].Required).False()
		gt.Value(t, auto.Fields[1].FieldType).Equal(types.FieldTypeSelect)
		gt.Value(t, auto.Fields[1].HelpText).Nil()

		gt.Bool(t, models[1].Activated).False()
		gt.Bool(t, models[1].Fields[0].Unique).True()
	})

	t.Run("invalid field type", func(t *testing.T) {
		path := writeFile(t, "fixture.toml", `
[[risk_model]]
name = "A"
button = "Go"
  [[risk_model.field]]
  name = "X"
  type = "hologram"
`)
		_, err := config.LoadFixture(path)
		gt.Bool(t, errors.Is(err, config.ErrInvalidFixture)).True()
	})

	t.Run("duplicate model name", func(t *testing.T) {
		path := writeFile(t, "fixture.toml", `
[[risk_model]]
name = "A"
[[risk_model]]
name = "A"
`)
		_, err := config.LoadFixture(path)
		gt.Bool(t, errors.Is(err, config.ErrInvalidFixture)).True()
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadFixture(filepath.Join(t.TempDir(), "none.toml"))
		gt.Error(t, err)
	})

	t.Run("broken TOML", func(t *testing.T) {
		_, err := config.LoadFixture(writeFile(t, "fixture.toml", "[[risk_model"))
		gt.Error(t, err)
	})
}

func TestLogger(t *testing.T) {
	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		logger, closer, err := config.NewLoggerForTest("debug", "json", path).New()
		gt.NoError(t, err).Required()

		logger.Info("hello", "user", "alice")
		closer()

		data, err := os.ReadFile(path)
		gt.NoError(t, err).Required()
		gt.String(t, string(data)).Contains(`"msg":"hello"`)
		gt.String(t, string(data)).Contains(`"user":"alice"`)
	})

	t.Run("console", func(t *testing.T) {
		_, closer, err := config.NewLoggerForTest("info", "console", "stderr").New()
		gt.NoError(t, err).Required()
		closer()
	})

	t.Run("invalid level", func(t *testing.T) {
		_, _, err := config.NewLoggerForTest("verbose", "json", "-").New()
		gt.Bool(t, errors.Is(err, config.ErrInvalidConfig)).True()
	})

	t.Run("invalid format", func(t *testing.T) {
		_, _, err := config.NewLoggerForTest("info", "xml", "-").New()
		gt.Bool(t, errors.Is(err, config.ErrInvalidConfig)).True()
	})
}

func TestRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		repo, err := config.NewRepositoryForTest(config.BackendMemory, "", "").Configure(ctx)
		gt.NoError(t, err).Required()
		_, ok := repo.(*memory.Memory)
		gt.Bool(t, ok).True()
	})

	t.Run("firestore needs project", func(t *testing.T) {
		_, err := config.NewRepositoryForTest(config.BackendFirestore, "", "").Configure(ctx)
		gt.Bool(t, errors.Is(err, config.ErrInvalidConfig)).True()
	})

	t.Run("postgres needs URL", func(t *testing.T) {
		_, err := config.NewRepositoryForTest(config.BackendPostgres, "", "").Configure(ctx)
		gt.Bool(t, errors.Is(err, config.ErrInvalidConfig)).True()
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := config.NewRepositoryForTest("mysql", "", "").Configure(ctx)
		gt.Bool(t, errors.Is(err, config.ErrInvalidConfig)).True()
	})
}

func TestStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("fs", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "media")
		fs, err := config.NewStorageForTest(config.StorageFS, dir, "/files").Configure(ctx)
		gt.NoError(t, err).Required()
		defer fs.Close()

		gt.Value(t, fs.Media).NotNil().Required()
		gt.Value(t, fs.Media.Prefix()).Equal("/files/")

		url, err := fs.Storage.Save(ctx, "a.txt", strings.NewReader("x"), "text/plain")
		gt.NoError(t, err).Required()
		gt.String(t, url).HasPrefix("/files/")
	})

	t.Run("none", func(t *testing.T) {
		fs, err := config.NewStorageForTest(config.StorageNone, "", "").Configure(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, fs.Storage).Nil()
		gt.Value(t, fs.Media).Nil()
	})

	t.Run("gcs needs bucket", func(t *testing.T) {
		_, err := config.NewStorageForTest(config.StorageGCS, "", "").Configure(ctx)
		gt.Bool(t, errors.Is(err, config.ErrInvalidConfig)).True()
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := config.NewStorageForTest("ftp", "", "").Configure(ctx)
		gt.Bool(t, errors.Is(err, config.ErrInvalidConfig)).True()
	})
}

func TestSentry_Disabled(t *testing.T) {
	flush, err := config.NewSentryForTest("").Configure()
	gt.NoError(t, err).Required()
	flush()
}

func TestAPI(t *testing.T) {
	c, err := config.NewAPIForTest("http://localhost:8000/", time.Second).Configure()
	gt.NoError(t, err).Required()
	gt.Value(t, c.BaseURL()).Equal("http://localhost:8000")

	_, err = config.NewAPIForTest("localhost", time.Second).Configure()
	gt.Error(t, err)
}

func TestWebApp(t *testing.T) {
	app, err := config.NewWebAppForTest("http://localhost:8000").Configure()
	gt.NoError(t, err).Required()
	gt.Value(t, app.Config().MountID).Equal("app")
}
