// Package postgres implements interfaces.Repository backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/utils/safe"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned (wrapped) when a row does not exist
var ErrNotFound = model.ErrNotFound

type Postgres struct {
	db         *sql.DB
	riskModel  *riskModelRepository
	formSubmit *formSubmitRepository
	fieldValue *fieldValueRepository
}

var _ interfaces.Repository = &Postgres{}

// executor is satisfied by both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scannable is satisfied by both *sql.Row and *sql.Rows
type scannable interface {
	Scan(dest ...any) error
}

// New opens the database at databaseURL, configures the connection pool and
// applies pending migrations.
func New(ctx context.Context, databaseURL string) (*Postgres, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		safe.Close(ctx, db)
		return nil, goerr.Wrap(err, "failed to ping database")
	}

	if err := runMigrations(db); err != nil {
		safe.Close(ctx, db)
		return nil, err
	}

	return newWithDB(db), nil
}

func newWithDB(db *sql.DB) *Postgres {
	return &Postgres{
		db:         db,
		riskModel:  &riskModelRepository{db: db},
		formSubmit: &formSubmitRepository{db: db},
		fieldValue: &fieldValueRepository{db: db},
	}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return goerr.Wrap(err, "failed to create migration source")
	}

	dbDriver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return goerr.Wrap(err, "failed to create migration db driver")
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return goerr.Wrap(err, "failed to create migrator")
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return goerr.Wrap(err, "failed to apply migrations")
	}

	return nil
}

func (p *Postgres) RiskModel() interfaces.RiskModelRepository {
	return p.riskModel
}

func (p *Postgres) FormSubmit() interfaces.FormSubmitRepository {
	return p.formSubmit
}

func (p *Postgres) FieldValue() interfaces.FieldValueRepository {
	return p.fieldValue
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

// withTx runs fn in a transaction, committing on success
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return goerr.Wrap(err, "transaction failed and rollback failed", goerr.V("rollback_error", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit transaction")
	}
	return nil
}
