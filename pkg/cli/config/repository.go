package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmodel/pkg/repository/firestore"
	"github.com/secmon-lab/riskmodel/pkg/repository/memory"
	"github.com/secmon-lab/riskmodel/pkg/repository/postgres"
	"github.com/secmon-lab/riskmodel/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository backend names
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend          string
	projectID        string
	databaseID       string
	collectionPrefix string
	databaseURL      string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (memory, firestore or postgres)",
			Category:    "Repository",
			Value:       BackendMemory,
			Sources:     cli.EnvVars("RISKMODEL_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
	}
	flags = append(flags, r.FirestoreFlags()...)
	return append(flags, &cli.StringFlag{
		Name:        "database-url",
		Usage:       "PostgreSQL connection URL (required when using postgres backend)",
		Category:    "Repository",
		Sources:     cli.EnvVars("RISKMODEL_DATABASE_URL"),
		Destination: &r.databaseURL,
	})
}

// FirestoreFlags returns only the Firestore flags, for commands that always
// talk to Firestore
func (r *Repository) FirestoreFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("RISKMODEL_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Repository",
			Sources:     cli.EnvVars("RISKMODEL_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Usage:       "Prefix of Firestore collection names",
			Category:    "Repository",
			Sources:     cli.EnvVars("RISKMODEL_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &r.collectionPrefix,
		},
	}
}

func (r Repository) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", r.backend),
		slog.String("firestore-project-id", r.projectID),
		slog.String("firestore-database-id", r.databaseID),
		slog.Int("database-url.len", len(r.databaseURL)),
	)
}

// ProjectID returns the Firestore project ID
func (r *Repository) ProjectID() string {
	return r.projectID
}

// DatabaseID returns the Firestore database ID
func (r *Repository) DatabaseID() string {
	return r.databaseID
}

// CollectionPrefix returns the prefix of Firestore collection names
func (r *Repository) CollectionPrefix() string {
	return r.collectionPrefix
}

// Configure initializes and returns a repository based on the configured backend.
// The caller is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case BackendFirestore:
		if r.projectID == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "firestore-project-id is required when using firestore backend")
		}
		var opts []firestore.Option
		if r.collectionPrefix != "" {
			opts = append(opts, firestore.WithCollectionPrefix(r.collectionPrefix))
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return repo, nil

	case BackendPostgres:
		if r.databaseURL == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "database-url is required when using postgres backend")
		}
		repo, err := postgres.New(ctx, r.databaseURL)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize postgres repository")
		}
		logging.Default().Info("Using PostgreSQL repository")
		return repo, nil

	case BackendMemory:
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid repository backend", goerr.V(BackendKey, r.backend))
	}
}
