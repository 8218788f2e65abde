package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/secmon-lab/riskmodel/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmodel/pkg/repository/firestore"
	"github.com/secmon-lab/riskmodel/pkg/repository/memory"
	"github.com/secmon-lab/riskmodel/pkg/repository/postgres"
)

func isNotFound(err error) bool {
	return errors.Is(err, memory.ErrNotFound) ||
		errors.Is(err, firestore.ErrNotFound) ||
		errors.Is(err, postgres.ErrNotFound)
}

func newMemoryRepository(t *testing.T) interfaces.Repository {
	return memory.New()
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	if err != nil {
		t.Fatalf("failed to create firestore repository: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close firestore repository: %v", err)
		}
	})
	return repo
}

// newPostgresRepository truncates every table so each subtest starts from ID 1
func newPostgresRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	databaseURL := os.Getenv("TEST_POSTGRES_URL")
	if databaseURL == "" {
		t.Skip("TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	repo, err := postgres.New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("failed to create postgres repository: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close postgres repository: %v", err)
		}
	})

	if err := repo.FieldValue().DeleteAll(ctx); err != nil {
		t.Fatalf("failed to truncate field values: %v", err)
	}
	if err := repo.FormSubmit().DeleteAll(ctx); err != nil {
		t.Fatalf("failed to truncate form submits: %v", err)
	}
	if err := repo.RiskModel().DeleteAll(ctx); err != nil {
		t.Fatalf("failed to truncate risk models: %v", err)
	}
	return repo
}

var repositoryFactories = map[string]func(t *testing.T) interfaces.Repository{
	"Memory":    newMemoryRepository,
	"Firestore": newFirestoreRepository,
	"Postgres":  newPostgresRepository,
}
