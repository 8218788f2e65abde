package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrNotFound is returned (wrapped) when a document does not exist
var ErrNotFound = model.ErrNotFound

type Firestore struct {
	client     *firestore.Client
	collection *collections
	riskModel  *riskModelRepository
	formSubmit *formSubmitRepository
	fieldValue *fieldValueRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix namespaces every collection, mainly for tests sharing a database
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.collection.prefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	cols := &collections{}
	f := &Firestore{
		client:     client,
		collection: cols,
		riskModel:  &riskModelRepository{client: client, collection: cols},
		formSubmit: &formSubmitRepository{client: client, collection: cols},
		fieldValue: &fieldValueRepository{client: client, collection: cols},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) RiskModel() interfaces.RiskModelRepository {
	return f.riskModel
}

func (f *Firestore) FormSubmit() interfaces.FormSubmitRepository {
	return f.formSubmit
}

func (f *Firestore) FieldValue() interfaces.FieldValueRepository {
	return f.fieldValue
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// Collection names without prefix
const (
	CollectionRiskModels  = "risk_models"
	CollectionFormSubmits = "form_submits"
	CollectionFieldValues = "field_values"
	CollectionCounters    = "counters"
)

type collections struct {
	prefix string
}

func (c *collections) name(base string) string {
	return CollectionName(c.prefix, base)
}

// CollectionName returns the name of collection base under prefix
func CollectionName(prefix, base string) string {
	if prefix != "" {
		return prefix + "_" + base
	}
	return base
}

func docID(id int64) string {
	return fmt.Sprintf("%d", id)
}

// allocateIDs reserves n consecutive IDs from the named counter and returns the first one
func allocateIDs(ctx context.Context, client *firestore.Client, cols *collections, counter string, n int64) (int64, error) {
	counterRef := client.Collection(cols.name(CollectionCounters)).Doc(counter)

	var first int64
	err := client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				first = 1
				return tx.Set(counterRef, map[string]interface{}{
					"value": n,
				})
			}
			return goerr.Wrap(err, "failed to get counter", goerr.V("counter", counter))
		}

		currentValue, err := doc.DataAt("value")
		if err != nil {
			return goerr.Wrap(err, "failed to get counter value", goerr.V("counter", counter))
		}

		current, ok := currentValue.(int64)
		if !ok {
			return goerr.New("counter value is not an integer", goerr.V("counter", counter), goerr.V("value", currentValue))
		}
		first = current + 1
		return tx.Update(counterRef, []firestore.Update{
			{Path: "value", Value: current + n},
		})
	})

	if err != nil {
		return 0, goerr.Wrap(err, "failed to allocate IDs", goerr.V("counter", counter))
	}

	return first, nil
}

// deleteCollection removes every document of a collection
func deleteCollection(ctx context.Context, client *firestore.Client, name string) error {
	bw := client.BulkWriter(ctx)
	iter := client.Collection(name).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to iterate documents", goerr.V("collection", name))
		}
		if _, err := bw.Delete(doc.Ref); err != nil {
			bw.End()
			return goerr.Wrap(err, "failed to enqueue delete", goerr.V("collection", name), goerr.V("id", doc.Ref.ID))
		}
	}

	bw.End()
	return nil
}

func deleteCounter(ctx context.Context, client *firestore.Client, cols *collections, counter string) error {
	if _, err := client.Collection(cols.name(CollectionCounters)).Doc(counter).Delete(ctx); err != nil && status.Code(err) != codes.NotFound {
		return goerr.Wrap(err, "failed to delete counter", goerr.V("counter", counter))
	}
	return nil
}
