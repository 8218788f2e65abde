package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
	"google.golang.org/api/iterator"
)

const fieldValueCounter = "field_value_counter"

type fieldValueDocument struct {
	ID           int64     `firestore:"id"`
	FormSubmitID int64     `firestore:"form_submit_id"`
	FieldID      int64     `firestore:"field_id"`
	Value        *string   `firestore:"value"`
	CreatedAt    time.Time `firestore:"created_at"`
	UpdatedAt    time.Time `firestore:"updated_at"`
}

func (d *fieldValueDocument) toModel() *model.FieldValue {
	return &model.FieldValue{
		ID:         types.FieldValueID(d.ID),
		FormSubmit: types.FormSubmitID(d.FormSubmitID),
		Field:      types.FieldID(d.FieldID),
		Value:      d.Value,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

type fieldValueRepository struct {
	client     *firestore.Client
	collection *collections
}

func (r *fieldValueRepository) values() *firestore.CollectionRef {
	return r.client.Collection(r.collection.name(CollectionFieldValues))
}

func (r *fieldValueRepository) CreateMany(ctx context.Context, values []*model.FieldValue) ([]*model.FieldValue, error) {
	if len(values) == 0 {
		return []*model.FieldValue{}, nil
	}

	first, err := allocateIDs(ctx, r.client, r.collection, fieldValueCounter, int64(len(values)))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, len(values))
	created := make([]*model.FieldValue, len(values))
	for i, fv := range values {
		doc := &fieldValueDocument{
			ID:           first + int64(i),
			FormSubmitID: int64(fv.FormSubmit),
			FieldID:      int64(fv.Field),
			Value:        fv.Value,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		job, err := bw.Create(r.values().Doc(docID(doc.ID)), doc)
		if err != nil {
			bw.End()
			return nil, goerr.Wrap(err, "failed to enqueue field value", goerr.V("id", doc.ID))
		}
		jobs[i] = job
		created[i] = doc.toModel()
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return nil, goerr.Wrap(err, "failed to create field value", goerr.V("id", created[i].ID))
		}
	}

	return created, nil
}

func (r *fieldValueRepository) ListByFormSubmit(ctx context.Context, id types.FormSubmitID) ([]*model.FieldValue, error) {
	iter := r.values().
		Where("form_submit_id", "==", int64(id)).
		OrderBy("id", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	values := []*model.FieldValue{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate field values", goerr.V("form_submit_id", id))
		}

		var fvDoc fieldValueDocument
		if err := doc.DataTo(&fvDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal field value", goerr.V("doc_id", doc.Ref.ID))
		}
		values = append(values, fvDoc.toModel())
	}

	return values, nil
}

func (r *fieldValueRepository) ExistsInSuccessfulSubmit(ctx context.Context, field types.FieldID, value string) (bool, error) {
	iter := r.values().
		Where("field_id", "==", int64(field)).
		Where("value", "==", value).
		Documents(ctx)
	defer iter.Stop()

	submits := r.client.Collection(r.collection.name(CollectionFormSubmits))
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			return false, nil
		}
		if err != nil {
			return false, goerr.Wrap(err, "failed to iterate field values", goerr.V("field_id", field))
		}

		var fvDoc fieldValueDocument
		if err := doc.DataTo(&fvDoc); err != nil {
			return false, goerr.Wrap(err, "failed to unmarshal field value", goerr.V("doc_id", doc.Ref.ID))
		}

		submitDoc, err := submits.Doc(docID(fvDoc.FormSubmitID)).Get(ctx)
		if err != nil {
			return false, goerr.Wrap(err, "failed to get form submit", goerr.V("form_submit_id", fvDoc.FormSubmitID))
		}
		success, err := submitDoc.DataAt("success")
		if err != nil {
			return false, goerr.Wrap(err, "failed to read success flag", goerr.V("form_submit_id", fvDoc.FormSubmitID))
		}
		if ok, _ := success.(bool); ok {
			return true, nil
		}
	}
}

func (r *fieldValueRepository) DeleteAll(ctx context.Context) error {
	if err := deleteCollection(ctx, r.client, r.collection.name(CollectionFieldValues)); err != nil {
		return err
	}
	return deleteCounter(ctx, r.client, r.collection, fieldValueCounter)
}
