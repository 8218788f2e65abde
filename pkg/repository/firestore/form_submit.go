package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const formSubmitCounter = "form_submit_counter"

type formSubmitDocument struct {
	ID          int64     `firestore:"id"`
	RiskModelID int64     `firestore:"risk_model_id"`
	Success     bool      `firestore:"success"`
	CreatedAt   time.Time `firestore:"created_at"`
}

func (d *formSubmitDocument) toModel() *model.FormSubmit {
	return &model.FormSubmit{
		ID:        types.FormSubmitID(d.ID),
		RiskModel: types.RiskModelID(d.RiskModelID),
		Success:   d.Success,
		CreatedAt: d.CreatedAt,
	}
}

type formSubmitRepository struct {
	client     *firestore.Client
	collection *collections
}

func (r *formSubmitRepository) docRef(id types.FormSubmitID) *firestore.DocumentRef {
	return r.client.Collection(r.collection.name(CollectionFormSubmits)).Doc(docID(int64(id)))
}

func (r *formSubmitRepository) Create(ctx context.Context, fs *model.FormSubmit) (*model.FormSubmit, error) {
	id, err := allocateIDs(ctx, r.client, r.collection, formSubmitCounter, 1)
	if err != nil {
		return nil, err
	}

	doc := &formSubmitDocument{
		ID:          id,
		RiskModelID: int64(fs.RiskModel),
		Success:     fs.Success,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := r.docRef(types.FormSubmitID(id)).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create form submit")
	}

	return doc.toModel(), nil
}

func (r *formSubmitRepository) Get(ctx context.Context, id types.FormSubmitID) (*model.FormSubmit, error) {
	doc, err := r.docRef(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "form submit not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get form submit", goerr.V("id", id))
	}

	var fsDoc formSubmitDocument
	if err := doc.DataTo(&fsDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal form submit", goerr.V("id", id))
	}
	return fsDoc.toModel(), nil
}

func (r *formSubmitRepository) Update(ctx context.Context, fs *model.FormSubmit) (*model.FormSubmit, error) {
	_, err := r.docRef(fs.ID).Update(ctx, []firestore.Update{
		{Path: "success", Value: fs.Success},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "form submit not found", goerr.V("id", fs.ID))
		}
		return nil, goerr.Wrap(err, "failed to update form submit", goerr.V("id", fs.ID))
	}

	return r.Get(ctx, fs.ID)
}

func (r *formSubmitRepository) List(ctx context.Context, filter model.FormSubmitFilter) ([]*model.FormSubmit, error) {
	q := r.client.Collection(r.collection.name(CollectionFormSubmits)).Query
	if filter.SuccessOnly {
		q = q.Where("success", "==", true)
	}
	if filter.RiskModel != nil {
		q = q.Where("risk_model_id", "==", int64(*filter.RiskModel))
	}

	iter := q.OrderBy("id", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	submits := []*model.FormSubmit{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate form submits")
		}

		var fsDoc formSubmitDocument
		if err := doc.DataTo(&fsDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal form submit", goerr.V("doc_id", doc.Ref.ID))
		}
		submits = append(submits, fsDoc.toModel())
	}

	return submits, nil
}

func (r *formSubmitRepository) DeleteAll(ctx context.Context) error {
	if err := deleteCollection(ctx, r.client, r.collection.name(CollectionFormSubmits)); err != nil {
		return err
	}
	return deleteCounter(ctx, r.client, r.collection, formSubmitCounter)
}
