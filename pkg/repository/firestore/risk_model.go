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

const (
	riskModelCounter = "risk_model_counter"
	fieldCounter     = "field_counter"
)

type riskModelDocument struct {
	ID          int64            `firestore:"id"`
	Name        string           `firestore:"name"`
	Button      string           `firestore:"button"`
	Description *string          `firestore:"description"`
	SuccessMsg  *string          `firestore:"success_msg"`
	Activated   bool             `firestore:"activated"`
	Fields      []*fieldDocument `firestore:"fields"`
	CreatedAt   time.Time        `firestore:"created_at"`
	UpdatedAt   time.Time        `firestore:"updated_at"`
}

type fieldDocument struct {
	ID           int64     `firestore:"id"`
	Name         string    `firestore:"name"`
	Slug         string    `firestore:"slug"`
	FieldType    string    `firestore:"field_type"`
	Default      *string   `firestore:"default"`
	RegexPattern *string   `firestore:"regex_pattern"`
	MinLength    *int64    `firestore:"min_length"`
	MaxLength    *int64    `firestore:"max_length"`
	Choices      []string  `firestore:"choices"`
	Required     bool      `firestore:"required"`
	HelpText     *string   `firestore:"help_text"`
	Order        int64     `firestore:"order"`
	Unique       bool      `firestore:"unique"`
	Deleted      bool      `firestore:"deleted"`
	CreatedAt    time.Time `firestore:"created_at"`
	UpdatedAt    time.Time `firestore:"updated_at"`
}

func toInt64Ptr(v *int) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}

func toIntPtr(v *int64) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

func toRiskModelDocument(rm *model.RiskModel) *riskModelDocument {
	doc := &riskModelDocument{
		ID:          int64(rm.ID),
		Name:        rm.Name,
		Button:      rm.Button,
		Description: rm.Description,
		SuccessMsg:  rm.SuccessMsg,
		Activated:   rm.Activated,
		Fields:      make([]*fieldDocument, len(rm.Fields)),
		CreatedAt:   rm.CreatedAt,
		UpdatedAt:   rm.UpdatedAt,
	}
	for i, f := range rm.Fields {
		doc.Fields[i] = &fieldDocument{
			ID:           int64(f.ID),
			Name:         f.Name,
			Slug:         f.Slug,
			FieldType:    string(f.FieldType),
			Default:      f.Default,
			RegexPattern: f.RegexPattern,
			MinLength:    toInt64Ptr(f.MinLength),
			MaxLength:    toInt64Ptr(f.MaxLength),
			Choices:      f.Choices,
			Required:     f.Required,
			HelpText:     f.HelpText,
			Order:        int64(f.Order),
			Unique:       f.Unique,
			Deleted:      f.Deleted,
			CreatedAt:    f.CreatedAt,
			UpdatedAt:    f.UpdatedAt,
		}
	}
	return doc
}

func (d *riskModelDocument) toModel() *model.RiskModel {
	rm := &model.RiskModel{
		ID:          types.RiskModelID(d.ID),
		Name:        d.Name,
		Button:      d.Button,
		Description: d.Description,
		SuccessMsg:  d.SuccessMsg,
		Activated:   d.Activated,
		Fields:      make([]*model.Field, len(d.Fields)),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for i, f := range d.Fields {
		rm.Fields[i] = &model.Field{
			ID:           types.FieldID(f.ID),
			Name:         f.Name,
			Slug:         f.Slug,
			FieldType:    types.FieldType(f.FieldType),
			Default:      f.Default,
			RegexPattern: f.RegexPattern,
			MinLength:    toIntPtr(f.MinLength),
			MaxLength:    toIntPtr(f.MaxLength),
			Choices:      f.Choices,
			Required:     f.Required,
			HelpText:     f.HelpText,
			Order:        int(f.Order),
			Unique:       f.Unique,
			Deleted:      f.Deleted,
			CreatedAt:    f.CreatedAt,
			UpdatedAt:    f.UpdatedAt,
		}
	}
	return rm
}

type riskModelRepository struct {
	client     *firestore.Client
	collection *collections
}

func (r *riskModelRepository) docRef(id types.RiskModelID) *firestore.DocumentRef {
	return r.client.Collection(r.collection.name(CollectionRiskModels)).Doc(docID(int64(id)))
}

// assignFieldIDs allocates IDs for fields that have none
func (r *riskModelRepository) assignFieldIDs(ctx context.Context, fields []*model.Field, existing *model.RiskModel, now time.Time) error {
	var count int64
	for _, f := range fields {
		if f.ID == 0 {
			count++
		}
	}

	var next int64
	if count > 0 {
		first, err := allocateIDs(ctx, r.client, r.collection, fieldCounter, count)
		if err != nil {
			return err
		}
		next = first
	}

	for _, f := range fields {
		if f.ID == 0 {
			f.ID = types.FieldID(next)
			next++
			f.CreatedAt = now
		} else if existing != nil {
			if prev := existing.FieldByID(f.ID); prev != nil {
				f.CreatedAt = prev.CreatedAt
			}
		}
		f.UpdatedAt = now
	}
	return nil
}

func (r *riskModelRepository) Create(ctx context.Context, rm *model.RiskModel) (*model.RiskModel, error) {
	id, err := allocateIDs(ctx, r.client, r.collection, riskModelCounter, 1)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created := rm.Copy()
	created.ID = types.RiskModelID(id)
	created.CreatedAt = now
	created.UpdatedAt = now
	for _, f := range created.Fields {
		f.ID = 0
	}
	if err := r.assignFieldIDs(ctx, created.Fields, nil, now); err != nil {
		return nil, err
	}

	if _, err := r.docRef(created.ID).Set(ctx, toRiskModelDocument(created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create risk model")
	}

	return created, nil
}

func (r *riskModelRepository) Get(ctx context.Context, id types.RiskModelID) (*model.RiskModel, error) {
	doc, err := r.docRef(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "risk model not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get risk model", goerr.V("id", id))
	}

	var rmDoc riskModelDocument
	if err := doc.DataTo(&rmDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal risk model", goerr.V("id", id))
	}

	return rmDoc.toModel(), nil
}

func (r *riskModelRepository) List(ctx context.Context) ([]*model.RiskModel, error) {
	iter := r.client.Collection(r.collection.name(CollectionRiskModels)).
		OrderBy("id", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	models := []*model.RiskModel{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate risk models")
		}

		var rmDoc riskModelDocument
		if err := doc.DataTo(&rmDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal risk model", goerr.V("doc_id", doc.Ref.ID))
		}
		models = append(models, rmDoc.toModel())
	}

	return models, nil
}

func (r *riskModelRepository) Update(ctx context.Context, rm *model.RiskModel) (*model.RiskModel, error) {
	existing, err := r.Get(ctx, rm.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated := rm.Copy()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = now
	if err := r.assignFieldIDs(ctx, updated.Fields, existing, now); err != nil {
		return nil, err
	}

	if _, err := r.docRef(updated.ID).Set(ctx, toRiskModelDocument(updated)); err != nil {
		return nil, goerr.Wrap(err, "failed to update risk model", goerr.V("id", rm.ID))
	}

	return updated, nil
}

func (r *riskModelRepository) DeleteAll(ctx context.Context) error {
	if err := deleteCollection(ctx, r.client, r.collection.name(CollectionRiskModels)); err != nil {
		return err
	}
	if err := deleteCounter(ctx, r.client, r.collection, riskModelCounter); err != nil {
		return err
	}
	return deleteCounter(ctx, r.client, r.collection, fieldCounter)
}
