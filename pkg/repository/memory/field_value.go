package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
)

type fieldValueRepository struct {
	mu      sync.RWMutex
	values  map[types.FieldValueID]*model.FieldValue
	nextID  types.FieldValueID
	submits *formSubmitRepository
}

func newFieldValueRepository(submits *formSubmitRepository) *fieldValueRepository {
	return &fieldValueRepository{
		values:  make(map[types.FieldValueID]*model.FieldValue),
		nextID:  1,
		submits: submits,
	}
}

func copyFieldValue(fv *model.FieldValue) *model.FieldValue {
	copied := *fv
	if fv.Value != nil {
		v := *fv.Value
		copied.Value = &v
	}
	return &copied
}

func (r *fieldValueRepository) CreateMany(ctx context.Context, values []*model.FieldValue) ([]*model.FieldValue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := make([]*model.FieldValue, len(values))
	for i, fv := range values {
		stored := copyFieldValue(fv)
		stored.ID = r.nextID
		stored.CreatedAt = now
		stored.UpdatedAt = now
		r.nextID++

		r.values[stored.ID] = stored
		created[i] = copyFieldValue(stored)
	}

	return created, nil
}

func (r *fieldValueRepository) ListByFormSubmit(ctx context.Context, id types.FormSubmitID) ([]*model.FieldValue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	values := []*model.FieldValue{}
	for _, fv := range r.values {
		if fv.FormSubmit == id {
			values = append(values, copyFieldValue(fv))
		}
	}
	sort.Slice(values, func(i, j int) bool {
		return values[i].ID < values[j].ID
	})

	return values, nil
}

func (r *fieldValueRepository) ExistsInSuccessfulSubmit(ctx context.Context, field types.FieldID, value string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, fv := range r.values {
		if fv.Field != field || fv.Value == nil || *fv.Value != value {
			continue
		}
		if r.submits.isSuccessful(fv.FormSubmit) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fieldValueRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values = make(map[types.FieldValueID]*model.FieldValue)
	r.nextID = 1
	return nil
}
