package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
)

type riskModelRepository struct {
	mu          sync.RWMutex
	models      map[types.RiskModelID]*model.RiskModel
	nextID      types.RiskModelID
	nextFieldID types.FieldID
}

func newRiskModelRepository() *riskModelRepository {
	return &riskModelRepository{
		models:      make(map[types.RiskModelID]*model.RiskModel),
		nextID:      1,
		nextFieldID: 1,
	}
}

// assignFields gives new fields an ID and keeps creation time of existing ones.
// Caller must hold the lock.
func (r *riskModelRepository) assignFields(fields []*model.Field, existing *model.RiskModel, now time.Time) {
	for _, f := range fields {
		if f.ID == 0 {
			f.ID = r.nextFieldID
			r.nextFieldID++
			f.CreatedAt = now
		} else if existing != nil {
			if prev := existing.FieldByID(f.ID); prev != nil {
				f.CreatedAt = prev.CreatedAt
			}
		}
		f.UpdatedAt = now
	}
}

func (r *riskModelRepository) Create(ctx context.Context, rm *model.RiskModel) (*model.RiskModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := rm.Copy()
	created.ID = r.nextID
	created.CreatedAt = now
	created.UpdatedAt = now
	for _, f := range created.Fields {
		f.ID = 0
	}
	r.assignFields(created.Fields, nil, now)
	r.nextID++

	r.models[created.ID] = created
	return created.Copy(), nil
}

func (r *riskModelRepository) Get(ctx context.Context, id types.RiskModelID) (*model.RiskModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, exists := r.models[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "risk model not found", goerr.V("id", id))
	}

	// Return a copy to prevent external modification
	return rm.Copy(), nil
}

func (r *riskModelRepository) List(ctx context.Context) ([]*model.RiskModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]*model.RiskModel, 0, len(r.models))
	for _, rm := range r.models {
		models = append(models, rm.Copy())
	}
	sort.Slice(models, func(i, j int) bool {
		return models[i].ID > models[j].ID
	})

	return models, nil
}

func (r *riskModelRepository) Update(ctx context.Context, rm *model.RiskModel) (*model.RiskModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.models[rm.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "risk model not found", goerr.V("id", rm.ID))
	}

	now := time.Now().UTC()
	updated := rm.Copy()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = now
	r.assignFields(updated.Fields, existing, now)

	r.models[updated.ID] = updated
	return updated.Copy(), nil
}

func (r *riskModelRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.models = make(map[types.RiskModelID]*model.RiskModel)
	r.nextID = 1
	r.nextFieldID = 1
	return nil
}
