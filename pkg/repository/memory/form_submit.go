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

type formSubmitRepository struct {
	mu      sync.RWMutex
	submits map[types.FormSubmitID]*model.FormSubmit
	nextID  types.FormSubmitID
}

func newFormSubmitRepository() *formSubmitRepository {
	return &formSubmitRepository{
		submits: make(map[types.FormSubmitID]*model.FormSubmit),
		nextID:  1,
	}
}

func (r *formSubmitRepository) Create(ctx context.Context, fs *model.FormSubmit) (*model.FormSubmit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := &model.FormSubmit{
		ID:        r.nextID,
		RiskModel: fs.RiskModel,
		Success:   fs.Success,
		CreatedAt: time.Now().UTC(),
	}
	r.nextID++

	r.submits[created.ID] = created
	copied := *created
	return &copied, nil
}

func (r *formSubmitRepository) Get(ctx context.Context, id types.FormSubmitID) (*model.FormSubmit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fs, exists := r.submits[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "form submit not found", goerr.V("id", id))
	}
	copied := *fs
	return &copied, nil
}

func (r *formSubmitRepository) Update(ctx context.Context, fs *model.FormSubmit) (*model.FormSubmit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.submits[fs.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "form submit not found", goerr.V("id", fs.ID))
	}

	updated := *existing
	updated.Success = fs.Success
	r.submits[fs.ID] = &updated

	copied := updated
	return &copied, nil
}

func (r *formSubmitRepository) List(ctx context.Context, filter model.FormSubmitFilter) ([]*model.FormSubmit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	submits := make([]*model.FormSubmit, 0, len(r.submits))
	for _, fs := range r.submits {
		if filter.SuccessOnly && !fs.Success {
			continue
		}
		if filter.RiskModel != nil && fs.RiskModel != *filter.RiskModel {
			continue
		}
		copied := *fs
		submits = append(submits, &copied)
	}
	sort.Slice(submits, func(i, j int) bool {
		return submits[i].ID > submits[j].ID
	})

	return submits, nil
}

// isSuccessful is used by the field value repository to join on submissions
func (r *formSubmitRepository) isSuccessful(id types.FormSubmitID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fs, exists := r.submits[id]
	return exists && fs.Success
}

func (r *formSubmitRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.submits = make(map[types.FormSubmitID]*model.FormSubmit)
	r.nextID = 1
	return nil
}
