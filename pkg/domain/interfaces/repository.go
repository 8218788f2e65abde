package interfaces

import (
	"context"

	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
)

// Repository defines the interface for data persistence
type Repository interface {
	RiskModel() RiskModelRepository
	FormSubmit() FormSubmitRepository
	FieldValue() FieldValueRepository

	Close() error
}

type RiskModelRepository interface {
	// Create stores a new risk model. IDs of the model and of every field are
	// assigned by the repository.
	Create(ctx context.Context, rm *model.RiskModel) (*model.RiskModel, error)

	// Get retrieves a risk model by ID including its deleted fields
	Get(ctx context.Context, id types.RiskModelID) (*model.RiskModel, error)

	// List retrieves all risk models, newest first
	List(ctx context.Context) ([]*model.RiskModel, error)

	// Update replaces an existing risk model. Fields without an ID get a new one.
	Update(ctx context.Context, rm *model.RiskModel) (*model.RiskModel, error)

	// DeleteAll removes every risk model and resets ID assignment
	DeleteAll(ctx context.Context) error
}

type FormSubmitRepository interface {
	// Create stores a new submission event with an auto-generated ID
	Create(ctx context.Context, fs *model.FormSubmit) (*model.FormSubmit, error)

	// Get retrieves a submission event by ID
	Get(ctx context.Context, id types.FormSubmitID) (*model.FormSubmit, error)

	// Update replaces the success flag of an existing submission event
	Update(ctx context.Context, fs *model.FormSubmit) (*model.FormSubmit, error)

	// List retrieves submission events matching filter, newest first
	List(ctx context.Context, filter model.FormSubmitFilter) ([]*model.FormSubmit, error)

	DeleteAll(ctx context.Context) error
}

type FieldValueRepository interface {
	// CreateMany stores values in bulk, assigning their IDs in slice order
	CreateMany(ctx context.Context, values []*model.FieldValue) ([]*model.FieldValue, error)

	// ListByFormSubmit retrieves the values of one submission ordered by ID
	ListByFormSubmit(ctx context.Context, id types.FormSubmitID) ([]*model.FieldValue, error)

	// ExistsInSuccessfulSubmit reports whether value was already stored for field
	// by a successful submission
	ExistsInSuccessfulSubmit(ctx context.Context, field types.FieldID, value string) (bool, error)

	DeleteAll(ctx context.Context) error
}
