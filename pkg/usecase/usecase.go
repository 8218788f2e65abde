package usecase

import (
	"github.com/secmon-lab/riskmodel/pkg/domain/interfaces"
)

type UseCases struct {
	repo        interfaces.Repository
	fileStorage interfaces.FileStorage
	RiskModel   *RiskModelUseCase
	RiskData    *RiskDataUseCase
	RiskDataLog *RiskDataLogUseCase
}

type Option func(*UseCases)

// WithFileStorage enables file fields. Without it, submitting a file fails.
func WithFileStorage(storage interfaces.FileStorage) Option {
	return func(uc *UseCases) {
		uc.fileStorage = storage
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.RiskModel = NewRiskModelUseCase(repo)
	uc.RiskData = NewRiskDataUseCase(repo, uc.fileStorage)
	uc.RiskDataLog = NewRiskDataLogUseCase(repo)

	return uc
}
