package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/domain/interfaces"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
)

type RiskDataLogUseCase struct {
	repo interfaces.Repository
}

func NewRiskDataLogUseCase(repo interfaces.Repository) *RiskDataLogUseCase {
	return &RiskDataLogUseCase{
		repo: repo,
	}
}

// ListRiskDataLog returns successful submissions, newest first. A nil
// riskModel lists submissions of every risk model.
func (uc *RiskDataLogUseCase) ListRiskDataLog(ctx context.Context, riskModel *types.RiskModelID) ([]*model.RiskDataLogEntry, error) {
	entries, err := uc.repo.FormSubmit().List(ctx, model.FormSubmitFilter{
		RiskModel:   riskModel,
		SuccessOnly: true,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list form submits")
	}
	return entries, nil
}
