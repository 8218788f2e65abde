package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
)

// RiskDataService binds the /risk_data resource
type RiskDataService struct {
	client *Client
}

// Get returns the stored values of form submit id
func (s *RiskDataService) Get(ctx context.Context, id types.FormSubmitID) ([]*model.FieldValueView, error) {
	var views []*model.FieldValueView
	if err := s.client.do(ctx, http.MethodGet, fmt.Sprintf("/risk_data/%d/", id), nil, &views); err != nil {
		return nil, err
	}
	return views, nil
}

func (s *RiskDataService) Create(ctx context.Context, data any) (*model.RiskDataReceipt, error) {
	var receipt model.RiskDataReceipt
	if err := s.client.do(ctx, http.MethodPost, "/risk_data/", data, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// RiskDataLogService binds the /risk_data_log resource
type RiskDataLogService struct {
	client *Client
}

// GetAll lists the successful submissions of a risk model, newest first
func (s *RiskDataLogService) GetAll(ctx context.Context, riskModelID types.RiskModelID) ([]*model.RiskDataLogEntry, error) {
	var entries []*model.RiskDataLogEntry
	path := fmt.Sprintf("/risk_data_log/?risk_model=%d", riskModelID)
	if err := s.client.do(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
