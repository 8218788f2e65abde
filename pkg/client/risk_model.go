package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
)

// RiskModelService binds the /risk_model resource. Risk models cannot be deleted.
type RiskModelService struct {
	client *Client
}

func (s *RiskModelService) GetAll(ctx context.Context) ([]*model.RiskModel, error) {
	var models []*model.RiskModel
	if err := s.client.do(ctx, http.MethodGet, "/risk_model", nil, &models); err != nil {
		return nil, err
	}
	return models, nil
}

func (s *RiskModelService) Get(ctx context.Context, id types.RiskModelID) (*model.RiskModel, error) {
	var rm model.RiskModel
	if err := s.client.do(ctx, http.MethodGet, fmt.Sprintf("/risk_model/%d/", id), nil, &rm); err != nil {
		return nil, err
	}
	return &rm, nil
}

// Create posts data as is. It is usually a *model.RiskModel or a normalized
// formdata.Record.
func (s *RiskModelService) Create(ctx context.Context, data any) (*model.RiskModel, error) {
	var rm model.RiskModel
	if err := s.client.do(ctx, http.MethodPost, "/risk_model/", data, &rm); err != nil {
		return nil, err
	}
	return &rm, nil
}

func (s *RiskModelService) Update(ctx context.Context, id types.RiskModelID, data any) (*model.RiskModel, error) {
	var rm model.RiskModel
	if err := s.client.do(ctx, http.MethodPut, fmt.Sprintf("/risk_model/%d/", id), data, &rm); err != nil {
		return nil, err
	}
	return &rm, nil
}

func (s *RiskModelService) GetFieldTypes(ctx context.Context) ([]*model.FieldTypeChoice, error) {
	var choices []*model.FieldTypeChoice
	if err := s.client.do(ctx, http.MethodGet, "/risk_model/field_types/", nil, &choices); err != nil {
		return nil, err
	}
	return choices, nil
}
