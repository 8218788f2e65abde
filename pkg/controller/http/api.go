package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
	"github.com/secmon-lab/riskmodel/pkg/usecase"
)

// idParam parses the {id} URL parameter. A malformed id can match nothing and is
// reported as not found.
func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, usecase.ErrNotFound
	}
	return id, nil
}

func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		// an empty body is left to validation
		if errors.Is(err, io.EOF) {
			return nil
		}
		return badRequest(err, "JSON parse error - "+err.Error())
	}
	return nil
}

func (s *Server) listRiskModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.uc.RiskModel.ListRiskModels(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, models)
}

func (s *Server) getRiskModel(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	rm, err := s.uc.RiskModel.GetRiskModel(r.Context(), types.RiskModelID(id))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rm)
}

func (s *Server) createRiskModel(w http.ResponseWriter, r *http.Request) {
	var input model.RiskModel
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, err)
		return
	}

	rm, err := s.uc.RiskModel.CreateRiskModel(r.Context(), &input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, rm)
}

func (s *Server) updateRiskModel(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var input model.RiskModel
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, err)
		return
	}

	rm, err := s.uc.RiskModel.UpdateRiskModel(r.Context(), types.RiskModelID(id), &input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rm)
}

func (s *Server) listFieldTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.uc.RiskModel.FieldTypes(r.Context()))
}

func (s *Server) createRiskData(w http.ResponseWriter, r *http.Request) {
	data, err := parseRiskData(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	receipt, err := s.uc.RiskData.SubmitRiskData(r.Context(), data)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, receipt)
}

func (s *Server) getRiskData(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	views, err := s.uc.RiskData.GetRiskData(r.Context(), types.FormSubmitID(id))
	if err != nil {
		handleError(w, r, err)
		return
	}

	base := requestBaseURL(r)
	for _, v := range views {
		if v.FieldType == types.FieldTypeFile && v.Value != nil && strings.HasPrefix(*v.Value, "/") {
			abs := base + *v.Value
			v.Value = &abs
		}
	}
	writeJSON(w, r, http.StatusOK, views)
}

func (s *Server) listRiskDataLog(w http.ResponseWriter, r *http.Request) {
	var filter *types.RiskModelID
	if raw := r.URL.Query().Get("risk_model"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, r, http.StatusBadRequest, map[string][]string{
				"risk_model": {"Select a valid choice. That choice is not one of the available choices."},
			})
			return
		}
		rmID := types.RiskModelID(id)
		filter = &rmID
	}

	entries, err := s.uc.RiskDataLog.ListRiskDataLog(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, entries)
}

// requestBaseURL returns scheme and host the client used to reach the server
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
