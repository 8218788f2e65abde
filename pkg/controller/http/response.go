package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/usecase"
	"github.com/secmon-lab/riskmodel/pkg/utils/errutil"
	"github.com/secmon-lab/riskmodel/pkg/utils/logging"
	"github.com/secmon-lab/riskmodel/pkg/utils/safe"
)

const msgNotFound = "Not found."

type detail struct {
	Detail string `json:"detail"`
}

// errBadRequest marks request bodies that cannot be decoded
var errBadRequest = goerr.New("bad request")

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

// handleError maps use case errors to API responses
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr model.ValidationError
	switch {
	case errors.As(err, &verr):
		logging.From(r.Context()).Info("validation failed", "error", verr.Error())
		writeJSON(w, r, http.StatusBadRequest, verr)

	case errors.Is(err, usecase.ErrNotFound):
		writeJSON(w, r, http.StatusNotFound, detail{Detail: msgNotFound})

	case errors.Is(err, errBadRequest):
		msg := err.Error()
		var ge *goerr.Error
		if errors.As(err, &ge) {
			if v, ok := ge.Values()["detail"].(string); ok {
				msg = v
			}
		}
		writeJSON(w, r, http.StatusBadRequest, detail{Detail: msg})

	default:
		errutil.Handle(r.Context(), err, "request failed")
		writeJSON(w, r, http.StatusInternalServerError, detail{Detail: "A server error occurred."})
	}
}

func badRequest(err error, msg string) error {
	if err == nil {
		return goerr.Wrap(errBadRequest, msg, goerr.V("detail", msg))
	}
	return goerr.Wrap(errBadRequest, msg, goerr.V("detail", msg), goerr.V("cause", err.Error()))
}
