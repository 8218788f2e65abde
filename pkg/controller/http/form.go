package http

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
)

const maxMemory = 32 << 20

// parseRiskData reads a risk data submission posted as JSON, as a multipart
// form or as an urlencoded form. Form values are keyed "data[slug]", lists
// "data[slug][]", and files are parts named "data[slug]".
func parseRiskData(r *http.Request) (*model.RiskData, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	var req struct {
		RiskModel     json.Number    `json:"risk_model"`
		RiskModelName string         `json:"risk_model_name"`
		Data          map[string]any `json:"data"`
	}

	switch mediaType {
	case "multipart/form-data", "application/x-www-form-urlencoded":
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(maxMemory)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			return nil, badRequest(err, "Multipart form parse error - "+err.Error())
		}

		req.RiskModel = json.Number(strings.TrimSpace(r.PostForm.Get("risk_model")))
		req.RiskModelName = r.PostForm.Get("risk_model_name")
		if req.Data, err = formData(r.PostForm, r.MultipartForm); err != nil {
			return nil, err
		}

	default:
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
	}

	data := &model.RiskData{
		RiskModelName: req.RiskModelName,
		Data:          req.Data,
	}
	if req.RiskModel != "" {
		id, err := req.RiskModel.Int64()
		if err != nil {
			return nil, model.NewValidationError("risk_model", "Incorrect type. Expected pk value, received str.")
		}
		data.RiskModel = types.RiskModelID(id)
	}
	return data, nil
}

func formData(values map[string][]string, form *multipart.Form) (map[string]any, error) {
	var data map[string]any

	if raw, ok := values["data"]; ok && len(raw) > 0 {
		data = map[string]any{}
		decoder := json.NewDecoder(strings.NewReader(raw[0]))
		decoder.UseNumber()
		if err := decoder.Decode(&data); err != nil {
			return nil, badRequest(err, "JSON parse error - "+err.Error())
		}
	}

	set := func(slug string, v any) {
		if data == nil {
			data = map[string]any{}
		}
		data[slug] = v
	}

	for key, vs := range values {
		slug, isList, ok := dataKey(key)
		if !ok {
			continue
		}
		if isList {
			set(slug, vs)
		} else if len(vs) > 0 {
			set(slug, vs[len(vs)-1])
		}
	}

	if form != nil {
		for key, headers := range form.File {
			slug, _, ok := dataKey(key)
			if !ok || len(headers) == 0 {
				continue
			}
			set(slug, uploadedFile(headers[0]))
		}
	}
	return data, nil
}

// dataKey splits "data[slug]" and "data[slug][]"
func dataKey(key string) (slug string, isList bool, ok bool) {
	rest, found := strings.CutPrefix(key, "data[")
	if !found {
		return "", false, false
	}
	if s, found := strings.CutSuffix(rest, "][]"); found {
		return s, true, s != ""
	}
	if s, found := strings.CutSuffix(rest, "]"); found {
		return s, false, s != ""
	}
	return "", false, false
}

func uploadedFile(h *multipart.FileHeader) *model.UploadedFile {
	return &model.UploadedFile{
		Filename:    h.Filename,
		ContentType: h.Header.Get("Content-Type"),
		Size:        h.Size,
		Open: func() (io.ReadCloser, error) {
			return h.Open()
		},
	}
}
