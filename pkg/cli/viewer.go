package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/client"
	"github.com/secmon-lab/riskmodel/pkg/domain/model"
	"github.com/secmon-lab/riskmodel/pkg/domain/types"
	"github.com/secmon-lab/riskmodel/pkg/utils/formdata"
	"github.com/secmon-lab/riskmodel/pkg/utils/logging"
	"github.com/secmon-lab/riskmodel/pkg/webapp"
	"golang.org/x/sync/errgroup"
)

var (
	titleColor   = color.New(color.Bold)
	successColor = color.New(color.FgGreen)
	mutedColor   = color.New(color.FgHiBlack)
)

// viewer renders the views of the web app as text
type viewer struct {
	client *client.Client
	w      io.Writer
}

func newViewer(c *client.Client, w io.Writer) *viewer {
	return &viewer{client: c, w: w}
}

func (v *viewer) table() *tabwriter.Writer {
	return tabwriter.NewWriter(v.w, 0, 4, 2, ' ', 0)
}

func (v *viewer) flush(tw *tabwriter.Writer) error {
	if err := tw.Flush(); err != nil {
		return goerr.Wrap(err, "failed to write table")
	}
	return nil
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (v *viewer) list(ctx context.Context) error {
	models, err := v.client.RiskModel.GetAll(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list risk models")
	}

	titleColor.Fprintln(v.w, "Risk models")
	tw := v.table()
	fmt.Fprintln(tw, "ID\tNAME\tACTIVATED\tFIELDS")
	for _, rm := range models {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", rm.ID, rm.Name, yesNo(rm.Activated), len(rm.Fields))
	}
	return v.flush(tw)
}

func (v *viewer) fieldTypes(ctx context.Context) error {
	choices, err := v.client.RiskModel.GetFieldTypes(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list field types")
	}

	tw := v.table()
	fmt.Fprintln(tw, "VALUE\tTEXT")
	for _, c := range choices {
		fmt.Fprintf(tw, "%s\t%s\n", c.Value, c.Text)
	}
	return v.flush(tw)
}

// fetchModel gets a risk model and the field type labels concurrently
func (v *viewer) fetchModel(ctx context.Context, id int64) (*model.RiskModel, map[types.FieldType]string, error) {
	var rm *model.RiskModel
	var choices []*model.FieldTypeChoice

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		rm, err = v.client.RiskModel.Get(ctx, types.RiskModelID(id))
		if err != nil {
			return goerr.Wrap(err, "failed to get risk model", goerr.V("id", id))
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		choices, err = v.client.RiskModel.GetFieldTypes(ctx)
		if err != nil {
			return goerr.Wrap(err, "failed to list field types")
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	labels := make(map[types.FieldType]string, len(choices))
	for _, c := range choices {
		labels[c.Value] = c.Text
	}
	return rm, labels, nil
}

func (v *viewer) model(ctx context.Context, id int64) error {
	rm, labels, err := v.fetchModel(ctx, id)
	if err != nil {
		return err
	}
	return v.printModel(rm, labels)
}

func (v *viewer) printModel(rm *model.RiskModel, labels map[types.FieldType]string) error {
	titleColor.Fprintf(v.w, "%s (#%d)\n", rm.Name, rm.ID)
	fmt.Fprintf(v.w, "button: %s\ndescription: %s\nsuccess message: %s\nactivated: %s\n\n",
		rm.Button, orDash(rm.Description), orDash(rm.SuccessMsg), yesNo(rm.Activated))

	tw := v.table()
	fmt.Fprintln(tw, "ORDER\tNAME\tSLUG\tTYPE\tREQUIRED\tUNIQUE")
	for _, f := range rm.Fields {
		label := labels[f.FieldType]
		if label == "" {
			label = string(f.FieldType)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", f.Order, f.Name, f.Slug, label, yesNo(f.Required), yesNo(f.Unique))
	}
	return v.flush(tw)
}

// loadModelFile reads a risk model JSON file the way the web app prepares a
// model before sending it: blank attributes become null and field orders
// follow their position.
func loadModelFile(path string) (*model.RiskModel, error) {
	// #nosec G304 - path is provided by CLI flag
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read risk model file", goerr.V("path", path))
	}

	var rec formdata.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, goerr.Wrap(err, "failed to parse risk model file", goerr.V("path", path))
	}
	formdata.NullBlankFields(rec)

	normalized, err := json.Marshal(rec)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode risk model", goerr.V("path", path))
	}
	var rm model.RiskModel
	if err := json.Unmarshal(normalized, &rm); err != nil {
		return nil, goerr.Wrap(err, "invalid risk model file", goerr.V("path", path))
	}
	formdata.RefreshFieldOrder(rm.Fields)
	return &rm, nil
}

func (v *viewer) create(ctx context.Context, path string) error {
	input, err := loadModelFile(path)
	if err != nil {
		return err
	}

	rm, err := v.client.RiskModel.Create(ctx, input)
	if err != nil {
		return goerr.Wrap(err, "failed to create risk model")
	}
	logging.From(ctx).Info("risk model created", "id", rm.ID)

	successColor.Fprintf(v.w, "created risk model #%d\n", rm.ID)
	return v.printModel(rm, nil)
}

func (v *viewer) edit(ctx context.Context, id int64, path string) error {
	input, err := loadModelFile(path)
	if err != nil {
		return err
	}
	input.ID = types.RiskModelID(id)

	rm, err := v.client.RiskModel.Update(ctx, types.RiskModelID(id), input)
	if err != nil {
		return goerr.Wrap(err, "failed to update risk model", goerr.V("id", id))
	}

	successColor.Fprintf(v.w, "updated risk model #%d\n", rm.ID)
	return v.printModel(rm, nil)
}

// moveField swaps the field with the one delta positions away, renumbers the
// orders and saves the model. An offset out of range changes nothing.
func (v *viewer) moveField(ctx context.Context, id int64, slug string, delta int) error {
	rm, err := v.client.RiskModel.Get(ctx, types.RiskModelID(id))
	if err != nil {
		return goerr.Wrap(err, "failed to get risk model", goerr.V("id", id))
	}

	var target *model.Field
	for _, f := range rm.Fields {
		if f.Slug == slug {
			target = f
			break
		}
	}
	if target == nil {
		return goerr.New("field not found", goerr.V("id", id), goerr.V("slug", slug))
	}

	before := target.Order
	formdata.Move(rm.Fields, target, delta)
	formdata.RefreshFieldOrder(rm.Fields)
	if target.Order == before {
		mutedColor.Fprintf(v.w, "field %s stays at %d\n", slug, before)
		return nil
	}

	updated, err := v.client.RiskModel.Update(ctx, rm.ID, rm)
	if err != nil {
		return goerr.Wrap(err, "failed to update risk model", goerr.V("id", id))
	}

	successColor.Fprintf(v.w, "moved field %s from %d to %d\n", slug, before, target.Order)
	return v.printModel(updated, nil)
}

func (v *viewer) form(ctx context.Context, id int64) error {
	rm, labels, err := v.fetchModel(ctx, id)
	if err != nil {
		return err
	}

	titleColor.Fprintln(v.w, rm.Name)
	if rm.Description != nil {
		fmt.Fprintln(v.w, *rm.Description)
	}

	tw := v.table()
	fmt.Fprintln(tw, "FIELD\tSLUG\tTYPE\tREQUIRED\tCHOICES\tHELP")
	for _, f := range rm.Fields {
		label := labels[f.FieldType]
		if label == "" {
			label = string(f.FieldType)
		}
		choices := "-"
		if f.FieldType.HasChoices() && len(f.Choices) > 0 {
			choices = strings.Join(f.Choices, ",")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", f.Name, f.Slug, label, yesNo(f.Required), choices, orDash(f.HelpText))
	}
	if err := v.flush(tw); err != nil {
		return err
	}
	mutedColor.Fprintf(v.w, "submit with: --set <slug>=<value> ... (%s)\n", rm.Button)
	return nil
}

// parseValues builds submitted data from a JSON file and slug=value pairs.
// A slug repeated in pairs becomes a list.
func parseValues(pairs []string, dataFile string) (formdata.Record, error) {
	data := formdata.Record{}
	if dataFile != "" {
		// #nosec G304 - path is provided by CLI flag
		raw, err := os.ReadFile(dataFile)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read data file", goerr.V("path", dataFile))
		}
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, goerr.Wrap(err, "failed to parse data file", goerr.V("path", dataFile))
		}
	}

	seen := map[string]int{}
	for _, pair := range pairs {
		slug, value, ok := strings.Cut(pair, "=")
		if !ok || slug == "" {
			return nil, goerr.New("value must be slug=value", goerr.V("value", pair))
		}
		seen[slug]++
		switch seen[slug] {
		case 1:
			data[slug] = value
		case 2:
			data[slug] = []any{data[slug], value}
		default:
			data[slug] = append(data[slug].([]any), value)
		}
	}
	return formdata.NullBlankFields(data), nil
}

func (v *viewer) submit(ctx context.Context, id int64, pairs []string, dataFile string) error {
	data, err := parseValues(pairs, dataFile)
	if err != nil {
		return err
	}

	rm, err := v.client.RiskModel.Get(ctx, types.RiskModelID(id))
	if err != nil {
		return goerr.Wrap(err, "failed to get risk model", goerr.V("id", id))
	}

	receipt, err := v.client.RiskData.Create(ctx, &model.RiskData{
		RiskModel:     rm.ID,
		RiskModelName: rm.Name,
		Data:          data,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to submit risk data", goerr.V("id", id))
	}

	msg := "Risk data submitted."
	if rm.SuccessMsg != nil {
		msg = *rm.SuccessMsg
	}
	successColor.Fprintln(v.w, msg)
	fmt.Fprintf(v.w, "form submit: %d\n", receipt.FormSubmit)
	return nil
}

func (v *viewer) log(ctx context.Context, id int64) error {
	var rm *model.RiskModel
	var entries []*model.RiskDataLogEntry

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		rm, err = v.client.RiskModel.Get(egCtx, types.RiskModelID(id))
		if err != nil {
			return goerr.Wrap(err, "failed to get risk model", goerr.V("id", id))
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		entries, err = v.client.RiskDataLog.GetAll(egCtx, types.RiskModelID(id))
		if err != nil {
			return goerr.Wrap(err, "failed to list risk data log", goerr.V("id", id))
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	titleColor.Fprintf(v.w, "Risk data log of %s\n", rm.Name)
	tw := v.table()
	fmt.Fprintln(tw, "FORM SUBMIT\tCREATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\n", e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return v.flush(tw)
}

func (v *viewer) data(ctx context.Context, id int64) error {
	views, err := v.client.RiskData.Get(ctx, types.FormSubmitID(id))
	if err != nil {
		return goerr.Wrap(err, "failed to get risk data", goerr.V("id", id))
	}

	titleColor.Fprintf(v.w, "Risk data #%d\n", id)
	tw := v.table()
	fmt.Fprintln(tw, "FIELD\tTYPE\tVALUE")
	for _, fv := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", fv.FieldName, fv.FieldType, orDash(fv.Value))
	}
	return v.flush(tw)
}

// open renders the view a web app path resolves to
func (v *viewer) open(ctx context.Context, path string) error {
	m, ok := webapp.NewRouter().Resolve(path)
	if !ok {
		return goerr.Wrap(webapp.ErrRouteNotFound, "no view for path", goerr.V("path", path))
	}

	var id int64
	if raw, ok := m.Params["id"]; ok {
		var err error
		if id, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return goerr.New("invalid ID in path", goerr.V("path", path))
		}
	}

	switch m.Route.Name {
	case webapp.ViewRiskModelList:
		return v.list(ctx)
	case webapp.ViewRiskModelCreate:
		return v.fieldTypes(ctx)
	case webapp.ViewRiskModelEdit:
		return v.model(ctx, id)
	case webapp.ViewRiskForm:
		return v.form(ctx, id)
	case webapp.ViewRiskFormLog:
		return v.log(ctx, id)
	case webapp.ViewRiskData:
		return v.data(ctx, id)
	}
	return goerr.New("view has no terminal rendition", goerr.V("view", m.Route.Name))
}
