package webapp

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// View names of the web app
const (
	ViewRiskModelList   = "risk-model-list"
	ViewRiskModelCreate = "risk-model-create"
	ViewRiskModelEdit   = "risk-model-edit"
	ViewRiskForm        = "risk-form"
	ViewRiskFormLog     = "risk-form-log"
	ViewRiskData        = "risk-data"
)

// Route maps a path pattern to a view. Path uses ":id" style parameters.
type Route struct {
	Path string
	Name string
}

// Match is a resolved route with its path parameters
type Match struct {
	Route  Route
	Params map[string]string
}

var routes = []Route{
	{Path: "/", Name: ViewRiskModelList},
	{Path: "/risk/create", Name: ViewRiskModelCreate},
	{Path: "/risk/edit/:id", Name: ViewRiskModelEdit},
	{Path: "/risk/form/:id", Name: ViewRiskForm},
	{Path: "/risk/log/:id", Name: ViewRiskFormLog},
	{Path: "/risk/data/:id", Name: ViewRiskData},
}

// Router resolves web app paths to views. It has no guards, nesting or redirects.
type Router struct {
	mux    *chi.Mux
	byPath map[string]Route
}

func NewRouter() *Router {
	r := &Router{
		mux:    chi.NewRouter(),
		byPath: make(map[string]Route, len(routes)),
	}
	for _, route := range routes {
		pattern := route.Pattern()
		r.byPath[pattern] = route
		r.mux.Get(pattern, http.NotFound)
	}
	return r
}

// Pattern returns Path in chi syntax, "/risk/edit/:id" becomes "/risk/edit/{id}"
func (r Route) Pattern() string {
	segments := strings.Split(r.Path, "/")
	for i, s := range segments {
		if strings.HasPrefix(s, ":") {
			segments[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}

// Resolve finds the route of path. Query strings, fragments and one trailing
// slash are ignored.
func (r *Router) Resolve(path string) (*Match, bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if path == "" {
		path = "/"
	}

	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, path) {
		return nil, false
	}

	route, ok := r.byPath[rctx.RoutePattern()]
	if !ok {
		return nil, false
	}

	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		params[key] = rctx.URLParams.Values[i]
	}
	return &Match{Route: route, Params: params}, true
}

// Routes returns the route table in declaration order
func (r *Router) Routes() []Route {
	return append([]Route(nil), routes...)
}
