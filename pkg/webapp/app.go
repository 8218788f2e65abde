package webapp

import (
	"html/template"
	"io"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/frontend"
	"github.com/secmon-lab/riskmodel/pkg/client"
)

// DefaultMountID is the id of the page element the root view is mounted into
const DefaultMountID = "app"

var ErrRouteNotFound = goerr.New("route not found")

// Config is the process wide setup of the web app
type Config struct {
	// APIURL is the base URL of the REST API
	APIURL string

	// ProductionTip enables development mode warnings in the browser
	ProductionTip bool

	MountID string
}

// App is created once per process and lives until it exits
type App struct {
	cfg    Config
	client *client.Client
	router *Router
	page   *template.Template
}

var (
	pageOnce sync.Once
	page     *template.Template
	pageErr  error
)

func loadPage() (*template.Template, error) {
	pageOnce.Do(func() {
		page, pageErr = template.ParseFS(frontend.StaticFiles, "dist/index.html")
	})
	return page, pageErr
}

func New(cfg Config) (*App, error) {
	if cfg.MountID == "" {
		cfg.MountID = DefaultMountID
	}

	c, err := client.New(cfg.APIURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure API client")
	}

	tmpl, err := loadPage()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load page shell")
	}

	return &App{
		cfg:    cfg,
		client: c,
		router: NewRouter(),
		page:   tmpl,
	}, nil
}

type pageData struct {
	MountID       string
	View          string
	Path          string
	Params        map[string]string
	APIURL        string
	ProductionTip bool
}

// Mount renders the page shell with the root view resolved from path
func (x *App) Mount(w io.Writer, path string) error {
	m, ok := x.router.Resolve(path)
	if !ok {
		return goerr.Wrap(ErrRouteNotFound, "no view for path", goerr.V("path", path))
	}

	data := pageData{
		MountID:       x.cfg.MountID,
		View:          m.Route.Name,
		Path:          path,
		Params:        m.Params,
		APIURL:        x.client.BaseURL(),
		ProductionTip: x.cfg.ProductionTip,
	}
	if err := x.page.Execute(w, data); err != nil {
		return goerr.Wrap(err, "failed to render page", goerr.V("path", path))
	}
	return nil
}

func (x *App) Client() *client.Client {
	return x.client
}

func (x *App) Router() *Router {
	return x.router
}

func (x *App) Config() Config {
	return x.cfg
}
