package frontend

import "embed"

// StaticFiles holds the built web app. dist/index.html is the page shell
// rendered by webapp.App.Mount.
//
//go:embed dist
var StaticFiles embed.FS
