package main

import (
	"embed"
	"log"
	"net/http"
	"strings"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"lenscap/internal/providers/handles"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	app := NewApp()

	err := wails.Run(&options.App{
		Title:  "lenscap",
		Width:  1100,
		Height: 760,
		AssetServer: &assetserver.Options{
			Assets:     assets,
			Middleware: app.routeMedia,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}

// routeMedia serves display-handle blobs and the live preview socket
// from the asset server; everything else falls through to the frontend.
func (a *App) routeMedia(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case a.services.Blobs != nil && strings.HasPrefix(r.URL.Path, handles.PathPrefix):
			a.services.Blobs.ServeHTTP(w, r)
		case a.services.Preview != nil && r.URL.Path == "/preview":
			a.services.Preview.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
