package display

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var static embed.FS

// ViewerHandler serves the browser viewer page. It connects back to /ws.
func ViewerHandler() http.Handler {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServerFS(sub)
}
