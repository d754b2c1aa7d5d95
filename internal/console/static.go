package console

import (
	"embed"
	"io/fs"

	"github.com/buswatch/buswatch/errs"
)

//go:embed web
var webFS embed.FS

// dashboardRoot is the asset served for the dashboard routes.
const dashboardRoot = "index.html"

// loadStaticFiles reads the embedded dashboard assets into memory. The
// console refuses to start without a complete asset set.
func loadStaticFiles() (map[string]string, error) {
	entries, err := fs.ReadDir(webFS, "web")
	if err != nil {
		return nil, errs.New("console/static", errs.CodeInternal, errs.WithCause(err))
	}
	assets := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := fs.ReadFile(webFS, "web/"+entry.Name())
		if err != nil {
			return nil, errs.New("console/static", errs.CodeInternal, errs.WithCause(err))
		}
		assets[entry.Name()] = string(data)
	}
	if _, ok := assets[dashboardRoot]; !ok {
		return nil, errs.New("console/static", errs.CodeInternal,
			errs.WithMessage("dashboard index missing"))
	}
	return assets, nil
}
