package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"strings"
	"time"

	ginrender "github.com/gin-gonic/gin/render"
	"github.com/shopspring/decimal"
)

//go:embed *.gohtml
var files embed.FS

const layoutFile = "layout.gohtml"

// DisplayTime is how timestamps are shown to users.
const DisplayTime = "Jan 02, 2006 03:04 PM"

// Renderer implements gin's render.HTMLRender. Each page is parsed into its
// own copy of the layout so pages can all define "content".
type Renderer struct {
	pages map[string]*template.Template
}

var _ ginrender.HTMLRender = (*Renderer)(nil)

// New parses the embedded layout and pages.
func New() (*Renderer, error) {
	layout, err := template.New(layoutFile).Funcs(Funcs()).ParseFS(files, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	names, err := fs.Glob(files, "*.gohtml")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		if name == layoutFile {
			continue
		}
		page, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := page.ParseFS(files, name); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[strings.TrimSuffix(name, ".gohtml")] = page
	}
	return r, nil
}

// Instance renders page name inside the layout.
func (r *Renderer) Instance(name string, data any) ginrender.Render {
	page, ok := r.pages[name]
	if !ok {
		panic(fmt.Sprintf("templates: unknown page %q", name))
	}
	return ginrender.HTML{Template: page, Name: "layout", Data: data}
}

// Funcs are the helpers available to every page.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"money": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		"pnl": func(d *decimal.Decimal) string {
			if d == nil {
				return "-"
			}
			return d.StringFixed(2)
		},
		"positive": func(d *decimal.Decimal) bool {
			return d != nil && d.IsPositive()
		},
		"negative": func(d *decimal.Decimal) bool {
			return d != nil && d.IsNegative()
		},
		"percent": func(f float64) string {
			return fmt.Sprintf("%.1f%%", f)
		},
		"datetime": func(t time.Time) string {
			return t.Format(DisplayTime)
		},
		"fieldErrors": func(errs map[string][]string, field string) []string {
			return errs[field]
		},
		"sortURL": sortURL,
	}
}

// sortURL links a column header: clicking the active column flips the
// order, any other column starts ascending.
func sortURL(field, currentSort, currentOrder string) string {
	order := "asc"
	if field == currentSort && currentOrder == "asc" {
		order = "desc"
	}
	q := url.Values{}
	q.Set("sort_by", field)
	q.Set("order", order)
	return "/trades?" + q.Encode()
}
