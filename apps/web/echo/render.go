package echoweb

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tneregistro/portal/core/session"
)

var (
	//go:embed templates
	templateFS embed.FS

	//go:embed static
	staticFS embed.FS

	pageNames = []string{"login", "dashboard", "stats", "error"}

	templateFuncs = template.FuncMap{
		"svg": func(f float64) string { return fmt.Sprintf("%.1f", f) },
	}
)

// page is what every template receives.
type page struct {
	Title   string
	Session session.Session
	ShowNav bool
	CSRF    string
	Flash   *flash
	Data    interface{}
}

// newPage prepares a page for ctx. Navigation is shown only to logged-in staff.
func newPage(ctx echo.Context, title string, data interface{}) page {
	sess := getContextSession(ctx)
	csrf, _ := ctx.Get("csrf").(string)
	return page{
		Title:   title,
		Session: sess,
		ShowNav: sess.LoggedIn(),
		CSRF:    csrf,
		Data:    data,
	}
}

// renderer renders each page inside the shared layout.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s template", name)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

func mustNewRenderer() *renderer {
	r, err := newRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("unknown page %q", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
