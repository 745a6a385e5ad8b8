package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/vineyard-dashboard/forms"
	"github.com/jrsteele09/vineyard-dashboard/notify"
	"github.com/jrsteele09/vineyard-dashboard/users"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const layoutTemplate = "layout.html"

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("2 Jan 2006")
	},
	"datePtr": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return "-"
		}
		return t.Format("2 Jan 2006 15:04")
	},
	"join":      forms.JoinList,
	"roleLabel": func(r users.Role) string { return r.Label() },
	"label": func(s string) string {
		if s == "" {
			return "-"
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"fieldError": func(errs forms.FieldErrors, field string) string {
		return errs[field]
	},
}

// parsePages builds one template set per page: the shared layout plus the page's "content" block
func parsePages() (map[string]*template.Template, error) {
	fsys := TemplateFilesFS()
	layout, err := template.New(layoutTemplate).Funcs(templateFuncs).ParseFS(fsys, layoutTemplate, "partials_*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	names, err := fs.Glob(fsys, "page_*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		set, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := set.ParseFS(fsys, name); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[strings.TrimSuffix(strings.TrimPrefix(name, "page_"), ".html")] = set
	}
	return pages, nil
}

type navItem struct {
	Label  string
	Path   string
	Active bool
}

// view is the data every page template receives
type view struct {
	AppName string
	Title   string
	User    *users.User
	Nav     []navItem
	Toasts  []notify.Toast
	Errors  forms.FieldErrors
	Form    any
	Data    any
}

func (s *Server) newView(r *http.Request, title string) view {
	v := view{
		AppName: s.config.GetAppName(),
		Title:   title,
	}
	if auth := authFrom(r); auth != nil {
		v.User = auth.CurrentUser()
		v.Toasts = auth.Toasts()
	}
	if v.User != nil {
		v.Nav = navFor(v.User.Role, r.URL.Path)
	}
	return v
}

func navFor(role users.Role, current string) []navItem {
	items := []navItem{{Label: "Dashboard", Path: dashboardFor(role)}}
	if role.In(rolesSiteRead...) {
		items = append(items, navItem{Label: "Sites", Path: RouteSites})
	}
	if role.In(rolesBlocks...) {
		items = append(items, navItem{Label: "Blocks", Path: RouteBlocks})
	}
	if role.In(rolesOrderRead...) {
		items = append(items, navItem{Label: "Work orders", Path: RouteWorkOrders})
	}
	if role.In(rolesTasks...) {
		items = append(items, navItem{Label: "Tasks", Path: RouteTasks})
	}
	if role.In(rolesAdmin...) {
		items = append(items, navItem{Label: "Accounts", Path: RouteAccounts}, navItem{Label: "Settings", Path: RouteSettings})
	}
	items = append(items, navItem{Label: "Profile", Path: RouteProfile})

	for i := range items {
		items[i].Active = current == items[i].Path || strings.HasPrefix(current, items[i].Path+"/")
	}
	return items
}

// render executes page into a buffer first so a template error never leaves a half written page
func (s *Server) render(w http.ResponseWriter, status int, page string, v view) {
	tmpl, ok := s.pages[page]
	if !ok {
		log.Error().Str("page", page).Msg("unknown page template")
		http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutTemplate, v); err != nil {
		log.Err(err).Str("page", page).Msg("Failed to render template")
		http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderLoading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Refresh", "1")
	s.render(w, http.StatusOK, "loading", s.newView(r, "Loading"))
}

func (s *Server) renderNotFound(w http.ResponseWriter, r *http.Request) {
	v := s.newView(r, "Not found")
	v.Data = "The page you were looking for does not exist or has been removed."
	s.render(w, http.StatusNotFound, "error", v)
}
