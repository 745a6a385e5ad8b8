package server

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/jrsteele09/vineyard-dashboard/forms"
	"github.com/jrsteele09/vineyard-dashboard/resources"
	"github.com/jrsteele09/vineyard-dashboard/users"
	"github.com/rs/zerolog/log"
)

const maxImageBytes = 5 << 20

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

type siteDetailView struct {
	Site       resources.Site
	Blocks     []resources.Block
	WorkOrders []resources.WorkOrder
	CanEdit    bool
	ShowBlocks bool
}

type siteFormView struct {
	ID            string
	Action        string
	CustomerFixed bool
}

type sitesListView struct {
	Sites   []resources.Site
	CanEdit bool
}

func (s *Server) SitesListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		sites, err := api(r).Sites.List(r.Context(), siteFilterFor(user))
		if err != nil {
			s.failRequest(w, r, err, dashboardFor(user.Role))
			return
		}
		v := s.newView(r, "Sites")
		v.Data = sitesListView{Sites: sites, CanEdit: canEdit(user, rolesSiteWrite)}
		s.render(w, http.StatusOK, "sites", v)
	}
}

func (s *Server) SiteDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		site, ok := s.loadSite(w, r)
		if !ok {
			return
		}

		d := siteDetailView{Site: site, CanEdit: canEdit(user, rolesSiteWrite), ShowBlocks: canEdit(user, rolesBlocks)}
		if d.ShowBlocks {
			if d.Blocks, ok = fetchList(s, w, r, RouteSites, func() ([]resources.Block, error) {
				return api(r).Blocks.List(r.Context(), site.ID)
			}); !ok {
				return
			}
		}
		filter := workOrderFilterFor(user)
		filter.SiteID = site.ID
		if d.WorkOrders, ok = fetchList(s, w, r, RouteSites, func() ([]resources.WorkOrder, error) {
			return api(r).WorkOrders.List(r.Context(), filter)
		}); !ok {
			return
		}

		v := s.newView(r, site.Name)
		v.Data = d
		s.render(w, http.StatusOK, "site", v)
	}
}

func (s *Server) SiteNewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderSiteForm(w, r, http.StatusOK, "", forms.SiteForm{}, nil)
	}
}

func (s *Server) SiteEditHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		site, ok := s.loadSite(w, r)
		if !ok {
			return
		}
		s.renderSiteForm(w, r, http.StatusOK, site.ID, forms.SiteFormFrom(site), nil)
	}
}

func (s *Server) SiteCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := s.bindSiteForm(w, r, "")
		if !ok {
			return
		}
		site, err := api(r).Sites.Create(r.Context(), f.Site())
		if err != nil {
			s.failRequest(w, r, err, RouteSites)
			return
		}
		authFrom(r).Notifications().Success("Site created")
		redirectSuccess(w, r, RouteSites+"/"+site.ID)
	}
}

func (s *Server) SiteUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, ok := s.loadSite(w, r)
		if !ok {
			return
		}
		f, ok := s.bindSiteForm(w, r, existing.ID)
		if !ok {
			return
		}
		if _, err := api(r).Sites.Update(r.Context(), existing.ID, f.Site()); err != nil {
			s.failRequest(w, r, err, RouteSites+"/"+existing.ID)
			return
		}
		authFrom(r).Notifications().Success("Site updated")
		redirectSuccess(w, r, RouteSites+"/"+existing.ID)
	}
}

func (s *Server) SiteDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		site, ok := s.loadSite(w, r)
		if !ok {
			return
		}
		if err := api(r).Sites.Delete(r.Context(), site.ID); err != nil {
			s.failRequest(w, r, err, RouteSites+"/"+site.ID)
			return
		}
		authFrom(r).Notifications().Success("Site deleted")
		redirectSuccess(w, r, RouteSites)
	}
}

// SiteImageHandler uploads a site photo and stores the returned URL on the site
func (s *Server) SiteImageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		site, ok := s.loadSite(w, r)
		if !ok {
			return
		}
		back := RouteSites + "/" + site.ID
		toasts := authFrom(r).Notifications()

		r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+1024)
		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			toasts.Error("The image must be smaller than 5 MB")
			redirectSuccess(w, r, back)
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			toasts.Error("Choose an image to upload")
			redirectSuccess(w, r, back)
			return
		}
		defer file.Close()

		if !imageExtensions[strings.ToLower(filepath.Ext(header.Filename))] {
			toasts.Error("Only JPEG, PNG and WebP images are supported")
			redirectSuccess(w, r, back)
			return
		}

		url, err := api(r).Images.Upload(r.Context(), header.Filename, file)
		if err != nil {
			s.failRequest(w, r, err, back)
			return
		}
		site.ImageURL = url
		if _, err := api(r).Sites.Update(r.Context(), site.ID, site); err != nil {
			s.failRequest(w, r, err, back)
			return
		}
		log.Info().Str("site_id", site.ID).Str("url", url).Msg("site image uploaded")
		toasts.Success("Image uploaded")
		redirectSuccess(w, r, back)
	}
}

// loadSite fetches {id} and hides sites the user may not see
func (s *Server) loadSite(w http.ResponseWriter, r *http.Request) (resources.Site, bool) {
	site, err := api(r).Sites.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.failRequest(w, r, err, RouteSites)
		return site, false
	}
	if !canSeeSite(currentUser(r), site) {
		s.renderNotFound(w, r)
		return site, false
	}
	return site, true
}

// bindSiteForm re-renders the form with field errors when it does not validate.
// Customers always own the sites they create.
func (s *Server) bindSiteForm(w http.ResponseWriter, r *http.Request, id string) (forms.SiteForm, bool) {
	var f forms.SiteForm
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return f, false
	}
	user := currentUser(r)
	if user.Role == users.RoleCustomer {
		r.PostForm.Set("customerId", user.ID)
	}
	if errs := forms.Bind(r.PostForm, &f); errs.Any() {
		s.renderSiteForm(w, r, http.StatusUnprocessableEntity, id, f, errs)
		return f, false
	}
	return f, true
}

func (s *Server) renderSiteForm(w http.ResponseWriter, r *http.Request, status int, id string, f forms.SiteForm, errs forms.FieldErrors) {
	title, action := "New site", RouteSites
	if id != "" {
		title, action = "Edit site", RouteSites+"/"+id
	}
	v := s.newView(r, title)
	v.Form = f
	v.Errors = errs
	v.Data = siteFormView{ID: id, Action: action, CustomerFixed: currentUser(r).Role == users.RoleCustomer}
	s.render(w, status, "site_form", v)
}
