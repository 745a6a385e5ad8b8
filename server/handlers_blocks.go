package server

import (
	"net/http"

	"github.com/jrsteele09/vineyard-dashboard/forms"
	"github.com/jrsteele09/vineyard-dashboard/resources"
)

type blocksListView struct {
	Blocks []resources.Block
	Sites  []resources.Site
	SiteID string
}

type blockDetailView struct {
	Block resources.Block
	Site  resources.Site
}

type blockFormView struct {
	ID     string
	Action string
	Sites  []resources.Site
}

func (s *Server) BlocksListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID := r.URL.Query().Get("siteId")
		blocks, err := api(r).Blocks.List(r.Context(), siteID)
		if err != nil {
			s.failRequest(w, r, err, dashboardFor(currentUser(r).Role))
			return
		}
		v := s.newView(r, "Blocks")
		v.Data = blocksListView{Blocks: blocks, Sites: loadSites(r), SiteID: siteID}
		s.render(w, http.StatusOK, "blocks", v)
	}
}

func (s *Server) BlockDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		block, err := api(r).Blocks.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			s.failRequest(w, r, err, RouteBlocks)
			return
		}
		site, err := api(r).Sites.Get(r.Context(), block.SiteID)
		if err != nil {
			s.failRequest(w, r, err, RouteBlocks)
			return
		}
		v := s.newView(r, block.Name)
		v.Data = blockDetailView{Block: block, Site: site}
		s.render(w, http.StatusOK, "block", v)
	}
}

func (s *Server) BlockNewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderBlockForm(w, r, http.StatusOK, "", forms.BlockForm{SiteID: r.URL.Query().Get("siteId")}, nil)
	}
}

func (s *Server) BlockEditHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		block, err := api(r).Blocks.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			s.failRequest(w, r, err, RouteBlocks)
			return
		}
		s.renderBlockForm(w, r, http.StatusOK, block.ID, forms.BlockFormFrom(block), nil)
	}
}

func (s *Server) BlockCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := s.bindBlockForm(w, r, "")
		if !ok {
			return
		}
		block, err := api(r).Blocks.Create(r.Context(), f.Block())
		if err != nil {
			s.failRequest(w, r, err, RouteBlocks)
			return
		}
		authFrom(r).Notifications().Success("Block created")
		redirectSuccess(w, r, RouteBlocks+"/"+block.ID)
	}
}

func (s *Server) BlockUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		f, ok := s.bindBlockForm(w, r, id)
		if !ok {
			return
		}
		if _, err := api(r).Blocks.Update(r.Context(), id, f.Block()); err != nil {
			s.failRequest(w, r, err, RouteBlocks+"/"+id)
			return
		}
		authFrom(r).Notifications().Success("Block updated")
		redirectSuccess(w, r, RouteBlocks+"/"+id)
	}
}

func (s *Server) BlockDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := api(r).Blocks.Delete(r.Context(), id); err != nil {
			s.failRequest(w, r, err, RouteBlocks+"/"+id)
			return
		}
		authFrom(r).Notifications().Success("Block deleted")
		redirectSuccess(w, r, RouteBlocks)
	}
}

func (s *Server) bindBlockForm(w http.ResponseWriter, r *http.Request, id string) (forms.BlockForm, bool) {
	var f forms.BlockForm
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return f, false
	}
	if errs := forms.Bind(r.PostForm, &f); errs.Any() {
		s.renderBlockForm(w, r, http.StatusUnprocessableEntity, id, f, errs)
		return f, false
	}
	return f, true
}

func (s *Server) renderBlockForm(w http.ResponseWriter, r *http.Request, status int, id string, f forms.BlockForm, errs forms.FieldErrors) {
	title, action := "New block", RouteBlocks
	if id != "" {
		title, action = "Edit block", RouteBlocks+"/"+id
	}
	v := s.newView(r, title)
	v.Form = f
	v.Errors = errs
	v.Data = blockFormView{ID: id, Action: action, Sites: loadSites(r)}
	s.render(w, status, "block_form", v)
}
