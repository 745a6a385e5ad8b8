package server

import (
	"html/template"
	"net/http"

	"github.com/jrsteele09/vineyard-dashboard/forms"
	"github.com/jrsteele09/vineyard-dashboard/resources"
	"github.com/jrsteele09/vineyard-dashboard/users"
)

var workOrderPriorities = []string{"low", "medium", "high"}

type workOrdersListView struct {
	WorkOrders []resources.WorkOrder
	Statuses   []resources.WorkOrderStatus
	Status     string
	CanEdit    bool
}

type workOrderDetailView struct {
	WorkOrder    resources.WorkOrder
	Instructions template.HTML
	Tasks        []resources.WorkerTask
	CanEdit      bool
}

type workOrderFormView struct {
	ID         string
	Action     string
	Sites      []resources.Site
	Statuses   []resources.WorkOrderStatus
	Priorities []string
}

func (s *Server) WorkOrdersListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		filter := workOrderFilterFor(user)
		filter.Status = resources.WorkOrderStatus(r.URL.Query().Get("status"))
		filter.SiteID = r.URL.Query().Get("siteId")

		orders, err := api(r).WorkOrders.List(r.Context(), filter)
		if err != nil {
			s.failRequest(w, r, err, dashboardFor(user.Role))
			return
		}
		v := s.newView(r, "Work orders")
		v.Data = workOrdersListView{
			WorkOrders: orders,
			Statuses:   resources.WorkOrderStatuses(),
			Status:     string(filter.Status),
			CanEdit:    canEdit(user, rolesOrderWrite),
		}
		s.render(w, http.StatusOK, "work_orders", v)
	}
}

func (s *Server) WorkOrderDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		wo, ok := s.loadWorkOrder(w, r)
		if !ok {
			return
		}

		d := workOrderDetailView{
			WorkOrder:    wo,
			Instructions: s.sanitizer.HTML(wo.Instructions),
			CanEdit:      canEdit(user, rolesOrderWrite),
		}
		if user.Role.In(users.RoleAdmin, users.RoleSiteManager) {
			if d.Tasks, ok = fetchList(s, w, r, RouteWorkOrders, func() ([]resources.WorkerTask, error) {
				return api(r).Tasks.List(r.Context(), resources.TaskFilter{WorkOrderID: wo.ID})
			}); !ok {
				return
			}
		}

		v := s.newView(r, wo.Title)
		v.Data = d
		s.render(w, http.StatusOK, "work_order", v)
	}
}

func (s *Server) WorkOrderNewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := forms.WorkOrderForm{
			SiteID:   r.URL.Query().Get("siteId"),
			Status:   string(resources.WorkOrderPending),
			Priority: "medium",
		}
		s.renderWorkOrderForm(w, r, http.StatusOK, "", f, nil)
	}
}

func (s *Server) WorkOrderEditHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wo, ok := s.loadWorkOrder(w, r)
		if !ok {
			return
		}
		s.renderWorkOrderForm(w, r, http.StatusOK, wo.ID, forms.WorkOrderFormFrom(wo), nil)
	}
}

func (s *Server) WorkOrderCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := s.bindWorkOrderForm(w, r, "")
		if !ok {
			return
		}
		wo, err := api(r).WorkOrders.Create(r.Context(), f.WorkOrder())
		if err != nil {
			s.failRequest(w, r, err, RouteWorkOrders)
			return
		}
		authFrom(r).Notifications().Success("Work order created")
		redirectSuccess(w, r, RouteWorkOrders+"/"+wo.ID)
	}
}

func (s *Server) WorkOrderUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, ok := s.loadWorkOrder(w, r)
		if !ok {
			return
		}
		f, ok := s.bindWorkOrderForm(w, r, existing.ID)
		if !ok {
			return
		}
		if _, err := api(r).WorkOrders.Update(r.Context(), existing.ID, f.WorkOrder()); err != nil {
			s.failRequest(w, r, err, RouteWorkOrders+"/"+existing.ID)
			return
		}
		authFrom(r).Notifications().Success("Work order updated")
		redirectSuccess(w, r, RouteWorkOrders+"/"+existing.ID)
	}
}

func (s *Server) WorkOrderDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wo, ok := s.loadWorkOrder(w, r)
		if !ok {
			return
		}
		if err := api(r).WorkOrders.Delete(r.Context(), wo.ID); err != nil {
			s.failRequest(w, r, err, RouteWorkOrders+"/"+wo.ID)
			return
		}
		authFrom(r).Notifications().Success("Work order deleted")
		redirectSuccess(w, r, RouteWorkOrders)
	}
}

func (s *Server) loadWorkOrder(w http.ResponseWriter, r *http.Request) (resources.WorkOrder, bool) {
	wo, err := api(r).WorkOrders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.failRequest(w, r, err, RouteWorkOrders)
		return wo, false
	}
	if !canSeeWorkOrder(currentUser(r), wo) {
		s.renderNotFound(w, r)
		return wo, false
	}
	return wo, true
}

// bindWorkOrderForm validates the form; customers always raise orders in their own name
func (s *Server) bindWorkOrderForm(w http.ResponseWriter, r *http.Request, id string) (forms.WorkOrderForm, bool) {
	var f forms.WorkOrderForm
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return f, false
	}
	if user := currentUser(r); user.Role == users.RoleCustomer {
		r.PostForm.Set("customerId", user.ID)
	}
	if errs := forms.Bind(r.PostForm, &f); errs.Any() {
		s.renderWorkOrderForm(w, r, http.StatusUnprocessableEntity, id, f, errs)
		return f, false
	}
	return f, true
}

func (s *Server) renderWorkOrderForm(w http.ResponseWriter, r *http.Request, status int, id string, f forms.WorkOrderForm, errs forms.FieldErrors) {
	title, action := "New work order", RouteWorkOrders
	if id != "" {
		title, action = "Edit work order", RouteWorkOrders+"/"+id
	}
	v := s.newView(r, title)
	v.Form = f
	v.Errors = errs
	v.Data = workOrderFormView{
		ID:         id,
		Action:     action,
		Sites:      loadSites(r),
		Statuses:   resources.WorkOrderStatuses(),
		Priorities: workOrderPriorities,
	}
	s.render(w, status, "work_order_form", v)
}
