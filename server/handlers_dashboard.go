package server

import (
	"net/http"

	"github.com/jrsteele09/vineyard-dashboard/resources"
)

type stat struct {
	Label string
	Value int
	Path  string
}

type dashboardView struct {
	Heading    string
	Stats      []stat
	Sites      []resources.Site
	WorkOrders []resources.WorkOrder
	Tasks      []resources.WorkerTask
}

const dashboardListSize = 5

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, d dashboardView) {
	if len(d.Sites) > dashboardListSize {
		d.Sites = d.Sites[:dashboardListSize]
	}
	if len(d.WorkOrders) > dashboardListSize {
		d.WorkOrders = d.WorkOrders[:dashboardListSize]
	}
	if len(d.Tasks) > dashboardListSize {
		d.Tasks = d.Tasks[:dashboardListSize]
	}
	v := s.newView(r, d.Heading)
	v.Data = d
	s.render(w, http.StatusOK, "dashboard", v)
}

func openWorkOrders(list []resources.WorkOrder) []resources.WorkOrder {
	var open []resources.WorkOrder
	for _, wo := range list {
		if wo.Status == resources.WorkOrderPending || wo.Status == resources.WorkOrderInProgress {
			open = append(open, wo)
		}
	}
	return open
}

func openTasks(list []resources.WorkerTask) []resources.WorkerTask {
	var open []resources.WorkerTask
	for _, t := range list {
		if t.Status != resources.TaskDone {
			open = append(open, t)
		}
	}
	return open
}

func (s *Server) AdminDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		a := api(r)

		accounts, err := a.Auth.ListAccounts(ctx, "")
		if err != nil {
			s.failRequest(w, r, err, RouteProfile)
			return
		}
		sites, err := a.Sites.List(ctx, resources.SiteFilter{})
		if err != nil {
			s.failRequest(w, r, err, RouteProfile)
			return
		}
		orders, err := a.WorkOrders.List(ctx, resources.WorkOrderFilter{})
		if err != nil {
			s.failRequest(w, r, err, RouteProfile)
			return
		}

		open := openWorkOrders(orders)
		s.renderDashboard(w, r, dashboardView{
			Heading: "Administration",
			Stats: []stat{
				{Label: "Accounts", Value: len(accounts), Path: RouteAccounts},
				{Label: "Sites", Value: len(sites), Path: RouteSites},
				{Label: "Open work orders", Value: len(open), Path: RouteWorkOrders},
			},
			WorkOrders: open,
		})
	}
}

func (s *Server) CustomerDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user := currentUser(r)

		sites, err := api(r).Sites.List(ctx, siteFilterFor(user))
		if err != nil {
			s.failRequest(w, r, err, RouteProfile)
			return
		}
		orders, err := api(r).WorkOrders.List(ctx, workOrderFilterFor(user))
		if err != nil {
			s.failRequest(w, r, err, RouteProfile)
			return
		}

		open := openWorkOrders(orders)
		s.renderDashboard(w, r, dashboardView{
			Heading: "My vineyards",
			Stats: []stat{
				{Label: "Sites", Value: len(sites), Path: RouteSites},
				{Label: "Open work orders", Value: len(open), Path: RouteWorkOrders},
			},
			Sites:      sites,
			WorkOrders: open,
		})
	}
}

func (s *Server) SiteManagerDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user := currentUser(r)

		sites, err := api(r).Sites.List(ctx, resources.SiteFilter{ManagerID: user.ID})
		if err != nil {
			s.failRequest(w, r, err, RouteProfile)
			return
		}
		orders, err := api(r).WorkOrders.List(ctx, resources.WorkOrderFilter{Status: resources.WorkOrderPending})
		if err != nil {
			s.failRequest(w, r, err, RouteProfile)
			return
		}
		tasks, err := api(r).Tasks.List(ctx, resources.TaskFilter{})
		if err != nil {
			s.failRequest(w, r, err, RouteProfile)
			return
		}

		open := openTasks(tasks)
		s.renderDashboard(w, r, dashboardView{
			Heading: "Site management",
			Stats: []stat{
				{Label: "Managed sites", Value: len(sites), Path: RouteSites},
				{Label: "Pending work orders", Value: len(orders), Path: RouteWorkOrders},
				{Label: "Open tasks", Value: len(open), Path: RouteTasks},
			},
			Sites:      sites,
			WorkOrders: orders,
			Tasks:      open,
		})
	}
}

func (s *Server) WorkerDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		tasks, err := api(r).Tasks.List(r.Context(), taskFilterFor(user))
		if err != nil {
			s.failRequest(w, r, err, RouteProfile)
			return
		}

		open := openTasks(tasks)
		s.renderDashboard(w, r, dashboardView{
			Heading: "My tasks",
			Stats: []stat{
				{Label: "Open tasks", Value: len(open), Path: RouteTasks},
				{Label: "Completed", Value: len(tasks) - len(open), Path: RouteTasks},
			},
			Tasks: open,
		})
	}
}

func (s *Server) ServiceCompanyDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		orders, err := api(r).WorkOrders.List(r.Context(), workOrderFilterFor(user))
		if err != nil {
			s.failRequest(w, r, err, RouteProfile)
			return
		}

		open := openWorkOrders(orders)
		s.renderDashboard(w, r, dashboardView{
			Heading: "Contracted work",
			Stats: []stat{
				{Label: "Assigned work orders", Value: len(orders), Path: RouteWorkOrders},
				{Label: "Open", Value: len(open), Path: RouteWorkOrders},
			},
			WorkOrders: open,
		})
	}
}

