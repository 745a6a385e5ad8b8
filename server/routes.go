package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/vineyard-dashboard/users"
)

var (
	rolesAny        []users.Role
	rolesAdmin      = []users.Role{users.RoleAdmin}
	rolesSiteRead   = []users.Role{users.RoleAdmin, users.RoleSiteManager, users.RoleCustomer}
	rolesSiteWrite  = []users.Role{users.RoleAdmin, users.RoleCustomer}
	rolesBlocks     = []users.Role{users.RoleAdmin, users.RoleSiteManager}
	rolesOrderRead  = []users.Role{users.RoleAdmin, users.RoleSiteManager, users.RoleCustomer, users.RoleServiceCompany}
	rolesOrderWrite = []users.Role{users.RoleAdmin, users.RoleSiteManager, users.RoleCustomer}
	rolesTasks      = []users.Role{users.RoleAdmin, users.RoleSiteManager, users.RoleWorker}
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET /{$}", s.public(s.IndexHandler()))

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteLogin, s.public(s.LoginPageHandler()))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, s.public(s.LoginRateLimitMiddleware(s.LoginSubmissionHandler())))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, s.public(s.LogoutHandler()))
	s.RegisterRouteHandler("GET "+RouteSignup, s.public(s.SignupPageHandler()))
	s.RegisterRouteHandler("POST "+RouteAuthSignup, s.public(s.SignupSubmissionHandler()))

	// Dashboards
	s.RegisterRouteHandler("GET "+RouteAdminDashboard, s.page(s.AdminDashboardHandler(), users.RoleAdmin))
	s.RegisterRouteHandler("GET "+RouteCustomerDashboard, s.page(s.CustomerDashboardHandler(), users.RoleCustomer, users.RoleAdmin))
	s.RegisterRouteHandler("GET "+RouteSiteManagerDashboard, s.page(s.SiteManagerDashboardHandler(), users.RoleSiteManager, users.RoleAdmin))
	s.RegisterRouteHandler("GET "+RouteWorkerDashboard, s.page(s.WorkerDashboardHandler(), users.RoleWorker, users.RoleAdmin))
	s.RegisterRouteHandler("GET "+RouteServiceCompanyDashboard, s.page(s.ServiceCompanyDashboardHandler(), users.RoleServiceCompany, users.RoleAdmin))

	// Sites
	s.RegisterRouteHandler("GET "+RouteSites, s.page(s.SitesListHandler(), rolesSiteRead...))
	s.RegisterRouteHandler("GET "+RouteSites+suffixNew, s.page(s.SiteNewHandler(), rolesSiteWrite...))
	s.RegisterRouteHandler("POST "+RouteSites, s.page(s.SiteCreateHandler(), rolesSiteWrite...))
	s.RegisterRouteHandler("GET "+RouteSites+suffixID, s.page(s.SiteDetailHandler(), rolesSiteRead...))
	s.RegisterRouteHandler("GET "+RouteSites+suffixEdit, s.page(s.SiteEditHandler(), rolesSiteWrite...))
	s.RegisterRouteHandler("POST "+RouteSites+suffixID, s.page(s.SiteUpdateHandler(), rolesSiteWrite...))
	s.RegisterRouteHandler("POST "+RouteSites+suffixDelete, s.page(s.SiteDeleteHandler(), rolesSiteWrite...))
	s.RegisterRouteHandler("POST "+RouteSites+suffixImage, s.page(s.SiteImageHandler(), rolesSiteWrite...))

	// Blocks
	s.RegisterRouteHandler("GET "+RouteBlocks, s.page(s.BlocksListHandler(), rolesBlocks...))
	s.RegisterRouteHandler("GET "+RouteBlocks+suffixNew, s.page(s.BlockNewHandler(), rolesBlocks...))
	s.RegisterRouteHandler("POST "+RouteBlocks, s.page(s.BlockCreateHandler(), rolesBlocks...))
	s.RegisterRouteHandler("GET "+RouteBlocks+suffixID, s.page(s.BlockDetailHandler(), rolesBlocks...))
	s.RegisterRouteHandler("GET "+RouteBlocks+suffixEdit, s.page(s.BlockEditHandler(), rolesBlocks...))
	s.RegisterRouteHandler("POST "+RouteBlocks+suffixID, s.page(s.BlockUpdateHandler(), rolesBlocks...))
	s.RegisterRouteHandler("POST "+RouteBlocks+suffixDelete, s.page(s.BlockDeleteHandler(), rolesBlocks...))

	// Work orders
	s.RegisterRouteHandler("GET "+RouteWorkOrders, s.page(s.WorkOrdersListHandler(), rolesOrderRead...))
	s.RegisterRouteHandler("GET "+RouteWorkOrders+suffixNew, s.page(s.WorkOrderNewHandler(), rolesOrderWrite...))
	s.RegisterRouteHandler("POST "+RouteWorkOrders, s.page(s.WorkOrderCreateHandler(), rolesOrderWrite...))
	s.RegisterRouteHandler("GET "+RouteWorkOrders+suffixID, s.page(s.WorkOrderDetailHandler(), rolesOrderRead...))
	s.RegisterRouteHandler("GET "+RouteWorkOrders+suffixEdit, s.page(s.WorkOrderEditHandler(), rolesOrderWrite...))
	s.RegisterRouteHandler("POST "+RouteWorkOrders+suffixID, s.page(s.WorkOrderUpdateHandler(), rolesOrderWrite...))
	s.RegisterRouteHandler("POST "+RouteWorkOrders+suffixDelete, s.page(s.WorkOrderDeleteHandler(), rolesOrderWrite...))

	// Worker tasks
	s.RegisterRouteHandler("GET "+RouteTasks, s.page(s.TasksListHandler(), rolesTasks...))
	s.RegisterRouteHandler("POST "+RouteTasks+suffixStatus, s.page(s.TaskStatusHandler(), rolesTasks...))

	// Accounts
	s.RegisterRouteHandler("GET "+RouteAccounts, s.page(s.AccountsListHandler(), rolesAdmin...))
	s.RegisterRouteHandler("GET "+RouteAccounts+suffixNew, s.page(s.AccountNewHandler(), rolesAdmin...))
	s.RegisterRouteHandler("POST "+RouteAccounts, s.page(s.AccountCreateHandler(), rolesAdmin...))
	s.RegisterRouteHandler("GET "+RouteAccounts+suffixID, s.page(s.AccountDetailHandler(), rolesAdmin...))
	s.RegisterRouteHandler("GET "+RouteAccounts+suffixEdit, s.page(s.AccountEditHandler(), rolesAdmin...))
	s.RegisterRouteHandler("POST "+RouteAccounts+suffixID, s.page(s.AccountUpdateHandler(), rolesAdmin...))
	s.RegisterRouteHandler("POST "+RouteAccounts+suffixDelete, s.page(s.AccountDeleteHandler(), rolesAdmin...))

	// Profile and settings
	s.RegisterRouteHandler("GET "+RouteProfile, s.page(s.ProfileHandler(), rolesAny...))
	s.RegisterRouteHandler("POST "+RouteProfile, s.page(s.ProfileUpdateHandler(), rolesAny...))
	s.RegisterRouteHandler("GET "+RouteSettings, s.page(s.SettingsHandler(), rolesAdmin...))
	s.RegisterRouteHandler("POST "+RouteSettings, s.page(s.SettingsUpdateHandler(), rolesAdmin...))

	// Operational
	s.RegisterRouteHandler("GET "+RouteHealthz, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))
	if s.collector != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, ChainMiddleware(s.collector.Handler().ServeHTTP, s.APIMiddleware()...))
	}

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
}

// public pages carry a session but no role guard
func (s *Server) public(handler http.HandlerFunc) http.HandlerFunc {
	return ChainMiddleware(handler, s.HTMLMiddleWare(s.SessionMiddleware)...)
}

// page guards handler to the allowed roles. No roles admits any logged in user.
func (s *Server) page(handler http.HandlerFunc, allowed ...users.Role) http.HandlerFunc {
	return ChainMiddleware(handler, s.HTMLMiddleWare(s.SessionMiddleware, s.RequireRoles(allowed...))...)
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		if !s.assets.serve(w, r, name) {
			logError(r.Method, r.URL.Path, "static asset not found")
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
		}
	}
}
