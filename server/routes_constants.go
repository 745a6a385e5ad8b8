package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex = "/"

	// Auth Routes
	RouteLogin       = "/login"
	RouteAuthLogin   = "/auth/login"
	RouteAuthLogout  = "/auth/logout"
	RouteSignup      = "/signup"
	RouteAuthSignup  = "/auth/signup"
	RouteProfile     = "/profile"
	RouteSettings    = "/settings"
	RouteHealthz     = "/healthz"
	RouteMetrics     = "/metrics"
	RouteStaticCSS   = "/css/{file}"

	// Dashboards
	RouteAdminDashboard          = "/admin/dashboard"
	RouteCustomerDashboard       = "/customer/dashboard"
	RouteSiteManagerDashboard    = "/site-manager/dashboard"
	RouteWorkerDashboard         = "/worker/dashboard"
	RouteServiceCompanyDashboard = "/service-company/dashboard"

	// Resources
	RouteSites      = "/sites"
	RouteBlocks     = "/blocks"
	RouteWorkOrders = "/work-orders"
	RouteTasks      = "/tasks"
	RouteAccounts   = "/accounts"
)

const (
	suffixNew    = "/new"
	suffixID     = "/{id}"
	suffixEdit   = "/{id}/edit"
	suffixDelete = "/{id}/delete"
	suffixImage  = "/{id}/image"
	suffixStatus = "/{id}/status"
)
