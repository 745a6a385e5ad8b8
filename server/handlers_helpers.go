package server

import (
	"net/http"

	apperrors "github.com/jrsteele09/vineyard-dashboard/internal/errors"
	"github.com/jrsteele09/vineyard-dashboard/resources"
	"github.com/jrsteele09/vineyard-dashboard/users"
	"github.com/rs/zerolog/log"
)

// failRequest turns a resource error into a response. The API client has already queued a toast.
func (s *Server) failRequest(w http.ResponseWriter, r *http.Request, err error, back string) {
	switch {
	case apperrors.Is(err, apperrors.ErrRefreshFailed):
		redirectSuccess(w, r, authFrom(r).Logout())
	case apperrors.Is(err, apperrors.ErrNotFound):
		s.renderNotFound(w, r)
	default:
		logError(r.Method, r.URL.Path, err.Error())
		redirectSuccess(w, r, back)
	}
}

// fetchList runs a list call, failing the request on error
func fetchList[T any](s *Server, w http.ResponseWriter, r *http.Request, back string, call func() ([]T, error)) ([]T, bool) {
	list, err := call()
	if err != nil {
		s.failRequest(w, r, err, back)
		return nil, false
	}
	return list, true
}

func api(r *http.Request) *resources.API {
	return authFrom(r).API()
}

// Role scoped list filters. Admins and site managers see everything.

func siteFilterFor(u *users.User) resources.SiteFilter {
	switch u.Role {
	case users.RoleCustomer:
		return resources.SiteFilter{CustomerID: u.ID}
	default:
		return resources.SiteFilter{}
	}
}

func workOrderFilterFor(u *users.User) resources.WorkOrderFilter {
	switch u.Role {
	case users.RoleCustomer:
		return resources.WorkOrderFilter{CustomerID: u.ID}
	case users.RoleServiceCompany:
		return resources.WorkOrderFilter{ServiceCompanyID: u.ID}
	default:
		return resources.WorkOrderFilter{}
	}
}

func taskFilterFor(u *users.User) resources.TaskFilter {
	if u.Role == users.RoleWorker {
		return resources.TaskFilter{WorkerID: u.ID}
	}
	return resources.TaskFilter{}
}

func canSeeSite(u *users.User, site resources.Site) bool {
	return u.Role != users.RoleCustomer || site.CustomerID == u.ID
}

func canSeeWorkOrder(u *users.User, wo resources.WorkOrder) bool {
	switch u.Role {
	case users.RoleCustomer:
		return wo.CustomerID == u.ID
	case users.RoleServiceCompany:
		return wo.ServiceCompanyID == u.ID
	}
	return true
}

func canUpdateTask(u *users.User, task resources.WorkerTask) bool {
	return u.Role != users.RoleWorker || task.WorkerID == u.ID
}

func canEdit(u *users.User, roles []users.Role) bool {
	return u.Role.In(roles...)
}

// loadSites is the picker data for forms referencing a site
func loadSites(r *http.Request) []resources.Site {
	sites, err := api(r).Sites.List(r.Context(), siteFilterFor(currentUser(r)))
	if err != nil {
		log.Debug().Err(err).Msg("site picker unavailable")
		return nil
	}
	return sites
}
