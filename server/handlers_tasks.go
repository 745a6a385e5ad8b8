package server

import (
	"net/http"

	"github.com/jrsteele09/vineyard-dashboard/forms"
	"github.com/jrsteele09/vineyard-dashboard/resources"
)

type tasksListView struct {
	Tasks    []resources.WorkerTask
	Statuses []resources.TaskStatus
}

func (s *Server) TasksListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		filter := taskFilterFor(user)
		filter.WorkOrderID = r.URL.Query().Get("workOrderId")

		tasks, err := api(r).Tasks.List(r.Context(), filter)
		if err != nil {
			s.failRequest(w, r, err, dashboardFor(user.Role))
			return
		}
		v := s.newView(r, "Tasks")
		v.Data = tasksListView{Tasks: tasks, Statuses: resources.TaskStatuses()}
		s.render(w, http.StatusOK, "tasks", v)
	}
}

// TaskStatusHandler records a worker's progress. The whole task is sent back with PUT.
func (s *Server) TaskStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		toasts := authFrom(r).Notifications()

		task, err := api(r).Tasks.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			s.failRequest(w, r, err, RouteTasks)
			return
		}
		if !canUpdateTask(user, task) {
			s.renderNotFound(w, r)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		var f forms.TaskForm
		if errs := forms.Bind(r.PostForm, &f); errs.Any() {
			for _, msg := range errs {
				toasts.Error(msg)
			}
			redirectSuccess(w, r, RouteTasks)
			return
		}

		updated := f.Apply(task, s.nowTime())
		if _, err := api(r).Tasks.Update(r.Context(), task.ID, updated); err != nil {
			s.failRequest(w, r, err, RouteTasks)
			return
		}
		toasts.Success("Task updated")
		redirectSuccess(w, r, RouteTasks)
	}
}
