package server

import (
	"net/http"

	"github.com/jrsteele09/vineyard-dashboard/forms"
	"github.com/jrsteele09/vineyard-dashboard/users"
)

type accountsListView struct {
	Accounts []users.User
	Roles    []users.Role
	Role     string
}

type accountFormView struct {
	ID     string
	Action string
	Roles  []users.Role
}

func (s *Server) AccountsListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		accounts, err := api(r).Auth.ListAccounts(r.Context(), users.Role(role))
		if err != nil {
			s.failRequest(w, r, err, RouteAdminDashboard)
			return
		}
		v := s.newView(r, "Accounts")
		v.Data = accountsListView{Accounts: accounts, Roles: users.All(), Role: role}
		s.render(w, http.StatusOK, "accounts", v)
	}
}

func (s *Server) AccountDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := api(r).Auth.GetAccount(r.Context(), r.PathValue("id"))
		if err != nil {
			s.failRequest(w, r, err, RouteAccounts)
			return
		}
		v := s.newView(r, account.DisplayName())
		v.Data = &account
		s.render(w, http.StatusOK, "account", v)
	}
}

func (s *Server) AccountNewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderAccountForm(w, r, http.StatusOK, "", forms.AccountForm{Role: string(users.RoleWorker)}, nil)
	}
}

func (s *Server) AccountEditHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := api(r).Auth.GetAccount(r.Context(), r.PathValue("id"))
		if err != nil {
			s.failRequest(w, r, err, RouteAccounts)
			return
		}
		s.renderAccountForm(w, r, http.StatusOK, account.ID, forms.AccountFormFrom(account), nil)
	}
}

// AccountCreateHandler creates an account through the backend signup endpoint
func (s *Server) AccountCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := s.bindAccountForm(w, r, "")
		if !ok {
			return
		}
		if f.Password == "" {
			s.renderAccountForm(w, r, http.StatusUnprocessableEntity, "", f, forms.FieldErrors{"password": "This field is required"})
			return
		}
		account, err := api(r).Auth.Signup(r.Context(), f.SignupRequest())
		if err != nil {
			s.failRequest(w, r, err, RouteAccounts+suffixNew)
			return
		}
		authFrom(r).Notifications().Success("Account created")
		redirectSuccess(w, r, RouteAccounts+"/"+account.ID)
	}
}

func (s *Server) AccountUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		f, ok := s.bindAccountForm(w, r, id)
		if !ok {
			return
		}
		if _, err := api(r).Auth.UpdateAccount(r.Context(), id, f.User()); err != nil {
			s.failRequest(w, r, err, RouteAccounts+"/"+id)
			return
		}
		authFrom(r).Notifications().Success("Account updated")
		redirectSuccess(w, r, RouteAccounts+"/"+id)
	}
}

// AccountDeleteHandler refuses to delete the admin's own account
func (s *Server) AccountDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		toasts := authFrom(r).Notifications()
		if currentUser(r).ID == id {
			toasts.Error("You cannot delete your own account")
			redirectSuccess(w, r, RouteAccounts+"/"+id)
			return
		}
		if err := api(r).Auth.DeleteAccount(r.Context(), id); err != nil {
			s.failRequest(w, r, err, RouteAccounts+"/"+id)
			return
		}
		toasts.Success("Account deleted")
		redirectSuccess(w, r, RouteAccounts)
	}
}

func (s *Server) bindAccountForm(w http.ResponseWriter, r *http.Request, id string) (forms.AccountForm, bool) {
	var f forms.AccountForm
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return f, false
	}
	if errs := forms.Bind(r.PostForm, &f); errs.Any() {
		f.Password = ""
		s.renderAccountForm(w, r, http.StatusUnprocessableEntity, id, f, errs)
		return f, false
	}
	return f, true
}

func (s *Server) renderAccountForm(w http.ResponseWriter, r *http.Request, status int, id string, f forms.AccountForm, errs forms.FieldErrors) {
	title, action := "New account", RouteAccounts
	if id != "" {
		title, action = "Edit account", RouteAccounts+"/"+id
	}
	v := s.newView(r, title)
	v.Form = f
	v.Errors = errs
	v.Data = accountFormView{ID: id, Action: action, Roles: users.All()}
	s.render(w, status, "account_form", v)
}
