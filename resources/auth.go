package resources

import (
	"context"

	"github.com/jrsteele09/vineyard-dashboard/apiclient"
	"github.com/jrsteele09/vineyard-dashboard/users"
)

const (
	pathLogin  = "/auth/login"
	pathSignup = "/auth/signup"
	pathAuth   = "/auth"
)

// LoginResult is the metaData of a successful login
type LoginResult struct {
	User         users.User `json:"user"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the account payload sent to /auth/signup and by admins creating accounts
type SignupRequest struct {
	users.User
	Password string `json:"password,omitempty"`
}

// Auth covers login and account records
type Auth struct {
	r Requester
}

// Login is quiet: the session layer shows its own success or failure toast.
// A 401 here is a credential failure, so it never triggers a token refresh.
func (a *Auth) Login(ctx context.Context, email, password string) (LoginResult, error) {
	return decodeMeta[LoginResult](a.r.Post(ctx, pathLogin, Credentials{Email: email, Password: password}, apiclient.Quiet(), apiclient.NoRefresh()))
}

func (a *Auth) Signup(ctx context.Context, req SignupRequest) (users.User, error) {
	return decodeMeta[users.User](a.r.Post(ctx, pathSignup, req))
}

func (a *Auth) ListAccounts(ctx context.Context, role users.Role) ([]users.User, error) {
	return decodeMeta[[]users.User](a.r.Get(ctx, pathAuth, params("role", string(role))))
}

func (a *Auth) GetAccount(ctx context.Context, id string) (users.User, error) {
	return decodeMeta[users.User](a.r.Get(ctx, idPath(pathAuth, id), nil))
}

func (a *Auth) UpdateAccount(ctx context.Context, id string, patch users.User) (users.User, error) {
	return decodeMeta[users.User](a.r.Patch(ctx, idPath(pathAuth, id), patch))
}

func (a *Auth) DeleteAccount(ctx context.Context, id string) error {
	_, err := a.r.Delete(ctx, idPath(pathAuth, id), nil)
	return err
}
