// Package resources maps each backend REST resource onto typed calls of the authenticated client.
// Every method is one method+path pair; validation is left to the backend.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/jrsteele09/vineyard-dashboard/apiclient"
)

// Requester is the subset of apiclient.Client the resources need
type Requester interface {
	Get(ctx context.Context, path string, params url.Values, opts ...apiclient.CallOption) (json.RawMessage, error)
	Post(ctx context.Context, path string, body any, opts ...apiclient.CallOption) (json.RawMessage, error)
	Patch(ctx context.Context, path string, body any, opts ...apiclient.CallOption) (json.RawMessage, error)
	Put(ctx context.Context, path string, body any, opts ...apiclient.CallOption) (json.RawMessage, error)
	Delete(ctx context.Context, path string, params url.Values, opts ...apiclient.CallOption) (json.RawMessage, error)
	Upload(ctx context.Context, path string, fields map[string]string, files []apiclient.FormFile, opts ...apiclient.CallOption) (json.RawMessage, error)
}

var _ Requester = (*apiclient.Client)(nil)

// API groups every resource module behind one value
type API struct {
	Auth       *Auth
	Sites      *Sites
	Blocks     *Blocks
	WorkOrders *WorkOrders
	Tasks      *Tasks
	Images     *Images
	Config     *SystemConfigs
}

func New(r Requester) *API {
	return &API{
		Auth:       &Auth{r: r},
		Sites:      &Sites{r: r},
		Blocks:     &Blocks{r: r},
		WorkOrders: &WorkOrders{r: r},
		Tasks:      &Tasks{r: r},
		Images:     &Images{r: r},
		Config:     &SystemConfigs{r: r},
	}
}

// Envelope is the backend's response wrapper
type Envelope[T any] struct {
	Message  string `json:"message,omitempty"`
	MetaData T      `json:"metaData"`
}

func decodeMeta[T any](raw json.RawMessage, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	env, err := apiclient.Decode[Envelope[T]](raw)
	if err != nil {
		return zero, err
	}
	return env.MetaData, nil
}

func idPath(base, id string) string {
	return fmt.Sprintf("%s/%s", base, url.PathEscape(id))
}

// params builds query values, skipping empty filters
func params(kv ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			v.Set(kv[i], kv[i+1])
		}
	}
	if len(v) == 0 {
		return nil
	}
	return v
}
