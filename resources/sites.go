package resources

import (
	"context"
	"time"
)

const pathSite = "/site"

type Site struct {
	ID           string    `json:"_id,omitempty"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	Region       string    `json:"region,omitempty"`
	CustomerID   string    `json:"customerId,omitempty"`
	ManagerID    string    `json:"siteManagerId,omitempty"`
	AreaHectares float64   `json:"areaHectares,omitempty"`
	Varieties    []string  `json:"varieties,omitempty"`
	ImageURL     string    `json:"image,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
}

type SiteFilter struct {
	CustomerID string
	ManagerID  string
}

type Sites struct {
	r Requester
}

func (s *Sites) List(ctx context.Context, f SiteFilter) ([]Site, error) {
	return decodeMeta[[]Site](s.r.Get(ctx, pathSite, params("customerId", f.CustomerID, "siteManagerId", f.ManagerID)))
}

func (s *Sites) Get(ctx context.Context, id string) (Site, error) {
	return decodeMeta[Site](s.r.Get(ctx, idPath(pathSite, id), nil))
}

func (s *Sites) Create(ctx context.Context, site Site) (Site, error) {
	return decodeMeta[Site](s.r.Post(ctx, pathSite, site))
}

func (s *Sites) Update(ctx context.Context, id string, site Site) (Site, error) {
	return decodeMeta[Site](s.r.Patch(ctx, idPath(pathSite, id), site))
}

func (s *Sites) Delete(ctx context.Context, id string) error {
	_, err := s.r.Delete(ctx, idPath(pathSite, id), nil)
	return err
}
