package resources

import (
	"context"
)

const pathBlock = "/block"

// Block is a planted section of a site
type Block struct {
	ID           string  `json:"_id,omitempty"`
	SiteID       string  `json:"siteId"`
	Name         string  `json:"name"`
	Variety      string  `json:"variety,omitempty"`
	RowCount     int     `json:"rowCount,omitempty"`
	VineCount    int     `json:"vineCount,omitempty"`
	AreaHectares float64 `json:"areaHectares,omitempty"`
	PlantedYear  int     `json:"plantedYear,omitempty"`
}

type Blocks struct {
	r Requester
}

func (b *Blocks) List(ctx context.Context, siteID string) ([]Block, error) {
	return decodeMeta[[]Block](b.r.Get(ctx, pathBlock, params("siteId", siteID)))
}

func (b *Blocks) Get(ctx context.Context, id string) (Block, error) {
	return decodeMeta[Block](b.r.Get(ctx, idPath(pathBlock, id), nil))
}

func (b *Blocks) Create(ctx context.Context, block Block) (Block, error) {
	return decodeMeta[Block](b.r.Post(ctx, pathBlock, block))
}

func (b *Blocks) Update(ctx context.Context, id string, block Block) (Block, error) {
	return decodeMeta[Block](b.r.Patch(ctx, idPath(pathBlock, id), block))
}

func (b *Blocks) Delete(ctx context.Context, id string) error {
	_, err := b.r.Delete(ctx, idPath(pathBlock, id), nil)
	return err
}
