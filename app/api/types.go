package api

import (
	"context"

	"github.com/lysyi3m/page-comb/app/database"
	"github.com/lysyi3m/page-comb/app/registry"
	"github.com/lysyi3m/page-comb/app/render"
)

type RendererInterface interface {
	Render(ctx context.Context, req render.Request) (*render.Result, error)
}

var _ RendererInterface = (*render.Pipeline)(nil)

type RegistryInterface interface {
	State() *registry.State
	Refreshing() bool
	Refresh(ctx context.Context) error
}

var _ RegistryInterface = (*registry.Registry)(nil)

type Handler struct {
	renderer RendererInterface
	registry RegistryInterface
	history  database.HistoryRepository
	version  string
}

type catalogEntry struct {
	Name  string `json:"name"`
	Link  string `json:"link"`
	Local bool   `json:"local"`
}
