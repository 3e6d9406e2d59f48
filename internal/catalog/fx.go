package catalog

import (
	"github.com/rareminds/skillpassport-billing/internal/cache"
	"github.com/rareminds/skillpassport-billing/internal/catalog/repository"
	"github.com/rareminds/skillpassport-billing/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(cache.NewCatalogCache),
	fx.Provide(service.ProvideConfig),
	fx.Provide(service.New),
)
