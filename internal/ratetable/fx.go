package ratetable

import (
	"github.com/aquilabs/waterworks/internal/ratetable/repository"
	"github.com/aquilabs/waterworks/internal/ratetable/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ratetable.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
