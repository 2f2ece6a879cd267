package settlement

import (
	"github.com/aquilabs/waterworks/internal/settlement/repository"
	"github.com/aquilabs/waterworks/internal/settlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settlement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
