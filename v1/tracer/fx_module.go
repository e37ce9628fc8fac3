package tracer

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/docstore/v1/logger"
)

// FXModule provides *Tracer and flushes it on stop. Requires a tracer.Config
// and a logger.Logger in the container.
var FXModule = fx.Module("tracer",
	fx.Provide(func(cfg Config, log logger.Logger) (*Tracer, error) {
		return NewClient(cfg, log)
	}),
	fx.Invoke(RegisterTracerLifecycle),
)

// RegisterTracerLifecycle shuts the provider down when the app stops.
func RegisterTracerLifecycle(lc fx.Lifecycle, t *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if t.logger != nil {
				t.logger.Info("[Tracer] shutting down", nil)
			}
			return t.Shutdown(ctx)
		},
	})
}
