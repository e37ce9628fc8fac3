package cosmos

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/docstore/v1/logger"
	"github.com/Aleph-Alpha/docstore/v1/observability"
	"github.com/Aleph-Alpha/docstore/v1/tracer"
)

// FXModule provides *Client and the DocumentStore interface and closes the
// client when the application stops.
//
//	app := fx.New(
//	    logger.FXModule,
//	    metrics.FXModule,
//	    cosmos.FXModule,
//	    fx.Provide(func() (cosmos.Config, error) { return cosmos.LoadConfig("") }),
//	)
//
// A Config is required. A Logger, an observability.Observer, a Tracer and a
// Transport are picked up when present in the container, as are the
// logger.Logger and *tracer.Tracer of logger.FXModule and tracer.FXModule.
var FXModule = fx.Module("cosmos",
	fx.Provide(
		NewClientWithDI,
		func(c *Client) DocumentStore { return c },
	),
	fx.Invoke(RegisterCosmosLifecycle),
)

// CosmosParams groups the dependencies of NewClientWithDI.
type CosmosParams struct {
	fx.In

	Config    Config
	Logger    Logger                 `optional:"true"`
	AppLogger logger.Logger          `optional:"true"`
	Observer  observability.Observer `optional:"true"`
	Tracer    Tracer                 `optional:"true"`
	AppTracer *tracer.Tracer         `optional:"true"`
	Transport Transport              `optional:"true"`
}

// NewClientWithDI opens a client from injected dependencies.
func NewClientWithDI(p CosmosParams) (*Client, error) {
	var opts []Option
	switch {
	case p.Logger != nil:
		opts = append(opts, WithLogger(p.Logger))
	case p.AppLogger != nil:
		opts = append(opts, WithLogger(p.AppLogger))
	}
	if p.Observer != nil {
		opts = append(opts, WithObserver(p.Observer))
	}
	switch {
	case p.Tracer != nil:
		opts = append(opts, WithTracer(p.Tracer))
	case p.AppTracer != nil:
		opts = append(opts, WithTracer(p.AppTracer))
	}
	if p.Transport != nil {
		opts = append(opts, WithTransport(p.Transport))
	}
	return Open(context.Background(), p.Config, opts...)
}

// RegisterCosmosLifecycle closes the client on application stop.
func RegisterCosmosLifecycle(lc fx.Lifecycle, c *Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return c.Close()
		},
	})
}
