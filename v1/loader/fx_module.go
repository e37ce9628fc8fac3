package loader

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/docstore/v1/logger"
	"github.com/Aleph-Alpha/docstore/v1/observability"
)

// FXModule provides *Loader and Source from a supplied Config.
var FXModule = fx.Module("loader",
	fx.Provide(
		NewLoaderWithDI,
		func(l *Loader) Source { return l },
	),
)

// LoaderParams groups the dependencies of NewLoaderWithDI.
type LoaderParams struct {
	fx.In

	Config   Config
	Logger   logger.Logger          `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewLoaderWithDI builds a Loader from injected dependencies.
func NewLoaderWithDI(p LoaderParams) (*Loader, error) {
	var opts []Option
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger))
	}
	if p.Observer != nil {
		opts = append(opts, WithObserver(p.Observer))
	}
	return New(p.Config, opts...)
}
