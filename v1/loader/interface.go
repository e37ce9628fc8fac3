package loader

import (
	"context"
	"io"

	"github.com/Aleph-Alpha/docstore/v1/cosmos"
)

// Logger is the logging contract of the loader. *logger.LoggerClient
// satisfies it.
type Logger interface {
	DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// Source opens inputs by location. It is implemented by *Loader.
type Source interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	LoadDocuments(ctx context.Context, location string) ([]*cosmos.Document, error)
	LoadIndexPolicy(ctx context.Context, location string) (cosmos.IndexPolicy, error)
}

var _ Source = (*Loader)(nil)
