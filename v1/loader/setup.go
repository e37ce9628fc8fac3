package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Aleph-Alpha/docstore/v1/cosmos"
	"github.com/Aleph-Alpha/docstore/v1/observability"
)

// Loader opens local files and bucket objects.
type Loader struct {
	cfg      Config
	objects  *minio.Client
	logger   Logger
	observer observability.Observer
}

// Option customises New.
type Option func(*Loader)

// WithLogger attaches a logger.
func WithLogger(l Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// WithObserver reports every Open to o.
func WithObserver(o observability.Observer) Option {
	return func(ld *Loader) { ld.observer = o }
}

// New builds a Loader. The object store client is created only when
// cfg.ObjectStore.Endpoint is set; no request is made until the first Open.
func New(cfg Config, opts ...Option) (*Loader, error) {
	if cfg.MaxObjectSize <= 0 {
		cfg.MaxObjectSize = DefaultMaxObjectSize
	}
	ld := &Loader{cfg: cfg}
	for _, opt := range opts {
		opt(ld)
	}

	if cfg.ObjectStore.Endpoint != "" {
		client, err := minio.New(cfg.ObjectStore.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.ObjectStore.AccessKeyID, cfg.ObjectStore.SecretAccessKey, ""),
			Secure: cfg.ObjectStore.UseSSL,
			Region: cfg.ObjectStore.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("loader: object store client: %w", err)
		}
		ld.objects = client
	}
	return ld, nil
}

// Open returns a reader over the input at location. The caller closes it.
func (ld *Loader) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	start := time.Now()
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}

	var (
		rc   io.ReadCloser
		size int64
	)
	switch loc.Scheme {
	case SchemeS3:
		rc, size, err = ld.openObject(ctx, loc)
	default:
		rc, size, err = ld.openFile(loc)
	}
	if err == nil && size > ld.cfg.MaxObjectSize {
		_ = rc.Close()
		rc = nil
		err = fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, loc, size, ld.cfg.MaxObjectSize)
	}

	ld.observe(loc, start, size, err)
	if err != nil {
		ld.logWarn(ctx, "[Loader] failed to open input", err, map[string]interface{}{"location": loc.String()})
		return nil, err
	}
	ld.logDebug(ctx, "[Loader] opened input", nil, map[string]interface{}{
		"location": loc.String(),
		"size":     size,
	})
	return rc, nil
}

func (ld *Loader) openFile(loc Location) (io.ReadCloser, int64, error) {
	f, err := os.Open(filepath.Clean(loc.Path))
	if err != nil {
		return nil, 0, translateError(loc, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, translateError(loc, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%w: %s is a directory", ErrInvalidLocation, loc)
	}
	return f, info.Size(), nil
}

func (ld *Loader) openObject(ctx context.Context, loc Location) (io.ReadCloser, int64, error) {
	if ld.objects == nil {
		return nil, 0, fmt.Errorf("%w: cannot open %s", ErrObjectStoreDisabled, loc)
	}
	info, err := ld.objects.StatObject(ctx, loc.Bucket, loc.Key, minio.StatObjectOptions{})
	if err != nil {
		return nil, 0, translateError(loc, err)
	}
	if info.Size > ld.cfg.MaxObjectSize {
		return nil, info.Size, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, loc, info.Size, ld.cfg.MaxObjectSize)
	}
	obj, err := ld.objects.GetObject(ctx, loc.Bucket, loc.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, translateError(loc, err)
	}
	return obj, info.Size, nil
}

// LoadDocuments reads a JSON array of objects from location.
func (ld *Loader) LoadDocuments(ctx context.Context, location string) ([]*cosmos.Document, error) {
	rc, err := ld.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return cosmos.DecodeDocuments(rc)
}

// LoadIndexPolicy reads an indexing policy document from location.
func (ld *Loader) LoadIndexPolicy(ctx context.Context, location string) (cosmos.IndexPolicy, error) {
	rc, err := ld.Open(ctx, location)
	if err != nil {
		return cosmos.IndexPolicy{}, err
	}
	defer rc.Close()
	return cosmos.DecodeIndexPolicy(rc)
}

func (ld *Loader) observe(loc Location, start time.Time, size int64, err error) {
	if ld.observer == nil {
		return
	}
	resource, sub := filepath.Dir(loc.Path), filepath.Base(loc.Path)
	if loc.Scheme == SchemeS3 {
		resource, sub = loc.Bucket, loc.Key
	}
	ld.observer.ObserveOperation(observability.OperationContext{
		Component:   "loader",
		Operation:   "open",
		Resource:    resource,
		SubResource: sub,
		Duration:    time.Since(start),
		Error:       err,
		Size:        size,
		Metadata:    map[string]interface{}{"scheme": string(loc.Scheme)},
	})
}

func (ld *Loader) logDebug(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	if ld.logger != nil {
		ld.logger.DebugWithContext(ctx, msg, err, fields...)
	}
}

func (ld *Loader) logWarn(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	if ld.logger != nil {
		ld.logger.WarnWithContext(ctx, msg, err, fields...)
	}
}
