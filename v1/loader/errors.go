package loader

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/minio/minio-go/v7"
)

var (
	// ErrNotFound is returned when the file or object does not exist.
	ErrNotFound = errors.New("input not found")

	// ErrInvalidLocation is returned for malformed locations and unknown schemes.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrObjectStoreDisabled is returned for "s3://" locations when no object
	// store endpoint is configured.
	ErrObjectStoreDisabled = errors.New("object store not configured")

	// ErrTooLarge is returned when an input exceeds Config.MaxObjectSize.
	ErrTooLarge = errors.New("input too large")
)

// translateError maps local and object store failures onto the package
// sentinels, keeping the original error in the chain.
func translateError(loc Location, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s: %w", ErrNotFound, loc, err)
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return fmt.Errorf("%w: %s: %w", ErrNotFound, loc, err)
	}
	return fmt.Errorf("loader: %s: %w", loc, err)
}
