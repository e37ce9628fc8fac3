package loader

import (
	"fmt"
	"strings"
)

// Scheme identifies where a location lives.
type Scheme string

const (
	SchemeFile Scheme = "file"
	SchemeS3   Scheme = "s3"
)

// Location is a parsed input location.
type Location struct {
	Scheme Scheme
	// Path is set for SchemeFile.
	Path string
	// Bucket and Key are set for SchemeS3.
	Bucket string
	Key    string
}

// ParseLocation accepts "s3://bucket/key", "file:///abs/path" and plain paths.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("%w: empty", ErrInvalidLocation)
	}

	scheme, rest, found := strings.Cut(raw, "://")
	if !found {
		return Location{Scheme: SchemeFile, Path: raw}, nil
	}

	switch Scheme(strings.ToLower(scheme)) {
	case SchemeFile:
		if rest == "" {
			return Location{}, fmt.Errorf("%w: %q has no path", ErrInvalidLocation, raw)
		}
		return Location{Scheme: SchemeFile, Path: rest}, nil
	case SchemeS3:
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" || key == "" {
			return Location{}, fmt.Errorf("%w: %q must look like s3://bucket/key", ErrInvalidLocation, raw)
		}
		return Location{Scheme: SchemeS3, Bucket: bucket, Key: key}, nil
	default:
		return Location{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocation, scheme)
	}
}

func (l Location) String() string {
	if l.Scheme == SchemeS3 {
		return "s3://" + l.Bucket + "/" + l.Key
	}
	return l.Path
}
