package datasource

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// URI schemes understood by Loader.
const (
	SchemeFile     = "file"
	SchemeS3       = "s3"
	SchemeGCS      = "gs"
	SchemeRegistry = "registry"
)

// Location is a parsed dataset URI.
type Location struct {
	Scheme string
	Bucket string    // s3, gs
	Key    string    // object key (s3, gs) or file path
	ID     uuid.UUID // registry
}

func (l Location) String() string {
	switch l.Scheme {
	case SchemeS3, SchemeGCS:
		return l.Scheme + "://" + l.Bucket + "/" + l.Key
	case SchemeRegistry:
		return SchemeRegistry + "://" + l.ID.String()
	default:
		return l.Key
	}
}

// ParseURI accepts a plain path, file://path, s3://bucket/key,
// gs://bucket/key or registry://<uuid>.
func ParseURI(raw string) (Location, error) {
	if raw == "" {
		return Location{}, fmt.Errorf("empty dataset location")
	}
	if !strings.Contains(raw, "://") {
		return Location{Scheme: SchemeFile, Key: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parse dataset URI %q: %w", raw, err)
	}
	switch u.Scheme {
	case SchemeFile:
		return Location{Scheme: SchemeFile, Key: u.Host + u.Path}, nil
	case SchemeS3, SchemeGCS:
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, fmt.Errorf("dataset URI %q needs a bucket and a key", raw)
		}
		return Location{Scheme: u.Scheme, Bucket: u.Host, Key: key}, nil
	case SchemeRegistry:
		id, err := uuid.Parse(u.Host)
		if err != nil {
			return Location{}, fmt.Errorf("dataset URI %q: invalid id: %w", raw, err)
		}
		return Location{Scheme: SchemeRegistry, ID: id}, nil
	default:
		return Location{}, fmt.Errorf("unsupported dataset scheme %q", u.Scheme)
	}
}
