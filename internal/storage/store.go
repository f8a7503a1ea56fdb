package storage

import (
	"context"
	"fmt"
	"strings"
)

// Object is one blob to put into a store
type Object struct {
	Key         string
	Body        []byte
	ContentType string
	Metadata    map[string]string
}

// ObjectStore puts blobs under keys. A put to an existing key overwrites it.
type ObjectStore interface {
	Put(ctx context.Context, obj Object) error
	// Location describes where objects land, for logging
	Location() string
}

// Sink names accepted by New
const (
	SinkS3    = "s3"
	SinkLocal = "local"
)

// ParseSink normalizes a sink name
func ParseSink(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", SinkS3:
		return SinkS3, nil
	case SinkLocal, "fs", "file":
		return SinkLocal, nil
	default:
		return "", fmt.Errorf("unsupported sink %q (use: s3, local)", s)
	}
}
