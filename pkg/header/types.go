// Package header provides the Kubernetes style kind/apiVersion/metadata
// envelope shared by fact snapshots, pool listings and manifests.
package header

import (
	"fmt"
	"strings"
	"time"
)

const (
	APIDomain  = "rhsm.redhat.com"
	APIVersion = "v1"

	// TimestampKey records when the document was produced.
	TimestampKey = "timestamp"
)

// Header identifies a serialized document.
type Header struct {
	Kind       string            `json:"kind,omitempty" yaml:"kind,omitempty"`
	APIVersion string            `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Option configures a Header.
type Option func(*Header)

// WithMetadata adds a metadata entry.
func WithMetadata(key, value string) Option {
	return func(h *Header) {
		if h.Metadata == nil {
			h.Metadata = make(map[string]string)
		}
		h.Metadata[key] = value
	}
}

// WithTimestamp sets the production time instead of now.
func WithTimestamp(t time.Time) Option {
	return WithMetadata(TimestampKey, t.UTC().Format(time.RFC3339))
}

// New returns a header of kind stamped with the current time, then applies
// opts.
func New(kind string, opts ...Option) *Header {
	h := &Header{}
	h.Set(kind)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Set assigns kind, derives "<kind>.rhsm.redhat.com/v1" and resets the
// metadata to a fresh timestamp.
func (h *Header) Set(kind string) {
	h.Kind = kind
	h.APIVersion = VersionFor(kind)
	h.Metadata = map[string]string{
		TimestampKey: time.Now().UTC().Format(time.RFC3339),
	}
}

// VersionFor returns the apiVersion for kind.
func VersionFor(kind string) string {
	return fmt.Sprintf("%s.%s/%s", strings.ToLower(kind), APIDomain, APIVersion)
}

// Check reports an error unless the header is of kind and a compatible
// apiVersion. An empty apiVersion is accepted for hand written documents.
func (h *Header) Check(kind string) error {
	if h.Kind != kind {
		return fmt.Errorf("unexpected kind %q, expected %q", h.Kind, kind)
	}
	if h.APIVersion != "" && h.APIVersion != VersionFor(kind) {
		return fmt.Errorf("unsupported apiVersion %q for %s, expected %q", h.APIVersion, kind, VersionFor(kind))
	}
	return nil
}
