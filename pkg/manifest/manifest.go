// Package manifest reads desired pool state from a PoolList document:
//
//	kind: PoolList
//	apiVersion: poollist.rhsm.redhat.com/v1
//	pools:
//	  - id: 1a2b3c4d5e6f1234567890abcdef12345
//	    ensure: present
//	  - name: 1234abc
//	    ensure: absent
//	    serial: "1234567890123456789"
//
// Every entry is validated before anything runs. The same document shape
// (with full pool attributes) is what "pools list" prints, so its output
// can be edited and applied.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"

	rhsmerrors "github.com/treydock/puppet-subscription-manager/pkg/errors"
	"github.com/treydock/puppet-subscription-manager/pkg/header"
	"github.com/treydock/puppet-subscription-manager/pkg/pool"
	"github.com/treydock/puppet-subscription-manager/pkg/provider"
	"github.com/treydock/puppet-subscription-manager/pkg/serializer"
)

// Kind is the document kind of a pool list.
const Kind = "PoolList"

// maxSuggestionDistance bounds how different a suggested key may be.
const maxSuggestionDistance = 3

// Document is the raw form of a manifest.
type Document struct {
	header.Header `json:",inline" yaml:",inline"`

	Pools []Entry `json:"pools" yaml:"pools"`
}

// Entry holds the attributes of one declared pool. Scalars of text
// attributes (id, serial, names) keep their literal spelling, so an
// unquoted id such as 0123 or 1e5 is not read as a number.
type Entry map[string]any

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: pool entry must be a mapping", node.Line)
	}

	out := make(Entry, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		if val.Kind == yaml.ScalarNode && val.Tag != "!!null" && literal(key) {
			out[key] = val.Value
			continue
		}
		var v any
		if err := val.Decode(&v); err != nil {
			return fmt.Errorf("line %d: %s: %w", val.Line, key, err)
		}
		out[key] = v
	}
	*e = out
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	out := make(Entry, len(raw))
	for k, v := range raw {
		if n, ok := v.(json.Number); ok {
			switch {
			case literal(k):
				v = n.String()
			default:
				if i, err := n.Int64(); err == nil {
					v = i
				} else if f, err := n.Float64(); err == nil {
					v = f
				}
			}
		}
		out[k] = v
	}
	*e = out
	return nil
}

// literal reports whether key names a text attribute.
func literal(key string) bool {
	if key == pool.NameAlias {
		return true
	}
	f, ok := pool.FieldByName(key)
	return ok && (f.Kind == pool.KindString || f.Kind == pool.KindID)
}

// PoolList is the typed form written by "pools list".
type PoolList struct {
	header.Header `json:",inline" yaml:",inline"`

	Pools []pool.Pool `json:"pools" yaml:"pools"`
}

// NewPoolList wraps pools in a PoolList document.
func NewPoolList(pools []pool.Pool) *PoolList {
	if pools == nil {
		pools = []pool.Pool{}
	}
	return &PoolList{Header: *header.New(Kind), Pools: pools}
}

// Load reads a manifest file; the format follows the extension (.yaml,
// .yml or JSON).
func Load(path string) ([]*provider.Resource, error) {
	format := serializer.FormatFromPath(path)
	if format == serializer.FormatTable {
		return nil, fmt.Errorf("unsupported manifest format for %s", path)
	}

	r, err := serializer.NewFileReader(format, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			slog.Warn("failed to close manifest", slog.String("path", path), slog.String("error", cerr.Error()))
		}
	}()

	var doc Document
	if err := r.Deserialize(&doc); err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return Resources(&doc)
}

// Parse decodes a YAML (or JSON) manifest.
func Parse(data []byte) ([]*provider.Resource, error) {
	r, err := serializer.NewReader(serializer.FormatYAML, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := r.Deserialize(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return Resources(&doc)
}

// Resources validates every entry of doc and returns them in declaration
// order. Unknown attributes, invalid values and repeated ids are errors.
func Resources(doc *Document) ([]*provider.Resource, error) {
	if doc.Kind != "" {
		if err := doc.Check(Kind); err != nil {
			return nil, fmt.Errorf("invalid manifest: %w", err)
		}
	}

	known := knownKeys()
	seen := make(map[string]int, len(doc.Pools))
	res := make([]*provider.Resource, 0, len(doc.Pools))

	for i, entry := range doc.Pools {
		for key := range entry {
			if slices.Contains(known, key) {
				continue
			}
			reason := "unknown attribute"
			if s := suggest(key, known); s != "" {
				reason = fmt.Sprintf("unknown attribute, did you mean %q?", s)
			}
			return nil, fmt.Errorf("pools[%d]: %w", i, rhsmerrors.NewValidationError(key, "", reason))
		}

		r, err := provider.NewResource(entry)
		if err != nil {
			return nil, fmt.Errorf("pools[%d]: %w", i, err)
		}

		if first, dup := seen[r.ID()]; dup {
			return nil, fmt.Errorf("pools[%d]: %w", i,
				rhsmerrors.NewValidationError("id", r.ID(), fmt.Sprintf("duplicate of pools[%d]", first)))
		}
		seen[r.ID()] = i
		res = append(res, r)
	}

	return res, nil
}

func knownKeys() []string {
	keys := append(pool.AttributeNames(), pool.NameAlias, "ensure")
	slices.Sort(keys)
	return keys
}

// suggest returns the closest known key, or "" when nothing is close.
func suggest(key string, known []string) string {
	best := ""
	bestDist := maxSuggestionDistance + 1
	for _, k := range known {
		if d := levenshtein.ComputeDistance(key, k); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}
