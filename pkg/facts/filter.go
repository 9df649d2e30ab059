package facts

import (
	"context"
	"strings"
)

// FilterOut returns values without those matching any pattern, keeping
// order. Patterns support a single leading and/or trailing wildcard:
//   - "prefix*" matches values starting with "prefix"
//   - "*suffix" matches values ending with "suffix"
//   - "*contains*" matches values containing "contains"
//   - "exact" matches values exactly
func FilterOut(values []string, patterns []string) []string {
	result := make([]string, 0, len(values))

	for _, v := range values {
		omit := false
		for _, pattern := range patterns {
			if matchesPattern(v, pattern) {
				omit = true
				break
			}
		}
		if !omit {
			result = append(result, v)
		}
	}

	return result
}

func matchesPattern(value, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return value == pattern
	}

	leading := strings.HasPrefix(pattern, "*")
	trailing := strings.HasSuffix(pattern, "*")
	core := strings.Trim(pattern, "*")

	switch {
	case leading && trailing:
		return strings.Contains(value, core)
	case leading:
		return strings.HasSuffix(value, core)
	case trailing:
		return strings.HasPrefix(value, core)
	}

	// A wildcard in the middle is taken literally.
	return value == pattern
}

// Filtered drops values matching Exclude from another collector's result.
type Filtered struct {
	Collector Collector
	Exclude   []string
}

// Name implements Collector.
func (c *Filtered) Name() string {
	return c.Collector.Name()
}

// Collect implements Collector.
func (c *Filtered) Collect(ctx context.Context) ([]string, error) {
	values, err := c.Collector.Collect(ctx)
	if err != nil {
		return nil, err
	}
	return FilterOut(values, c.Exclude), nil
}
