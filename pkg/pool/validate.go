package pool

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	rhsmerrors "github.com/treydock/puppet-subscription-manager/pkg/errors"
)

// NameAlias is accepted as a synonym for "id" when declaring pools.
const NameAlias = "name"

// ValidateID checks that id is a non-empty hexadecimal string.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return rhsmerrors.NewValidationError("id", id, "must match ^[A-Fa-f0-9]+$")
	}
	return nil
}

// NewFromAttributes builds a Pool from declared attribute values, as found in
// a manifest. Values may be strings or their natural Go types (bool, int,
// Date, time.Time). Every problem is reported as a *errors.ValidationError
// before anything touches the system.
func NewFromAttributes(attrs map[string]any) (*Pool, error) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	p := &Pool{}
	for _, key := range keys {
		v := attrs[key]
		name := key
		if name == NameAlias {
			name = "id"
		}

		f, ok := FieldByName(name)
		if !ok {
			return nil, rhsmerrors.NewValidationError(key, "", "unknown attribute")
		}
		if v == nil {
			continue
		}

		typed, err := coerceValue(f, v)
		if err != nil {
			return nil, rhsmerrors.NewValidationError(key, fmt.Sprint(v), err.Error())
		}

		if name == "id" && p.ID != "" && p.ID != typed.(string) {
			return nil, rhsmerrors.NewValidationError(key, fmt.Sprint(v), "conflicts with "+p.ID)
		}
		p.set(f.Name, typed)
	}

	for _, f := range Schema {
		if !f.Required {
			continue
		}
		if v, _ := p.Attribute(f.Name); v == "" {
			return nil, rhsmerrors.NewValidationError(f.Name, "", "required")
		}
	}

	return p, nil
}

// coerceText converts tool output. Booleans must be exactly True or False as
// printed in the C locale.
func coerceText(f Field, raw string) (any, error) {
	switch f.Kind {
	case KindID:
		if err := ValidateID(raw); err != nil {
			return nil, err
		}
		return raw, nil
	case KindBool:
		switch raw {
		case "True":
			return true, nil
		case "False":
			return false, nil
		}
		return nil, fmt.Errorf("expected True or False, got %q", raw)
	case KindInt:
		return nonNegative(raw)
	case KindDate:
		return ParseDate(raw)
	default:
		return raw, nil
	}
}

// coerceValue converts declared values, which are more forgiving about
// representation than tool output.
func coerceValue(f Field, v any) (any, error) {
	switch f.Kind {
	case KindString:
		return scalarString(v)

	case KindID:
		s, err := scalarString(v)
		if err != nil {
			return nil, err
		}
		if !idPattern.MatchString(s) {
			return nil, fmt.Errorf("must match ^[A-Fa-f0-9]+$")
		}
		return s, nil

	case KindBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return nil, fmt.Errorf("not a boolean")
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("not a boolean")

	case KindInt:
		switch n := v.(type) {
		case int:
			if n < 0 {
				return nil, fmt.Errorf("must not be negative")
			}
			return n, nil
		case int64:
			if n < 0 || n > math.MaxInt32 {
				return nil, fmt.Errorf("out of range")
			}
			return int(n), nil
		case uint64:
			if n > math.MaxInt32 {
				return nil, fmt.Errorf("out of range")
			}
			return int(n), nil
		case float64:
			if n != math.Trunc(n) || n < 0 || n > math.MaxInt32 {
				return nil, fmt.Errorf("not a non-negative integer")
			}
			return int(n), nil
		case string:
			return nonNegative(n)
		}
		return nil, fmt.Errorf("not an integer")

	case KindDate:
		switch d := v.(type) {
		case Date:
			return d, nil
		case time.Time:
			return NewDate(d), nil
		case string:
			return ParseDate(d)
		}
		return nil, fmt.Errorf("not a date")
	}

	return nil, fmt.Errorf("unsupported kind %s", f.Kind)
}

func scalarString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case int:
		return strconv.Itoa(s), nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	case uint64:
		return strconv.FormatUint(s, 10), nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(s), nil
	}
	return "", fmt.Errorf("not a scalar value")
}

func nonNegative(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative: %d", n)
	}
	return n, nil
}
