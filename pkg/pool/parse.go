package pool

import (
	"fmt"
	"io"
	"strings"

	rhsmerrors "github.com/treydock/puppet-subscription-manager/pkg/errors"
	"github.com/treydock/puppet-subscription-manager/pkg/record"
)

// Parse converts "list --consumed" output into pools in block order.
// Malformed blocks are skipped and reported; empty input yields no pools.
func Parse(raw string) ([]Pool, []*rhsmerrors.ParseError) {
	pools, errs, _ := ParseReader(strings.NewReader(raw))
	return pools, errs
}

// ParseReader is Parse over a reader. The error is only non-nil when reading
// fails.
func ParseReader(r io.Reader) ([]Pool, []*rhsmerrors.ParseError, error) {
	recs, errs, err := record.ScanReader(r, LeadingLabel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read pool listing: %w", err)
	}

	pools := make([]Pool, 0, len(recs))
	seen := make(map[string]int, len(recs))

	for _, rec := range recs {
		p, perr := fromRecord(rec)
		if perr != nil {
			errs = append(errs, perr)
			continue
		}

		if first, dup := seen[p.ID]; dup {
			errs = append(errs, &rhsmerrors.ParseError{
				Record: rec.Index,
				Line:   rec.Line,
				Reason: fmt.Sprintf("duplicate Pool ID %s (first seen in record %d)", p.ID, first),
			})
			continue
		}

		seen[p.ID] = rec.Index
		pools = append(pools, p)
	}

	return pools, errs, nil
}

func fromRecord(rec record.Record) (Pool, *rhsmerrors.ParseError) {
	fail := func(format string, args ...any) (Pool, *rhsmerrors.ParseError) {
		return Pool{}, &rhsmerrors.ParseError{
			Record: rec.Index,
			Line:   rec.Line,
			Reason: fmt.Sprintf(format, args...),
		}
	}

	var p Pool
	assigned := make(map[string]bool, len(Schema))

	for _, fld := range rec.Fields {
		f, known := FieldByLabel(fld.Label)
		if !known || assigned[f.Name] {
			continue
		}
		assigned[f.Name] = true

		// Optional typed fields are sometimes printed with no value.
		if fld.Value == "" && f.Kind != KindID {
			continue
		}

		v, err := coerceText(f, fld.Value)
		if err != nil {
			return fail("%s: %v", f.Label, err)
		}
		p.set(f.Name, v)
	}

	if p.ID == "" {
		return fail("missing %s", byName["id"].Label)
	}

	return p, nil
}
