// Package record splits subscription-manager's human readable listings into
// label/value records.
//
// subscription-manager prints one block per pool or repository:
//
//	+-------------------------------------------+
//	   Consumed Subscriptions
//	+-------------------------------------------+
//	Subscription Name: Extra Packages for Enterprise Linux
//	Provides:          Extra Packages for Enterprise Linux
//	                   Red Hat Software Collections
//	SKU:               1234536789012
//	...
//
// Blocks end at blank lines, at end of input, or when the block's leading
// label appears a second time. Indented lines without a label continue the
// previous value. Lines without a colon outside a block (banners, titles,
// "No consumed subscription pools to list") are ignored.
//
// The scanner is a small state machine:
//
//	seeking --label--> accumulating --blank/leading label/EOF--> complete
//
// A block that contains an unindented line without a colon is rejected as a
// whole and reported as a *errors.ParseError; scanning continues with the
// next block.
package record

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	rhsmerrors "github.com/treydock/puppet-subscription-manager/pkg/errors"
)

// Field is one "Label: value" pair.
type Field struct {
	Label string
	Value string
}

// Record is one block of fields in input order.
type Record struct {
	// Index is the zero-based position of the block in the input, counting
	// rejected blocks.
	Index int
	// Line is the 1-based line the block started on.
	Line   int
	Fields []Field
}

// Get returns the first value for label.
func (r Record) Get(label string) (string, bool) {
	for _, f := range r.Fields {
		if f.Label == label {
			return f.Value, true
		}
	}
	return "", false
}

type state int

const (
	seeking state = iota
	accumulating
)

// maxLineSize bounds a single line. Provides lists can be long but never
// approach this.
const maxLineSize = 1 << 20

type scanner struct {
	leading string

	state   state
	current *Record
	bad     string
	next    int

	records []Record
	errs    []*rhsmerrors.ParseError
}

// Scan splits raw into records. leading is the label that always opens a
// block ("Subscription Name", "Repo ID"); an empty leading disables the
// repeated-leading-label split.
func Scan(raw string, leading string) ([]Record, []*rhsmerrors.ParseError) {
	recs, errs, _ := ScanReader(strings.NewReader(raw), leading)
	return recs, errs
}

// ScanReader is Scan over a reader. The returned error is only non-nil for
// read failures.
func ScanReader(r io.Reader, leading string) ([]Record, []*rhsmerrors.ParseError, error) {
	s := &scanner{leading: leading}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		s.feed(sc.Text(), lineNo)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	s.complete()

	return s.records, s.errs, nil
}

func (s *scanner) feed(line string, lineNo int) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		s.complete()
		return
	}

	indented := unicode.IsSpace(rune(line[0]))

	if s.state == accumulating && indented && len(s.current.Fields) > 0 {
		last := &s.current.Fields[len(s.current.Fields)-1]
		if last.Value == "" {
			last.Value = trimmed
		} else {
			last.Value += ", " + trimmed
		}
		return
	}

	label, value, ok := strings.Cut(trimmed, ":")
	if !ok {
		if s.state == accumulating && s.bad == "" {
			s.bad = "line without label delimiter: " + quote(trimmed)
		}
		return
	}

	label = strings.TrimSpace(label)
	value = strings.TrimSpace(value)

	if s.state == accumulating && s.leading != "" && label == s.leading {
		if _, seen := s.current.Get(s.leading); seen {
			s.complete()
		}
	}

	if s.state == seeking {
		s.current = &Record{Index: s.next, Line: lineNo}
		s.next++
		s.state = accumulating
	}

	s.current.Fields = append(s.current.Fields, Field{Label: label, Value: value})
}

func (s *scanner) complete() {
	if s.state != accumulating {
		return
	}

	if s.bad != "" {
		s.errs = append(s.errs, &rhsmerrors.ParseError{
			Record: s.current.Index,
			Line:   s.current.Line,
			Reason: s.bad,
		})
	} else {
		s.records = append(s.records, *s.current)
	}

	s.current = nil
	s.bad = ""
	s.state = seeking
}

func quote(s string) string {
	const max = 40
	if len(s) > max {
		s = s[:max] + "..."
	}
	return `"` + s + `"`
}
