package pool

import (
	"fmt"
	"strings"

	rhsmerrors "github.com/treydock/puppet-subscription-manager/pkg/errors"
	"github.com/treydock/puppet-subscription-manager/pkg/record"
)

// RepoLeadingLabel opens every block of "subscription-manager repos" output.
const RepoLeadingLabel = "Repo ID"

// Repo is one repository known to subscription-manager.
type Repo struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// ParseRepos converts "repos --list*" output into repositories in block
// order. Blocks without a Repo ID or with an unreadable Enabled flag are
// skipped and reported.
func ParseRepos(raw string) ([]Repo, []*rhsmerrors.ParseError) {
	recs, errs := record.Scan(raw, RepoLeadingLabel)

	repos := make([]Repo, 0, len(recs))
	for _, rec := range recs {
		r, err := repoFromRecord(rec)
		if err != nil {
			errs = append(errs, &rhsmerrors.ParseError{Record: rec.Index, Line: rec.Line, Reason: err.Error()})
			continue
		}
		repos = append(repos, r)
	}

	return repos, errs
}

func repoFromRecord(rec record.Record) (Repo, error) {
	var r Repo

	id, _ := rec.Get(RepoLeadingLabel)
	if id == "" {
		return r, fmt.Errorf("missing %s", RepoLeadingLabel)
	}
	r.ID = id
	r.Name, _ = rec.Get("Repo Name")
	r.URL, _ = rec.Get("Repo URL")

	if v, ok := rec.Get("Enabled"); ok {
		// Older releases print 1/0, newer ones True/False.
		switch strings.ToLower(v) {
		case "1", "true":
			r.Enabled = true
		case "0", "false", "":
		default:
			return r, fmt.Errorf("Enabled: unexpected value %q", v)
		}
	}

	return r, nil
}
