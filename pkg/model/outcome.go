// Package model holds the shared data types passed between the cache,
// resolver, fetcher and orchestrator layers.
package model

import "net/url"

// Status describes the terminal state of one accession after a run.
type Status int

const (
	// StatusAlreadyCached means the signature was present before the run started.
	StatusAlreadyCached Status = iota
	// StatusFetched means the signature was downloaded during this run.
	StatusFetched
	// StatusNotFound means the remote service has no signature for the accession.
	StatusNotFound
	// StatusFailed means resolution or download failed for the accession.
	StatusFailed
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusAlreadyCached:
		return "cached"
	case StatusFetched:
		return "fetched"
	case StatusNotFound:
		return "not-found"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of processing one accession. Exactly one Outcome
// exists per accession per run.
type Outcome struct {
	Status Status
	Path   string // local signature path; set for AlreadyCached and Fetched
	Err    error  // cause; set only for Failed
}

// Reference is the result of resolving an accession against the remote
// service: either the signature does not exist, or URL carries the concrete
// location to stream it from. It lives only for the duration of one fetch
// attempt.
type Reference struct {
	Found bool
	URL   *url.URL
}

// Summary counts outcomes per status.
type Summary struct {
	Cached   int
	Fetched  int
	NotFound int
	Failed   int
}

// Summarize tallies a full outcome map into per-status counts.
func Summarize(outcomes map[string]Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		switch o.Status {
		case StatusAlreadyCached:
			s.Cached++
		case StatusFetched:
			s.Fetched++
		case StatusNotFound:
			s.NotFound++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}
