//go:generate mockgen -destination=./mocks/orchestrator.go . Resolver,Fetcher

package orchestrator

import (
	"context"

	"github.com/glorpus-work/sigsync/pkg/model"
)

// Resolver is the subset of the wort client used by the orchestrator.
type Resolver interface {
	Resolve(ctx context.Context, accession string) (model.Reference, error)
}

// Fetcher is the subset of the download fetcher used by the orchestrator.
type Fetcher interface {
	FetchTo(ctx context.Context, rawURL string, dest string) error
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // resolving|downloading|done|error
	ID    string // accession
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// Options control orchestrator execution.
type Options struct {
	Concurrency int // number of accessions in flight; if <=0, a sane default is used
}
