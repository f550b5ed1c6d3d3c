package orchestrator

import (
	"context"
	"runtime"
	"sync"

	"github.com/glorpus-work/sigsync/pkg/model"
	"github.com/glorpus-work/sigsync/pkg/sigcache"
)

// Orchestrator ties the resolver, fetcher and cache together for one
// reconciliation run. It is the only place where the concurrency ceiling is
// enforced; the resolver and fetcher are unaware of it.
type Orchestrator struct {
	Resolver Resolver
	Fetcher  Fetcher
	Cache    *sigcache.Cache
	Hooks    Hooks // Hooks for progress and event notifications
}

// Run resolves and fetches every missing accession under the configured
// concurrency ceiling and returns exactly one outcome per accession. One
// accession's failure never cancels or delays unrelated accessions; failures
// are captured as outcome data, not propagated as errors.
func (o *Orchestrator) Run(ctx context.Context, missing map[string]struct{}, opts Options) map[string]model.Outcome {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = max(2, runtime.NumCPU()/2)
	}

	outcomes := make(map[string]model.Outcome, len(missing))
	var mu sync.Mutex

	tasks := make(chan string)
	var wg sync.WaitGroup

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for acc := range tasks {
				outcome := o.processOne(ctx, acc)
				mu.Lock()
				outcomes[acc] = outcome
				mu.Unlock()
			}
		}()
	}

	for acc := range missing {
		tasks <- acc
	}
	close(tasks)
	wg.Wait()

	return outcomes
}

// processOne walks one accession through resolve and fetch.
func (o *Orchestrator) processOne(ctx context.Context, accession string) model.Outcome {
	emit(o.Hooks, Event{Phase: "resolving", ID: accession})

	ref, err := o.Resolver.Resolve(ctx, accession)
	if err != nil {
		emit(o.Hooks, Event{Phase: "error", ID: accession, Msg: err.Error()})
		return model.Outcome{Status: model.StatusFailed, Err: err}
	}
	if !ref.Found {
		emit(o.Hooks, Event{Phase: "done", ID: accession, Msg: "not found"})
		return model.Outcome{Status: model.StatusNotFound}
	}

	dest := o.Cache.PathFor(accession)
	emit(o.Hooks, Event{Phase: "downloading", ID: accession, Msg: ref.URL.String()})

	if err := o.Fetcher.FetchTo(ctx, ref.URL.String(), dest); err != nil {
		emit(o.Hooks, Event{Phase: "error", ID: accession, Msg: err.Error()})
		return model.Outcome{Status: model.StatusFailed, Err: err}
	}

	emit(o.Hooks, Event{Phase: "done", ID: accession, Msg: dest})
	return model.Outcome{Status: model.StatusFetched, Path: dest}
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}
