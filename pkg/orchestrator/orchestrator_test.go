package orchestrator

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glorpus-work/sigsync/pkg/errors"
	"github.com/glorpus-work/sigsync/pkg/model"
	ocmocks "github.com/glorpus-work/sigsync/pkg/orchestrator/mocks"
	"github.com/glorpus-work/sigsync/pkg/sigcache"
	"go.uber.org/mock/gomock"
)

func accessionSet(accs ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(accs))
	for _, a := range accs {
		set[a] = struct{}{}
	}
	return set
}

func TestRun_MixedOutcomes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := sigcache.New(t.TempDir())
	sigURL, _ := url.Parse("https://ipfs.example.com/ipfs/QmSig")

	resolver := ocmocks.NewMockResolver(ctrl)
	fetcher := ocmocks.NewMockFetcher(ctrl)

	// B: found and fetched.
	resolver.EXPECT().Resolve(gomock.Any(), "SRR0B").Return(model.Reference{Found: true, URL: sigURL}, nil)
	fetcher.EXPECT().FetchTo(gomock.Any(), sigURL.String(), cache.PathFor("SRR0B")).Return(nil)

	// C: not published remotely.
	resolver.EXPECT().Resolve(gomock.Any(), "SRR0C").Return(model.Reference{}, nil)

	// D: resolution fails.
	resolver.EXPECT().Resolve(gomock.Any(), "SRR0D").Return(model.Reference{}, errors.ErrResolveFailed)

	// E: found but the stream fails.
	resolver.EXPECT().Resolve(gomock.Any(), "SRR0E").Return(model.Reference{Found: true, URL: sigURL}, nil)
	fetcher.EXPECT().FetchTo(gomock.Any(), sigURL.String(), cache.PathFor("SRR0E")).Return(errors.ErrDownloadFailed)

	orch := &Orchestrator{Resolver: resolver, Fetcher: fetcher, Cache: cache}
	outcomes := orch.Run(context.Background(), accessionSet("SRR0B", "SRR0C", "SRR0D", "SRR0E"), Options{Concurrency: 2})

	if len(outcomes) != 4 {
		t.Fatalf("expected one outcome per accession, got %d", len(outcomes))
	}
	if o := outcomes["SRR0B"]; o.Status != model.StatusFetched || o.Path != cache.PathFor("SRR0B") {
		t.Fatalf("unexpected outcome for SRR0B: %+v", o)
	}
	if o := outcomes["SRR0C"]; o.Status != model.StatusNotFound {
		t.Fatalf("unexpected outcome for SRR0C: %+v", o)
	}
	if o := outcomes["SRR0D"]; o.Status != model.StatusFailed || o.Err == nil {
		t.Fatalf("unexpected outcome for SRR0D: %+v", o)
	}
	if o := outcomes["SRR0E"]; o.Status != model.StatusFailed || o.Err == nil {
		t.Fatalf("unexpected outcome for SRR0E: %+v", o)
	}
}

func TestRun_FailureDoesNotAbortOthers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := sigcache.New(t.TempDir())
	sigURL, _ := url.Parse("https://ipfs.example.com/ipfs/QmSig")

	resolver := ocmocks.NewMockResolver(ctrl)
	fetcher := ocmocks.NewMockFetcher(ctrl)

	resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, acc string) (model.Reference, error) {
			if acc == "SRR_BAD" {
				return model.Reference{}, errors.ErrResolveFailed
			}
			return model.Reference{Found: true, URL: sigURL}, nil
		},
	).Times(10)
	fetcher.EXPECT().FetchTo(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(9)

	missing := accessionSet("SRR_BAD")
	for i := 0; i < 9; i++ {
		missing[fmt.Sprintf("SRR%04d", i)] = struct{}{}
	}

	orch := &Orchestrator{Resolver: resolver, Fetcher: fetcher, Cache: cache}
	outcomes := orch.Run(context.Background(), missing, Options{Concurrency: 3})

	fetched := 0
	for acc, o := range outcomes {
		if acc == "SRR_BAD" {
			if o.Status != model.StatusFailed {
				t.Fatalf("expected SRR_BAD to fail, got %+v", o)
			}
			continue
		}
		if o.Status != model.StatusFetched {
			t.Fatalf("expected %s to be fetched, got %+v", acc, o)
		}
		fetched++
	}
	if fetched != 9 {
		t.Fatalf("expected 9 fetched, got %d", fetched)
	}
}

func TestRun_ConcurrencyCeiling(t *testing.T) {
	for _, concurrency := range []int{1, 4, 64} {
		t.Run(fmt.Sprintf("concurrency_%d", concurrency), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			cache := sigcache.New(t.TempDir())
			sigURL, _ := url.Parse("https://ipfs.example.com/ipfs/QmSig")

			var inFlight, maxInFlight int64
			track := func() {
				cur := atomic.AddInt64(&inFlight, 1)
				for {
					prev := atomic.LoadInt64(&maxInFlight)
					if cur <= prev || atomic.CompareAndSwapInt64(&maxInFlight, prev, cur) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt64(&inFlight, -1)
			}

			resolver := ocmocks.NewMockResolver(ctrl)
			fetcher := ocmocks.NewMockFetcher(ctrl)

			resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).DoAndReturn(
				func(context.Context, string) (model.Reference, error) {
					track()
					return model.Reference{Found: true, URL: sigURL}, nil
				},
			).AnyTimes()
			fetcher.EXPECT().FetchTo(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
				func(context.Context, string, string) error {
					track()
					return nil
				},
			).AnyTimes()

			missing := make(map[string]struct{})
			for i := 0; i < 40; i++ {
				missing[fmt.Sprintf("SRR%06d", i)] = struct{}{}
			}

			orch := &Orchestrator{Resolver: resolver, Fetcher: fetcher, Cache: cache}
			outcomes := orch.Run(context.Background(), missing, Options{Concurrency: concurrency})

			if len(outcomes) != 40 {
				t.Fatalf("expected 40 outcomes, got %d", len(outcomes))
			}
			if got := atomic.LoadInt64(&maxInFlight); got > int64(concurrency) {
				t.Fatalf("observed %d operations in flight, ceiling is %d", got, concurrency)
			}
		})
	}
}

func TestRun_DefaultConcurrency(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := sigcache.New(t.TempDir())

	resolver := ocmocks.NewMockResolver(ctrl)
	resolver.EXPECT().Resolve(gomock.Any(), "SRR000001").Return(model.Reference{}, nil)

	orch := &Orchestrator{Resolver: resolver, Fetcher: ocmocks.NewMockFetcher(ctrl), Cache: cache}
	outcomes := orch.Run(context.Background(), accessionSet("SRR000001"), Options{})

	if o := outcomes["SRR000001"]; o.Status != model.StatusNotFound {
		t.Fatalf("unexpected outcome: %+v", o)
	}
}

func TestRun_EmptyMissingSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	orch := &Orchestrator{
		Resolver: ocmocks.NewMockResolver(ctrl),
		Fetcher:  ocmocks.NewMockFetcher(ctrl),
		Cache:    sigcache.New(t.TempDir()),
	}
	outcomes := orch.Run(context.Background(), nil, Options{Concurrency: 4})
	if len(outcomes) != 0 {
		t.Fatalf("expected no outcomes, got %d", len(outcomes))
	}
}

func TestRun_EmitsEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := sigcache.New(t.TempDir())
	sigURL, _ := url.Parse("https://ipfs.example.com/ipfs/QmSig")

	resolver := ocmocks.NewMockResolver(ctrl)
	fetcher := ocmocks.NewMockFetcher(ctrl)
	resolver.EXPECT().Resolve(gomock.Any(), "SRR000001").Return(model.Reference{Found: true, URL: sigURL}, nil)
	fetcher.EXPECT().FetchTo(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	var mu sync.Mutex
	var phases []string
	orch := &Orchestrator{
		Resolver: resolver,
		Fetcher:  fetcher,
		Cache:    cache,
		Hooks: Hooks{OnEvent: func(e Event) {
			mu.Lock()
			phases = append(phases, e.Phase)
			mu.Unlock()
		}},
	}

	orch.Run(context.Background(), accessionSet("SRR000001"), Options{Concurrency: 1})

	want := []string{"resolving", "downloading", "done"}
	if len(phases) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), phases)
	}
	for i, p := range want {
		if phases[i] != p {
			t.Fatalf("expected phase %q at position %d, got %v", p, i, phases)
		}
	}
}
