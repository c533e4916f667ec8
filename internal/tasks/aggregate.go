package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodmix/internal/models"
	"github.com/desertthunder/moodmix/internal/services"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultPerTermLimit = 5
	defaultWorkers      = 4
	maxWorkers          = 16
)

// TermOutcome records what one search term contributed to an aggregation.
//
// Found == 0 with a nil Err means the catalog had no matches; a non-nil Err means the search itself failed.
type TermOutcome struct {
	Term  string
	Found int
	Err   error
}

// AggregatorOpts tunes catalog fan-out.
type AggregatorOpts struct {
	PerTermLimit int     // results requested per term (default: 5)
	Workers      int     // concurrent searches (default: 4)
	RateLimit    float64 // searches per second, 0 for unlimited
}

// Aggregator runs one catalog search per seed term and merges the results.
type Aggregator struct {
	catalog services.Catalog
	opts    AggregatorOpts
	logger  *log.Logger
}

// NewAggregator creates an aggregator over catalog; zero options take defaults.
func NewAggregator(catalog services.Catalog, opts AggregatorOpts, logger *log.Logger) *Aggregator {
	if opts.PerTermLimit <= 0 {
		opts.PerTermLimit = defaultPerTermLimit
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Workers > maxWorkers {
		opts.Workers = maxWorkers
	}
	return &Aggregator{catalog: catalog, opts: opts, logger: logger}
}

// Aggregate searches every term and returns the deduplicated tracks with one outcome per term.
//
// Searches run concurrently but results are merged in term order, then within-term order,
// keeping the first occurrence of each track id. A failing term contributes nothing and
// never fails the aggregation.
func (a *Aggregator) Aggregate(ctx context.Context, terms []string) ([]models.Track, []TermOutcome) {
	results := make([][]models.Track, len(terms))
	outcomes := make([]TermOutcome, len(terms))

	limit := rate.Inf
	if a.opts.RateLimit > 0 {
		limit = rate.Limit(a.opts.RateLimit)
	}
	limiter := rate.NewLimiter(limit, 1)

	var g errgroup.Group
	g.SetLimit(a.opts.Workers)

	for i, term := range terms {
		g.Go(func() error {
			outcomes[i] = TermOutcome{Term: term}

			if err := limiter.Wait(ctx); err != nil {
				outcomes[i].Err = err
				return nil
			}

			tracks, err := a.catalog.SearchTracks(ctx, term, a.opts.PerTermLimit)
			if err != nil {
				outcomes[i].Err = err
				return nil
			}

			results[i] = tracks
			outcomes[i].Found = len(tracks)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			a.logger.Warn("search term failed", "term", o.Term, "error", o.Err)
		case o.Found == 0:
			a.logger.Debug("search term returned no matches", "term", o.Term)
		}
	}

	return dedupe(results), outcomes
}

// dedupe flattens per-term results in order, keeping the first track seen for each id.
// Tracks without an id are dropped.
func dedupe(results [][]models.Track) []models.Track {
	seen := make(map[string]struct{})
	tracks := make([]models.Track, 0)
	for _, batch := range results {
		for _, t := range batch {
			if t.ID == "" {
				continue
			}
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			tracks = append(tracks, t)
		}
	}
	return tracks
}
