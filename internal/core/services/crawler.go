package services

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// FetchFunc retrieves one item by identifier.
type FetchFunc func(ctx context.Context, identifier string) (*domain.RawContent, error)

// ExtractFunc returns the normalised identifiers an item links to.
type ExtractFunc func(raw *domain.RawContent) []string

// CrawlOptions bounds a crawl.
type CrawlOptions struct {
	// Depth is the link-following budget of seeds without an override.
	Depth int

	// Concurrency bounds parallel fetches within one level.
	Concurrency int

	// MaxItems caps the number of items enqueued. Zero means unlimited.
	MaxItems int

	// OnFetch is called after each fetch attempt. May be nil.
	OnFetch func(identifier string, err error)
}

// CrawlResult is one successfully fetched item.
type CrawlResult struct {
	// Raw is the fetched content.
	Raw *domain.RawContent

	// Seed is the seed whose depth budget reached the item. It decides the
	// export format.
	Seed domain.Seed

	// Level is the number of link hops from that seed.
	Level int
}

type frontierItem struct {
	id     string
	seed   int
	budget int
}

// Crawl fetches seeds and follows links breadth-first.
//
// Each level is fetched completely before links for the next level are
// extracted. Identifiers are fetched at most once per crawl, across all
// seeds. Every seed carries its own depth budget; an identifier reached from
// several seeds in the same level keeps the largest remaining budget, and
// the seed that granted it; on a tie the first discoverer is kept. Items with
// no remaining budget are never passed to extract.
//
// Per-item fetch failures are returned as item errors and do not stop the
// crawl. Authentication failures and context cancellation stop the crawl and
// are returned as the error.
func Crawl(
	ctx context.Context,
	seeds []domain.Seed,
	opts CrawlOptions,
	fetch FetchFunc,
	extract ExtractFunc,
) ([]CrawlResult, []domain.ItemError, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = domain.DefaultConcurrency
	}

	visited := make(map[string]bool)
	var frontier []frontierItem
	pending := make(map[string]int)

	enqueue := func(next []frontierItem, id string, seed, budget int) []frontierItem {
		if id == "" || visited[id] {
			return next
		}
		if i, ok := pending[id]; ok {
			if budget > next[i].budget {
				next[i].seed, next[i].budget = seed, budget
			}
			return next
		}
		if opts.MaxItems > 0 && len(visited)+len(pending) >= opts.MaxItems {
			return next
		}
		pending[id] = len(next)
		return append(next, frontierItem{id: id, seed: seed, budget: budget})
	}

	defaults := domain.SourceConfig{Depth: opts.Depth}
	for i, s := range seeds {
		frontier = enqueue(frontier, s.ID, i, defaults.SeedDepth(s))
	}

	var (
		results []CrawlResult
		errs    []domain.ItemError
	)

	for level := 0; len(frontier) > 0; level++ {
		for _, item := range frontier {
			visited[item.id] = true
		}
		clear(pending)

		fetched, fetchErrs := fetchLevel(ctx, frontier, opts, fetch)
		if err := ctx.Err(); err != nil {
			return results, errs, err
		}

		var next []frontierItem
		for i, item := range frontier {
			if err := fetchErrs[i]; err != nil {
				if errors.Is(err, domain.ErrAuthentication) {
					return results, errs, err
				}
				errs = append(errs, domain.NewItemError(item.id, "", err))
				continue
			}
			raw := fetched[i]
			results = append(results, CrawlResult{Raw: raw, Seed: seeds[item.seed], Level: level})

			if item.budget <= 0 || extract == nil {
				continue
			}
			for _, link := range extract(raw) {
				next = enqueue(next, link, item.seed, item.budget-1)
			}
		}
		frontier = next
	}

	return results, errs, nil
}

// fetchLevel fetches one frontier with bounded concurrency.
// Results are indexed like the frontier, independent of completion order.
func fetchLevel(
	ctx context.Context,
	frontier []frontierItem,
	opts CrawlOptions,
	fetch FetchFunc,
) ([]*domain.RawContent, []error) {
	fetched := make([]*domain.RawContent, len(frontier))
	errs := make([]error, len(frontier))

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for i, item := range frontier {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			raw, err := fetch(ctx, item.id)
			if err == nil && raw == nil {
				err = domain.ErrItemFetch
			}
			fetched[i], errs[i] = raw, err
			if opts.OnFetch != nil {
				opts.OnFetch(item.id, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return fetched, errs
}
