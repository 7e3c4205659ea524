package catalogsearch

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	jsoniter "github.com/json-iterator/go"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/journal"
	"github.com/openshelf/circulation-go/shell"
)

// Journal defines the journal operations needed by the QueryHandler.
type Journal interface {
	Read(ctx context.Context, selector journal.Selector) (
		journal.Entries,
		journal.SequenceNumber,
		error,
	)
}

// SnapshotStore defines the snapshot operations used for incremental
// catalog projections.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context, projectionType string, selectorHash string) (*journal.Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot journal.Snapshot) error
}

// QueryHandler orchestrates catalog searches. Two optional accelerations sit
// in front of the plain read-and-project path, both purely advisory:
// a snapshot store turning full stream reads into snapshot-plus-tail reads,
// and an in-process LRU page cache invalidated on every commit.
type QueryHandler struct {
	journal         Journal
	snapshots       SnapshotStore
	pageCache       *lru.Cache[string, CatalogPage]
	instrumentation shell.Instrumentation
}

// Option configures a QueryHandler.
type Option func(*QueryHandler) error

// WithSnapshots enables snapshot-based incremental projection.
func WithSnapshots(store SnapshotStore) Option {
	return func(h *QueryHandler) error {
		h.snapshots = store

		return nil
	}
}

// WithResultCache enables an LRU cache of result pages with the given size.
// Register the handler as a commit listener so committed writes purge it.
func WithResultCache(size int) Option {
	return func(h *QueryHandler) error {
		cache, err := lru.New[string, CatalogPage](size)
		if err != nil {
			return err
		}

		h.pageCache = cache

		return nil
	}
}

// WithInstrumentation sets the observability collaborators for the handler.
func WithInstrumentation(instrumentation shell.Instrumentation) Option {
	return func(h *QueryHandler) error {
		h.instrumentation = instrumentation

		return nil
	}
}

// NewQueryHandler creates a new QueryHandler with optional configuration.
func NewQueryHandler(j Journal, opts ...Option) (*QueryHandler, error) {
	handler := &QueryHandler{journal: j}

	for _, opt := range opts {
		if err := opt(handler); err != nil {
			return nil, err
		}
	}

	return handler, nil
}

// OnCommit implements shell.CommitListener. Any committed event may change
// search results, so the whole page cache is dropped.
func (h *QueryHandler) OnCommit(_ context.Context, _ core.DomainEvent) {
	if h.pageCache != nil {
		h.pageCache.Purge()
	}
}

// Handle executes the search workflow: Cache -> Snapshot -> Read -> Project -> Search.
func (h *QueryHandler) Handle(ctx context.Context, query Query) (CatalogPage, error) {
	started := time.Now()

	ctx, finishSpan := h.instrumentation.StartSpan(ctx, shell.SpanQueryHandler, map[string]string{
		shell.AttrQueryType: query.QueryType(),
	})

	if !journal.HasReadConsistency(ctx) {
		ctx = journal.WithEventualConsistency(ctx)
	}

	cacheKey := buildCacheKey(query)

	if h.pageCache != nil {
		if page, ok := h.pageCache.Get(cacheKey); ok {
			finishSpan(shell.StatusSuccess)
			return page, nil
		}
	}

	page, err := h.execute(ctx, query)

	duration := time.Since(started)
	mappedErr := shell.MapError(err)
	status := shell.StatusOf(mappedErr)

	h.instrumentation.RecordHandlerOutcome(
		ctx, shell.MetricQueryHandlerDuration, shell.LabelQueryType, query.QueryType(), status, duration)
	finishSpan(status)

	if mappedErr != nil {
		h.instrumentation.LogError(ctx, "catalog search failed",
			"query_type", query.QueryType(), "error", err.Error())

		return CatalogPage{}, mappedErr
	}

	if h.pageCache != nil {
		h.pageCache.Add(cacheKey, page)
	}

	return page, nil
}

func (h *QueryHandler) execute(ctx context.Context, query Query) (CatalogPage, error) {
	selector := BuildStreamSelector()

	base, baseFound := h.loadBaseProjection(ctx, selector)
	if baseFound {
		selector = selector.AfterSequence(base.SequenceNumber)
	}

	entries, maxSequenceNumber, err := h.journal.Read(ctx, selector)
	if err != nil {
		return CatalogPage{}, err
	}

	history, err := shell.DomainEventsFrom(entries)
	if err != nil {
		return CatalogPage{}, err
	}

	var catalog Catalog
	if baseFound {
		if maxSequenceNumber < base.SequenceNumber {
			maxSequenceNumber = base.SequenceNumber
		}
		catalog = Project(history, maxSequenceNumber, base)
	} else {
		catalog = Project(history, maxSequenceNumber)
	}

	h.saveProjectionSnapshot(ctx, catalog, baseFound, base.SequenceNumber)

	return Search(catalog, query), nil
}

// loadBaseProjection fetches the latest catalog snapshot. A missing or broken
// snapshot only costs a full re-read.
func (h *QueryHandler) loadBaseProjection(ctx context.Context, selector journal.Selector) (Catalog, bool) {
	if h.snapshots == nil {
		return Catalog{}, false
	}

	snapshot, err := h.snapshots.LoadSnapshot(ctx, ProjectionType, selector.Hash())
	if err != nil || snapshot == nil {
		return Catalog{}, false
	}

	var base Catalog
	if err := jsoniter.ConfigFastest.Unmarshal(snapshot.Data, &base); err != nil {
		return Catalog{}, false
	}

	base.SequenceNumber = uint(snapshot.SequenceNumber)

	return base, true
}

// saveProjectionSnapshot persists the freshly projected catalog when it moved
// past the base. Failures are swallowed: snapshotting is an optimization.
func (h *QueryHandler) saveProjectionSnapshot(ctx context.Context, catalog Catalog, baseFound bool, baseSeq uint) {
	if h.snapshots == nil {
		return
	}

	if baseFound && catalog.SequenceNumber <= baseSeq {
		return
	}

	data, err := jsoniter.ConfigFastest.Marshal(catalog)
	if err != nil {
		return
	}

	snapshot, err := journal.BuildSnapshot(
		ProjectionType,
		BuildStreamSelector().Hash(),
		journal.SequenceNumber(catalog.SequenceNumber),
		data,
	)
	if err != nil {
		return
	}

	if err := h.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
		h.instrumentation.LogError(ctx, "saving catalog snapshot failed", "error", err.Error())
	}
}

func buildCacheKey(query Query) string {
	return fmt.Sprintf("%s|%s|%d|%d", query.Filter.Genre, query.Filter.TitleContains, query.Offset, query.Limit)
}
