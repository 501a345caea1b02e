package listview

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rebeliceyang/lazyca/internal/filter"
	"github.com/rebeliceyang/lazyca/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Loader fetches what a list view needs when it is opened
type Loader interface {
	SelectionAttributes(ctx context.Context) ([]string, error)
	GetFilterList(ctx context.Context, kind models.ListKind) (models.FilterList, bool, error)
	WebPipelines(ctx context.Context) ([]models.PipelineView, error)
	UIConfig(ctx context.Context) (*models.UIConfig, error)
}

// LoadResult reports which parts of the mount load failed
type LoadResult struct {
	StoredFilters bool
	Errors        map[string]error
}

// Controller owns the filter state of one list view. The persistence loop
// reads it from its own goroutine, so all state is mutex guarded.
type Controller struct {
	kind     models.ListKind
	endpoint string
	catalog  *filter.Catalog
	builder  *filter.Builder
	logger   zerolog.Logger

	mu        sync.Mutex
	filters   models.FilterList
	pipelines []models.PipelineView
	uiConfig  *models.UIConfig

	pendingQuery string
	accessQuery  string
}

// New creates a controller starting from the catalog's default filter
func New(kind models.ListKind, endpoint string, catalog *filter.Catalog, logger zerolog.Logger) *Controller {
	c := &Controller{
		kind:     kind,
		endpoint: endpoint,
		catalog:  catalog,
		builder:  filter.NewBuilder(catalog),
		filters:  catalog.DefaultList(),
		logger:   logger.With().Str("component", "listview").Str("list", string(kind)).Logger(),
	}
	c.accessQuery, _ = c.buildQuery()
	c.pendingQuery = c.accessQuery
	return c
}

// NewCSRController creates the controller of the request list
func NewCSRController(endpoint string, logger zerolog.Logger) *Controller {
	return New(models.CSRList, endpoint, filter.NewCSRCatalog(), logger)
}

// NewCertificateController creates the controller of the certificate list
func NewCertificateController(endpoint string, logger zerolog.Logger) *Controller {
	return New(models.CertList, endpoint, filter.NewCertificateCatalog(), logger)
}

// Kind returns the list kind
func (c *Controller) Kind() models.ListKind { return c.kind }

// Catalog returns the selection catalog
func (c *Controller) Catalog() *filter.Catalog { return c.catalog }

// Load fetches attributes, the stored filter list, pipelines and UI config
// in parallel. Each part fails independently; failures are reported in the
// result and the defaults stay in place.
func (c *Controller) Load(ctx context.Context, loader Loader) LoadResult {
	var (
		attrs     []string
		stored    models.FilterList
		found     bool
		pipelines []models.PipelineView
		uiConfig  *models.UIConfig
		errMu     sync.Mutex
		errs      = map[string]error{}
	)
	fail := func(part string, err error) {
		errMu.Lock()
		errs[part] = err
		errMu.Unlock()
		c.logger.Warn().Err(err).Str("part", part).Msg("list view load failed")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if attrs, err = loader.SelectionAttributes(gctx); err != nil {
			fail("selection attributes", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if stored, found, err = loader.GetFilterList(gctx, c.kind); err != nil {
			fail("filter list", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if pipelines, err = loader.WebPipelines(gctx); err != nil {
			fail("pipelines", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if uiConfig, err = loader.UIConfig(gctx); err != nil {
			fail("ui config", err)
		}
		return nil
	})
	_ = g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.catalog.MergeAttributes(attrs)
	if pipelines != nil {
		c.pipelines = pipelines
	}
	if uiConfig != nil {
		c.uiConfig = uiConfig
	}
	if found && stored.FilterList != nil {
		c.builder.SplitValues(&stored)
		c.filters = stored
	}

	return LoadResult{StoredFilters: found, Errors: errs}
}

// Filters returns a copy of the current filter list
func (c *Controller) Filters() models.FilterList {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters.Clone()
}

// SetFilters replaces the filter list after validating it
func (c *Controller) SetFilters(list models.FilterList) error {
	if err := c.catalog.Validate(list); err != nil {
		return err
	}
	c.mu.Lock()
	c.filters = list.Clone()
	c.mu.Unlock()
	return nil
}

// Snapshot returns the filter list with list values aligned, as it is stored
func (c *Controller) Snapshot() models.FilterList {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builder.AlignValues(&c.filters)
	return c.filters.Clone()
}

// AddSelector appends a copy of the default filter
func (c *Controller) AddSelector() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fi := c.catalog.DefaultFilter()
	if fi.AttributeValueArr != nil {
		fi.AttributeValueArr = slices.Clone(fi.AttributeValueArr)
	}
	c.filters.FilterList = append(c.filters.FilterList, fi)
}

// RemoveSelector drops the predicate at index
func (c *Controller) RemoveSelector(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.filters.FilterList) {
		return
	}
	c.filters.FilterList = slices.Delete(c.filters.FilterList, index, index+1)
}

// UpdateSelector replaces the predicate at index. The attribute must be in
// the catalog and the selector valid for its type.
func (c *Controller) UpdateSelector(index int, item models.FilterItem) error {
	if err := c.catalog.Validate(models.FilterList{FilterList: []models.FilterItem{item}}); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.filters.FilterList) {
		return fmt.Errorf("no filter at position %d", index+1)
	}
	c.filters.FilterList[index] = item
	return nil
}

// ChangeAttribute switches the predicate at index to another attribute,
// resetting selector and value to that attribute's defaults
func (c *Controller) ChangeAttribute(index int, name string, now time.Time, login string) error {
	item, err := c.catalog.NewItem(name, now, login)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.filters.FilterList) {
		return fmt.Errorf("no filter at position %d", index+1)
	}
	c.filters.FilterList[index] = item
	return nil
}

// Pipelines returns the pipelines offered in pipelineList filters
func (c *Controller) Pipelines() []models.PipelineView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.pipelines)
}

// UIConfig returns the backend UI configuration, nil until loaded
func (c *Controller) UIConfig() *models.UIConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uiConfig
}

func (c *Controller) buildQuery() (string, error) {
	list := c.filters
	return c.builder.BuildQuery(&list)
}

// RecomputeAccessURL runs one debounce step. A changed query is first only
// recorded; it becomes the access query when a later step sees it unchanged.
// It reports whether the access query changed.
func (c *Controller) RecomputeAccessURL() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := c.buildQuery()
	if err != nil {
		return false, err
	}
	if q != c.pendingQuery {
		c.pendingQuery = q
		c.logger.Debug().Str("query", q).Msg("access url change detected")
		return false, nil
	}
	if q != c.accessQuery {
		c.accessQuery = q
		c.logger.Debug().Str("query", q).Msg("access url change propagated")
		return true, nil
	}
	return false, nil
}

// Submit propagates the current filters at once, as pressing enter does
func (c *Controller) Submit() (bool, error) {
	first, err := c.RecomputeAccessURL()
	if err != nil {
		return false, err
	}
	second, err := c.RecomputeAccessURL()
	return first || second, err
}

// AccessQuery returns the propagated filter query
func (c *Controller) AccessQuery() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessQuery
}

// AccessURL returns the propagated list URL
func (c *Controller) AccessURL() string {
	return filter.JoinQuery(c.endpoint, c.AccessQuery())
}

// FilterQuery returns the query string of the current filters, without
// waiting for the debounce
func (c *Controller) FilterQuery() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildQuery()
}
