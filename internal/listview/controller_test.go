package listview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rebeliceyang/lazyca/internal/api"
	"github.com/rebeliceyang/lazyca/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	attrs     []string
	stored    models.FilterList
	found     bool
	pipelines []models.PipelineView
	uiConfig  *models.UIConfig
	filterErr error
}

func (f *fakeLoader) SelectionAttributes(context.Context) ([]string, error) { return f.attrs, nil }

func (f *fakeLoader) GetFilterList(context.Context, models.ListKind) (models.FilterList, bool, error) {
	return f.stored, f.found, f.filterErr
}

func (f *fakeLoader) WebPipelines(context.Context) ([]models.PipelineView, error) {
	return f.pipelines, nil
}

func (f *fakeLoader) UIConfig(context.Context) (*models.UIConfig, error) { return f.uiConfig, nil }

func TestNew_DefaultFilter(t *testing.T) {
	c := NewCSRController(api.CSRListEndpoint, zerolog.Nop())
	assert.Equal(t,
		"api/csrList?attributeName_1=status&attributeValue_1=PENDING&attributeSelector_1=EQUAL",
		c.AccessURL())
}

func TestLoad(t *testing.T) {
	c := NewCSRController(api.CSRListEndpoint, zerolog.Nop())
	loader := &fakeLoader{
		attrs: []string{"department"},
		stored: models.FilterList{FilterList: []models.FilterItem{
			{AttributeName: "pipelineId", AttributeValue: "1, 2", Selector: models.SelIn},
		}},
		found:     true,
		pipelines: []models.PipelineView{{ID: 1, Name: "web"}},
		uiConfig:  &models.UIConfig{CryptoConfigView: &models.CryptoConfigView{DefaultPBEAlgo: "AES256"}},
	}

	res := c.Load(context.Background(), loader)
	assert.True(t, res.StoredFilters)
	assert.Empty(t, res.Errors)

	filters := c.Filters()
	require.Len(t, filters.FilterList, 1)
	assert.Equal(t, []string{"1", "2"}, filters.FilterList[0].AttributeValueArr)
	_, ok := c.Catalog().Find("department")
	assert.True(t, ok)
	assert.Len(t, c.Pipelines(), 1)
	assert.Equal(t, "AES256", c.UIConfig().DefaultPBEAlgo(""))
}

func TestLoad_PartialFailureKeepsDefaults(t *testing.T) {
	c := NewCSRController(api.CSRListEndpoint, zerolog.Nop())
	res := c.Load(context.Background(), &fakeLoader{filterErr: errors.New("down")})

	assert.False(t, res.StoredFilters)
	assert.Contains(t, res.Errors, "filter list")
	assert.Equal(t, "status", c.Filters().FilterList[0].AttributeName)
}

func TestLoad_ConcurrentCatalogReads(t *testing.T) {
	c := NewCSRController(api.CSRListEndpoint, zerolog.Nop())
	attrs := make([]string, 200)
	for i := range attrs {
		attrs[i] = fmt.Sprintf("attr%d", i)
	}

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			_ = c.Catalog().Items()
			_ = c.Catalog().SelectorChoices("status")
			_ = c.Catalog().InputType("attr199")
		}
	}()

	c.Load(context.Background(), &fakeLoader{attrs: attrs})
	close(done)
	wg.Wait()

	base := len(NewCSRController(api.CSRListEndpoint, zerolog.Nop()).Catalog().Items())
	assert.Len(t, c.Catalog().Items(), base+len(attrs))
}

func TestRecomputeAccessURL_TwoPhase(t *testing.T) {
	c := NewCSRController(api.CSRListEndpoint, zerolog.Nop())
	initial := c.AccessURL()

	c.AddSelector()

	changed, err := c.RecomputeAccessURL()
	require.NoError(t, err)
	assert.False(t, changed, "first step only records the change")
	assert.Equal(t, initial, c.AccessURL())

	changed, err = c.RecomputeAccessURL()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, strings.Contains(c.AccessURL(), "attributeName_2=status"))

	changed, _ = c.RecomputeAccessURL()
	assert.False(t, changed)
}

func TestSubmit(t *testing.T) {
	c := NewCertificateController(api.CertListEndpoint, zerolog.Nop())
	require.NoError(t, c.ChangeAttribute(0, "subject", time.Now(), "alice"))

	changed, err := c.Submit()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, c.AccessQuery(), "attributeName_1=subject")
}

func TestSelectors(t *testing.T) {
	c := NewCSRController(api.CSRListEndpoint, zerolog.Nop())
	c.AddSelector()
	c.AddSelector()
	assert.Len(t, c.Filters().FilterList, 3)

	c.RemoveSelector(1)
	c.RemoveSelector(10)
	assert.Len(t, c.Filters().FilterList, 2)

	err := c.UpdateSelector(0, models.FilterItem{AttributeName: "requestedOn", AttributeValue: "2024-01-01", Selector: models.SelLike})
	assert.Error(t, err)

	err = c.UpdateSelector(0, models.FilterItem{AttributeName: "pipelineId", Selector: models.SelIn, AttributeValueArr: []string{"3", "4"}})
	require.NoError(t, err)
	assert.Equal(t, "3, 4", c.Snapshot().FilterList[0].AttributeValue)

	assert.Error(t, c.SetFilters(models.FilterList{FilterList: []models.FilterItem{{AttributeName: "color", Selector: models.SelEqual}}}))
}
