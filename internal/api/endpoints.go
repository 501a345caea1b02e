package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rebeliceyang/lazyca/internal/models"
)

// List endpoints of the two filterable views
const (
	CSRListEndpoint     = "api/csrList"
	CSRListCSVEndpoint  = "api/csrListCSV"
	CertListEndpoint    = "api/certificateList"
	CertListCSVEndpoint = "api/certificateListCSV"
)

// ListEndpoint returns the row and CSV endpoints of a list
func ListEndpoint(kind models.ListKind) (rows, csv string) {
	if kind == models.CertList {
		return CertListEndpoint, CertListCSVEndpoint
	}
	return CSRListEndpoint, CSRListCSVEndpoint
}

func filterListEndpoint(kind models.ListKind) string {
	return "api/userProperties/filterList/" + url.PathEscape(string(kind))
}

// GetFilterList loads the filter list stored for the user. found is false
// when the backend has no stored list.
func (c *Client) GetFilterList(ctx context.Context, kind models.ListKind) (list models.FilterList, found bool, err error) {
	resp, err := c.processRequest(ctx, http.MethodGet, filterListEndpoint(kind), nil, nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return list, false, nil
		}
		var pe *ProblemError
		if errors.As(err, &pe) && pe.StatusCode == http.StatusNotFound {
			return list, false, nil
		}
		return list, false, err
	}
	if len(strings.TrimSpace(string(resp.Body))) == 0 {
		return list, false, nil
	}
	if err := json.Unmarshal(resp.Body, &list); err != nil {
		return list, false, fmt.Errorf("failed to decode filter list: %w", err)
	}
	return list, true, nil
}

// PutFilterList stores the filter list and returns the response status.
// The caller decides what a non-204 status means.
func (c *Client) PutFilterList(ctx context.Context, kind models.ListKind, list models.FilterList) (int, error) {
	payload, err := json.Marshal(list)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal filter list: %w", err)
	}
	resp, err := c.processRequest(ctx, http.MethodPut, filterListEndpoint(kind), payload, nil)
	if err != nil {
		return 0, err
	}
	return resp.StatusCode, nil
}

// SelectionAttributes returns the extra filterable attribute names
func (c *Client) SelectionAttributes(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.getJSON(ctx, "api/certificateSelectionAttributes", &names); err != nil {
		return nil, err
	}
	return names, nil
}

// WebPipelines returns the pipelines offered in pipelineList filters
func (c *Client) WebPipelines(ctx context.Context) ([]models.PipelineView, error) {
	var pipelines []models.PipelineView
	if err := c.getJSON(ctx, "api/pipeline/getWebPipelines", &pipelines); err != nil {
		return nil, err
	}
	return pipelines, nil
}

// UIConfig returns the backend UI configuration
func (c *Client) UIConfig(ctx context.Context) (*models.UIConfig, error) {
	var cfg models.UIConfig
	if err := c.getJSON(ctx, "api/ui/config", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Account returns the logged-in account
func (c *Client) Account(ctx context.Context) (*models.Account, error) {
	var account models.Account
	if err := c.getJSON(ctx, "api/account", &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// CSR returns the detail view of a request
func (c *Client) CSR(ctx context.Context, id string) (*models.CSR, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	var csr models.CSR
	if err := c.getJSON(ctx, "api/csrViews/"+url.PathEscape(id), &csr); err != nil {
		return nil, err
	}
	return &csr, nil
}

// Certificate returns the detail view of a certificate
func (c *Client) Certificate(ctx context.Context, id string) (*models.CertificateView, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	var cert models.CertificateView
	if err := c.getJSON(ctx, "api/certificateViews/"+url.PathEscape(id), &cert); err != nil {
		return nil, err
	}
	return &cert, nil
}

// ListCSV downloads the list as CSV restricted to the given columns
func (c *Client) ListCSV(ctx context.Context, kind models.ListKind, filterQuery string, columns []string) ([]byte, error) {
	_, endpoint := ListEndpoint(kind)
	query := filterQuery
	if len(columns) > 0 {
		param := "filter=" + url.QueryEscape(strings.Join(columns, ","))
		if query == "" {
			query = param
		} else {
			query += "&" + param
		}
	}
	if query != "" {
		endpoint += "?" + query
	}

	resp, err := c.processRequest(ctx, http.MethodGet, endpoint, nil, map[string]string{"Accept": string(CTCSV)}, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
