package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rebeliceyang/lazyca/internal/api"
	"github.com/rebeliceyang/lazyca/internal/filter"
)

// DefaultPageSize is used when the request carries no page size
const DefaultPageSize = 20

// Direction is a sort direction
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Toggle returns the opposite direction
func (d Direction) Toggle() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// Page selects a window of rows. Index is 1-based.
type Page struct {
	Size  int
	Index int
}

// Sort orders rows by a column
type Sort struct {
	Column    string
	Direction Direction
}

// Request is the table state a fetch is derived from
type Request struct {
	Page        Page
	Sort        Sort
	FilterQuery string
}

// Result is one page of rows plus the total number of matching rows
type Result[T any] struct {
	Rows          []T
	TotalRowCount int
}

// Getter issues GET requests against the backend
type Getter interface {
	Get(ctx context.Context, endpoint string, headers map[string]string) (*api.Response, error)
}

// Source fetches pages of T from a list endpoint
type Source[T any] struct {
	getter   Getter
	endpoint string
}

// New creates a data source for the list endpoint
func New[T any](getter Getter, endpoint string) *Source[T] {
	return &Source[T]{getter: getter, endpoint: endpoint}
}

// Endpoint returns the list endpoint
func (s *Source[T]) Endpoint() string {
	return s.endpoint
}

// URL composes the request URL for the table state
func (s *Source[T]) URL(req Request) string {
	size := req.Page.Size
	offset := 0
	if size <= 0 {
		size = DefaultPageSize
	} else if req.Page.Index > 1 {
		offset = (req.Page.Index - 1) * size
	}

	params := []string{
		"limit=" + strconv.Itoa(size),
		"offset=" + strconv.Itoa(offset),
	}
	if req.Sort.Column != "" && req.Sort.Direction != "" {
		params = append(params,
			"order="+string(req.Sort.Direction),
			"sort="+strings.ReplaceAll(req.Sort.Column, ".", "/"),
		)
	}

	u := filter.JoinQuery(s.endpoint, req.FilterQuery)
	return filter.JoinQuery(u, strings.Join(params, "&"))
}

// Fetch issues one GET for the table state. Failures are returned to the
// caller unchanged; nothing is retried.
func (s *Source[T]) Fetch(ctx context.Context, req Request) (Result[T], error) {
	resp, err := s.getter.Get(ctx, s.URL(req), nil)
	if err != nil {
		return Result[T]{}, err
	}

	var rows []T
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &rows); err != nil {
			return Result[T]{}, fmt.Errorf("failed to decode rows: %w", err)
		}
	}
	if rows == nil {
		rows = []T{}
	}

	return Result[T]{Rows: rows, TotalRowCount: totalCount(resp.Header, len(rows))}, nil
}

func totalCount(header http.Header, fallback int) int {
	if header == nil {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(header.Get(api.TotalCountHeader)))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
