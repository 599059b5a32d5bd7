// Package resources exposes the dashboard's CRUD collections over the
// authenticated gateway.
package resources

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spec-kit/support-console/internal/httpclient"
)

// DefaultLimit is the page size used when a query leaves Limit at zero.
const DefaultLimit = 20

// Doer is satisfied by *gateway.Gateway.
type Doer interface {
	Do(ctx context.Context, req httpclient.Request, out any) error
}

// Page is the list envelope returned by every collection.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// HasMore reports whether items remain after this page.
func (p Page[T]) HasMore() bool {
	return p.Offset+len(p.Items) < p.Total
}

// ListQuery selects a page and filters it. Filters are sent as-is as query
// parameters next to offset and limit.
type ListQuery struct {
	Offset  int
	Limit   int
	Filters map[string]string
}

// Next returns the query for the page after p.
func Next[T any](q ListQuery, p Page[T]) ListQuery {
	next := q
	next.Offset = p.Offset + len(p.Items)
	return next
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	for key, val := range q.Filters {
		if val != "" {
			v.Set(key, val)
		}
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	v.Set("offset", strconv.Itoa(offset))
	v.Set("limit", strconv.Itoa(limit))
	return v
}

// Collection is a REST collection of T rooted at path.
type Collection[T any] struct {
	doer Doer
	path string
}

// NewCollection binds a collection to path, e.g. "/api/v1/tickets".
func NewCollection[T any](doer Doer, path string) *Collection[T] {
	return &Collection[T]{doer: doer, path: path}
}

// Path returns the collection root.
func (c *Collection[T]) Path() string { return c.path }

// List fetches one page.
func (c *Collection[T]) List(ctx context.Context, q ListQuery) (*Page[T], error) {
	var page Page[T]
	if err := c.doer.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: c.path, Query: q.values()}, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// All walks every page of q and returns the concatenated items.
func (c *Collection[T]) All(ctx context.Context, q ListQuery) ([]T, error) {
	var out []T
	for {
		page, err := c.List(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if !page.HasMore() || len(page.Items) == 0 {
			return out, nil
		}
		q = Next(q, *page)
	}
}

// Get fetches one item.
func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	var item T
	if err := c.doer.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: c.itemPath(id)}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create posts a new item and returns the stored version.
func (c *Collection[T]) Create(ctx context.Context, in T) (*T, error) {
	var item T
	if err := c.doer.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: c.path, Body: in}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Update applies a partial update. patch is any JSON-encodable value.
func (c *Collection[T]) Update(ctx context.Context, id string, patch any) (*T, error) {
	var item T
	if err := c.doer.Do(ctx, httpclient.Request{Method: http.MethodPatch, Path: c.itemPath(id), Body: patch}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes one item.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.doer.Do(ctx, httpclient.Request{Method: http.MethodDelete, Path: c.itemPath(id)}, nil)
}

func (c *Collection[T]) itemPath(id string) string {
	return c.path + "/" + url.PathEscape(id)
}
