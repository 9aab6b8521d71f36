package client

import (
	"context"

	"github.com/greyhaven-ai/datapack/internal/domain/models"
	"github.com/greyhaven-ai/datapack/internal/domain/services"
)

// Result carries an async outcome: the value or the error, never both.
type Result[T any] struct {
	Value T
	Err   error
}

// async runs fn in a goroutine and delivers its outcome on a buffered
// channel, so the result is never dropped if the caller reads late.
func async[T any](fn func() (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		value, err := fn()
		ch <- Result[T]{Value: value, Err: err}
		close(ch)
	}()
	return ch
}

// CreateAsync is the non-blocking form of Create.
func (c *Client) CreateAsync(ctx context.Context, req *services.CreateDocumentRequest) <-chan Result[*models.Document] {
	return async(func() (*models.Document, error) { return c.Create(ctx, req) })
}

// ReadAsync is the non-blocking form of Read.
func (c *Client) ReadAsync(ctx context.Context, ref string) <-chan Result[*models.Document] {
	return async(func() (*models.Document, error) { return c.Read(ctx, ref) })
}

// UpdateAsync is the non-blocking form of Update.
func (c *Client) UpdateAsync(ctx context.Context, id string, req *services.UpdateDocumentRequest) <-chan Result[*models.Document] {
	return async(func() (*models.Document, error) { return c.Update(ctx, id, req) })
}

// DeleteAsync is the non-blocking form of Delete.
func (c *Client) DeleteAsync(ctx context.Context, id string) <-chan Result[struct{}] {
	return async(func() (struct{}, error) { return struct{}{}, c.Delete(ctx, id) })
}

// ListAsync is the non-blocking form of List.
func (c *Client) ListAsync(ctx context.Context, filter models.ListFilter) <-chan Result[[]models.Summary] {
	return async(func() ([]models.Summary, error) { return c.List(ctx, filter) })
}

// SearchAsync is the non-blocking form of Search.
func (c *Client) SearchAsync(ctx context.Context, query string, filter models.ListFilter) <-chan Result[[]models.SearchHit] {
	return async(func() ([]models.SearchHit, error) { return c.Search(ctx, query, filter) })
}

// FetchContextAsync is the non-blocking form of FetchContext.
func (c *Client) FetchContextAsync(ctx context.Context, ref string, maxDepth int) <-chan Result[*models.ContextBundle] {
	return async(func() (*models.ContextBundle, error) { return c.FetchContext(ctx, ref, maxDepth) })
}
