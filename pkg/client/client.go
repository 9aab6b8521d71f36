// Package client is the Go client for the document context graph
// protocol. Every operation has a blocking form and a non-blocking
// *Async form returning a result channel; both share the same wire
// contract and decode problem+json responses back into domain errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/greyhaven-ai/datapack/internal/domain"
	"github.com/greyhaven-ai/datapack/internal/domain/models"
	"github.com/greyhaven-ai/datapack/internal/domain/services"
	"github.com/greyhaven-ai/datapack/internal/identity"
)

// Client talks to a document context graph server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create makes a new document.
func (c *Client) Create(ctx context.Context, req *services.CreateDocumentRequest) (*models.Document, error) {
	var doc models.Document
	if err := c.doJSON(ctx, http.MethodPost, "/api/documents", req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Read resolves any reference form to a document.
func (c *Client) Read(ctx context.Context, ref string) (*models.Document, error) {
	var doc models.Document
	if err := c.doJSON(ctx, http.MethodGet, "/api/documents/"+url.PathEscape(ref), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ReadContent fetches the raw content behind an mdp URI.
func (c *Client) ReadContent(ctx context.Context, uri string) (string, error) {
	path, err := resourcePath(uri)
	if err != nil {
		return "", err
	}
	resp, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", decodeProblem(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// WriteContent creates or updates the document at an mdp URI with raw
// content, returning its id and uri.
func (c *Client) WriteContent(ctx context.Context, uri, content string) (id string, outURI string, err error) {
	path, err := resourcePath(uri)
	if err != nil {
		return "", "", err
	}
	resp, err := c.do(ctx, http.MethodPut, path, "text/markdown", strings.NewReader(content))
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", "", decodeProblem(resp)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("decode response: %w", err)
	}
	return out["id"], out["uri"], nil
}

// ReadMetadata fetches the metadata sub-resource of an mdp URI.
func (c *Client) ReadMetadata(ctx context.Context, uri string) (map[string]any, error) {
	path, err := resourcePath(uri)
	if err != nil {
		return nil, err
	}
	var meta map[string]any
	if err := c.doJSON(ctx, http.MethodGet, path+"/metadata", nil, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// WriteMetadata patches the metadata sub-resource of an mdp URI.
func (c *Client) WriteMetadata(ctx context.Context, uri string, patch map[string]any) (map[string]any, error) {
	path, err := resourcePath(uri)
	if err != nil {
		return nil, err
	}
	var meta map[string]any
	if err := c.doJSON(ctx, http.MethodPut, path+"/metadata", patch, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// Update applies a partial update by document id.
func (c *Client) Update(ctx context.Context, id string, req *services.UpdateDocumentRequest) (*models.Document, error) {
	var doc models.Document
	if err := c.doJSON(ctx, http.MethodPatch, "/api/documents/"+url.PathEscape(id), req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Delete removes a document by id.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/documents/"+url.PathEscape(id), nil, nil)
}

// List enumerates document summaries.
func (c *Client) List(ctx context.Context, filter models.ListFilter) ([]models.Summary, error) {
	var out struct {
		Documents []models.Summary `json:"documents"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/collections/list"+filterQuery(filter, ""), nil, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// Search runs a scored free-text search.
func (c *Client) Search(ctx context.Context, query string, filter models.ListFilter) ([]models.SearchHit, error) {
	var out struct {
		Hits []models.SearchHit `json:"hits"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/documents/search"+filterQuery(filter, query), nil, &out); err != nil {
		return nil, err
	}
	return out.Hits, nil
}

// FetchContext returns the bounded-depth neighborhood of a reference.
func (c *Client) FetchContext(ctx context.Context, ref string, maxDepth int) (*models.ContextBundle, error) {
	var bundle models.ContextBundle
	body := map[string]any{"ref": ref, "max_depth": maxDepth}
	if err := c.doJSON(ctx, http.MethodPost, "/api/context", body, &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// AddRelationship stores a typed edge on the source document.
func (c *Client) AddRelationship(ctx context.Context, req *services.AddRelationshipRequest) (string, error) {
	var out map[string]string
	path := "/api/documents/" + url.PathEscape(req.SourceID) + "/relationships"
	if err := c.doJSON(ctx, http.MethodPost, path, req, &out); err != nil {
		return "", err
	}
	return out["edge_id"], nil
}

// Relationships returns a document's edges, computed inverses included.
func (c *Client) Relationships(ctx context.Context, docID, typeFilter string) ([]models.Relationship, error) {
	path := "/api/documents/" + url.PathEscape(docID) + "/relationships"
	if typeFilter != "" {
		path += "?type=" + url.QueryEscape(typeFilter)
	}
	var out struct {
		Relationships []models.Relationship `json:"relationships"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Relationships, nil
}

// CreateCollection makes a collection.
func (c *Client) CreateCollection(ctx context.Context, name string, metadata map[string]any, parentID *string) (*models.Collection, error) {
	var coll models.Collection
	body := map[string]any{"name": name, "metadata": metadata, "parent_id": parentID}
	if err := c.doJSON(ctx, http.MethodPost, "/api/collections", body, &coll); err != nil {
		return nil, err
	}
	return &coll, nil
}

// AddMember appends a document to a collection, or inserts at position.
func (c *Client) AddMember(ctx context.Context, collectionID, docID string, position *int) error {
	body := map[string]any{"document_id": docID, "position": position}
	path := "/api/collections/" + url.PathEscape(collectionID) + "/members"
	return c.doJSON(ctx, http.MethodPost, path, body, nil)
}

// Hierarchy returns the nested collection tree.
func (c *Client) Hierarchy(ctx context.Context, rootID string) (*models.CollectionTree, error) {
	var tree models.CollectionTree
	path := "/api/collections/" + url.PathEscape(rootID) + "/hierarchy"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &tree); err != nil {
		return nil, err
	}
	return &tree, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	resp, err := c.do(ctx, method, path, contentType, reader)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeProblem(resp)
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	return c.http.Do(req)
}

// resourcePath maps an mdp URI to its server resource path.
func resourcePath(uri string) (string, error) {
	namespace, docPath, err := identity.ParseURI(uri)
	if err != nil {
		return "", err
	}
	return "/mdp/" + namespace + "/" + docPath, nil
}

func filterQuery(filter models.ListFilter, query string) string {
	values := url.Values{}
	if query != "" {
		values.Set("q", query)
	}
	if filter.Tag != "" {
		values.Set("tag", filter.Tag)
	}
	if filter.Status != "" {
		values.Set("status", string(filter.Status))
	}
	if filter.Author != "" {
		values.Set("author", filter.Author)
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// wireError keeps the server's detail text while unwrapping to the
// sentinel the server mapped the status from.
type wireError struct {
	msg      string
	sentinel error
}

func (e *wireError) Error() string {
	if e.msg == "" {
		return e.sentinel.Error()
	}
	return e.msg
}
func (e *wireError) Unwrap() error { return e.sentinel }

// decodeProblem turns a problem+json response back into the matching
// domain error so callers can use errors.Is/As across the wire.
func decodeProblem(resp *http.Response) error {
	var problem struct {
		Detail       string   `json:"detail"`
		Code         string   `json:"error"`
		Ref          string   `json:"ref"`
		Attempted    []string `json:"attempted"`
		Fields       []string `json:"fields"`
		ResourceType string   `json:"resource_type"`
		ResourceID   string   `json:"resource_id"`
		CollectionID string   `json:"collection_id"`
		ParentID     string   `json:"parent_id"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&problem)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return &domain.NotFoundError{Ref: problem.Ref, Attempted: problem.Attempted}
	case http.StatusBadRequest:
		switch problem.Code {
		case "malformed_uri":
			return &wireError{msg: problem.Detail, sentinel: identity.ErrMalformedURI}
		case "invalid_path":
			return &wireError{msg: problem.Detail, sentinel: identity.ErrInvalidPath}
		}
		return &domain.ValidationError{Message: problem.Detail, Fields: problem.Fields}
	case http.StatusConflict:
		if problem.CollectionID != "" {
			return &domain.CycleError{CollectionID: problem.CollectionID, ParentID: problem.ParentID}
		}
		return &domain.ConflictError{
			Message:      problem.Detail,
			ResourceType: problem.ResourceType,
			ResourceID:   problem.ResourceID,
		}
	default:
		return fmt.Errorf("server error %d: %s", resp.StatusCode, problem.Detail)
	}
}
