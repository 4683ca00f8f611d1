package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/recall/pkg/interaction"
	"github.com/vanderheijden86/recall/pkg/model"
	"github.com/vanderheijden86/recall/pkg/scene"
)

// Fetcher supplies graph payloads.
type Fetcher interface {
	FetchGraph(ctx context.Context) (*model.GraphPayload, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) (*model.GraphPayload, error)

// FetchGraph calls f.
func (f FetcherFunc) FetchGraph(ctx context.Context) (*model.GraphPayload, error) { return f(ctx) }

// Static returns a Fetcher that always yields p.
func Static(p *model.GraphPayload) Fetcher {
	return FetcherFunc(func(context.Context) (*model.GraphPayload, error) { return p, nil })
}

// CommandLookup answers drill-down requests.
type CommandLookup interface {
	Commands(ctx context.Context, q model.CommandQuery) ([]model.Command, error)
}

// QueryFor turns a drill-down into a commands query.
func QueryFor(d interaction.DrillDown, limit int) model.CommandQuery {
	if d.Kind == scene.KindTool {
		return model.CommandQuery{Tool: d.Label, Limit: limit}
	}
	return model.CommandQuery{Repo: d.Label, Limit: limit}
}

// FileFetcher reads a payload from a JSON file.
type FileFetcher struct {
	Path string
}

func (f FileFetcher) FetchGraph(ctx context.Context) (*model.GraphPayload, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open payload: %w", err)
	}
	defer file.Close()
	return model.DecodeGraphPayload(file)
}

// HTTPFetcher talks to a recall server.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPFetcher returns a fetcher for baseURL with a bounded timeout.
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (h *HTTPFetcher) get(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return resp.Body, nil
}

// FetchGraph GETs /api/graph.
func (h *HTTPFetcher) FetchGraph(ctx context.Context) (*model.GraphPayload, error) {
	body, err := h.get(ctx, "/api/graph")
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return model.DecodeGraphPayload(body)
}

// Commands GETs /api/commands with the query's filters.
func (h *HTTPFetcher) Commands(ctx context.Context, q model.CommandQuery) ([]model.Command, error) {
	path := "/api/commands"
	if enc := q.Values().Encode(); enc != "" {
		path += "?" + enc
	}
	body, err := h.get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var resp model.CommandsResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode commands: %w", err)
	}
	return resp.Commands, nil
}
