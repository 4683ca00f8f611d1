package datasource

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/recall/pkg/debug"
	"github.com/vanderheijden86/recall/pkg/metrics"
	"github.com/vanderheijden86/recall/pkg/model"
)

// DefaultSessionWindow is how many recent sessions feed the graph.
const DefaultSessionWindow = 500

// BuildOptions tunes BuildPayload.
type BuildOptions struct {
	Sessions   int
	Workers    int
	Thresholds Thresholds
}

// DefaultBuildOptions returns the standard graph window.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{Sessions: DefaultSessionWindow, Workers: 8, Thresholds: DefaultThresholds()}
}

func (o BuildOptions) normalized() BuildOptions {
	d := DefaultBuildOptions()
	if o.Sessions <= 0 {
		o.Sessions = d.Sessions
	}
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	if o.Thresholds == (Thresholds{}) {
		o.Thresholds = d.Thresholds
	}
	return o
}

// History loads the most recent sessions with their commands. Per-session
// command queries run concurrently.
func (r *Reader) History(ctx context.Context, sessions, workers int) ([]SessionHistory, error) {
	list, err := r.Sessions(ctx, sessions, 0)
	if err != nil {
		return nil, err
	}
	out := make([]SessionHistory, len(list))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, s := range list {
		g.Go(func() error {
			cmds, err := r.SessionCommands(gctx, s.ID)
			if err != nil {
				return fmt.Errorf("session %s: %w", s.ID, err)
			}
			out[i] = SessionHistory{Session: s, Commands: cmds}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// BuildPayload computes the graph payload from the recent session window.
func (r *Reader) BuildPayload(ctx context.Context, opts BuildOptions) (*model.GraphPayload, error) {
	defer metrics.Timer(metrics.PayloadBuild)()
	opts = opts.normalized()

	history, err := r.History(ctx, opts.Sessions, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	p := Aggregate(history, opts.Thresholds)
	repos, tools := p.Counts()
	debug.Log("datasource: built payload from %d sessions: %d repos, %d tools, %d edges",
		len(history), repos, tools, len(p.Edges))
	return p, nil
}

// FetchGraph builds a payload with default options.
func (r *Reader) FetchGraph(ctx context.Context) (*model.GraphPayload, error) {
	return r.BuildPayload(ctx, DefaultBuildOptions())
}

// DBFetcher opens the database for each request, so a rewritten file is
// always read fresh.
type DBFetcher struct {
	Path    string
	Options BuildOptions
}

func (f DBFetcher) open() (*Reader, error) {
	path, err := Resolve(f.Path)
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// FetchGraph opens the database and builds a payload.
func (f DBFetcher) FetchGraph(ctx context.Context) (*model.GraphPayload, error) {
	r, err := f.open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.BuildPayload(ctx, f.Options)
}

// Commands opens the database and runs q.
func (f DBFetcher) Commands(ctx context.Context, q model.CommandQuery) ([]model.Command, error) {
	r, err := f.open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Commands(ctx, q)
}

// SessionSummaries lists sessions newest first with per-session aggregates.
func (r *Reader) SessionSummaries(ctx context.Context, limit, offset int) ([]model.SessionSummary, error) {
	sessions, err := r.Sessions(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]model.SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		cmds, err := r.SessionCommands(ctx, s.ID)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", s.ID, err)
		}
		out = append(out, model.Summarize(s, cmds))
	}
	return out, nil
}

// Stats opens the database and counts its contents.
func (f DBFetcher) Stats(ctx context.Context) (model.Stats, error) {
	r, err := f.open()
	if err != nil {
		return model.Stats{}, err
	}
	defer r.Close()
	return r.Stats(ctx)
}

// SessionSummaries opens the database and lists sessions.
func (f DBFetcher) SessionSummaries(ctx context.Context, limit, offset int) ([]model.SessionSummary, error) {
	r, err := f.open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.SessionSummaries(ctx, limit, offset)
}
