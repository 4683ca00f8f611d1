package main

import (
	"fmt"

	"github.com/vanderheijden86/recall/internal/datasource"
	"github.com/vanderheijden86/recall/pkg/config"
	"github.com/vanderheijden86/recall/pkg/debug"
	"github.com/vanderheijden86/recall/pkg/engine"
)

// app carries the resolved configuration shared by every subcommand.
type app struct {
	configPath string
	envPath    string
	dbFlag     string
	serverFlag string

	cfg config.Config
}

// setup loads the env file, then the config, then applies flags. Flags
// beat environment variables, which beat the config file.
func (a *app) setup() error {
	if err := config.LoadEnvFile(a.envPath); err != nil {
		warnf("%v", err)
	}

	var (
		cfg config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFrom(a.configPath)
		cfg = cfg.WithEnv()
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if a.dbFlag != "" {
		cfg.Data.DB = a.dbFlag
	}
	if a.serverFlag != "" {
		cfg.Data.Server = a.serverFlag
	}
	a.cfg = cfg
	debug.Log("config: db=%q server=%q fps=%d", cfg.Data.DB, cfg.Data.Server, cfg.View.FPS)
	return nil
}

func (a *app) buildOptions() datasource.BuildOptions {
	return datasource.BuildOptions{
		Sessions: a.cfg.Data.Sessions,
		Thresholds: datasource.Thresholds{
			KnownMin:   a.cfg.Data.KnownToolMin,
			UnknownMin: a.cfg.Data.UnknownToolMin,
		},
	}
}

func (a *app) db() datasource.DBFetcher {
	return datasource.DBFetcher{Path: a.cfg.Data.DB, Options: a.buildOptions()}
}

// source returns the graph fetcher and drill-down lookup: the HTTP client
// when a server is configured, the database otherwise.
func (a *app) source() (engine.Fetcher, engine.CommandLookup) {
	if a.cfg.Data.Server != "" {
		h := engine.NewHTTPFetcher(a.cfg.Data.Server)
		return h, h
	}
	d := a.db()
	return d, d
}
