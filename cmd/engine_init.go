package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bantay-panahon/stormwatch/internal/engine"
	"github.com/bantay-panahon/stormwatch/internal/store"
	"github.com/bantay-panahon/stormwatch/pkg/anthropic"
	"github.com/bantay-panahon/stormwatch/pkg/openweather"
)

// keywordsFile optionally overrides the keyword tables for analyze/classify.
var keywordsFile string

// initStore opens and migrates the configured store. Callers defer Close.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initAdvisor builds the risk advisor. With no Anthropic key the AI path is
// disabled and every call runs the deterministic scorer.
func initAdvisor() (*engine.Advisor, error) {
	engineCfg := engine.Normalized(cfg.Engine)
	if keywordsFile != "" {
		overlaid, err := engine.LoadKeywordOverlay(keywordsFile, engineCfg)
		if err != nil {
			return nil, err
		}
		engineCfg = overlaid
	}
	if err := engine.ValidateConfig(engineCfg); err != nil {
		return nil, err
	}

	var ai anthropic.Client
	if cfg.Anthropic.Key != "" {
		ai = anthropic.NewClient(cfg.Anthropic.Key)
	} else {
		zap.L().Info("no anthropic key configured, running fallback-only")
	}
	return engine.NewAdvisor(ai, cfg.Anthropic, engineCfg), nil
}

// initWeather builds the telemetry client.
func initWeather() (openweather.Client, error) {
	if cfg.OpenWeather.Key == "" {
		return nil, eris.New("openweather key is required (set STORMWATCH_OPENWEATHER_KEY)")
	}
	opts := []openweather.Option{}
	if cfg.OpenWeather.BaseURL != "" {
		opts = append(opts, openweather.WithBaseURL(cfg.OpenWeather.BaseURL))
	}
	if cfg.OpenWeather.RPS > 0 {
		opts = append(opts, openweather.WithRateLimit(cfg.OpenWeather.RPS))
	}
	return openweather.NewClient(cfg.OpenWeather.Key, opts...), nil
}
