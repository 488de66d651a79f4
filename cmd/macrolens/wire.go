package main

import (
	"context"
	"fmt"
	"log"

	"MacroLens/internal/cache"
	"MacroLens/internal/collector"
	"MacroLens/internal/config"
	"MacroLens/internal/model"
)

// app holds the wired sources shared by every command.
type app struct {
	cfg      *config.Config
	provider collector.SeriesProvider
	prices   collector.PriceFetcher
	cache    *cache.Provider
	store    cache.Store
}

func loadApp(cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return newApp(cfg)
}

func newApp(cfg *config.Config) (*app, error) {
	timeout := cfg.FetchTimeout()

	var macro collector.SeriesProvider
	if cfg.Sources.RESTBaseURL != "" {
		macro = collector.NewRESTProvider(cfg.Sources.RESTBaseURL, cfg.Sources.RESTAPIKey, cfg.Proxy, timeout)
	} else {
		macro = collector.NewWorldBankProvider(cfg.Sources.WorldBankURL, cfg.Proxy, timeout)
	}

	yahoo := collector.NewYahooFetcher(cfg.Proxy, timeout)
	if cfg.Sources.YahooURL != "" {
		yahoo.BaseURL = cfg.Sources.YahooURL
	}
	indexes := collector.NewYahooProvider(yahoo)
	for code, symbol := range cfg.Sources.IndexSymbols {
		c, err := model.ParseCountry(code)
		if err != nil {
			return nil, fmt.Errorf("sources.index_symbols: %w", err)
		}
		indexes.Indexes[c] = symbol
	}

	router := collector.NewRouter().
		Route(model.KindMacro, macro).
		Route(model.KindMarket, indexes)

	a := &app{cfg: cfg, provider: router, prices: yahoo}

	switch cfg.Cache.Backend {
	case config.CacheMemory:
		a.store = cache.NewMemoryStore(cfg.Cache.Size, cfg.CacheTTL())
	case config.CacheRedis:
		rs := cache.NewRedisStore(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err := rs.Ping(context.Background()); err != nil {
			log.Printf("[WARN] redis cache unreachable, caching in memory instead: %v", err)
			rs.Close()
			a.store = cache.NewMemoryStore(cfg.Cache.Size, cfg.CacheTTL())
		} else {
			a.store = rs
		}
	}
	if a.store != nil {
		a.cache = cache.NewProvider(router, a.store, cfg.CacheTTL())
		a.provider = a.cache
	}
	log.Printf("[INFO] data source: %s", a.provider.Name())
	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Printf("[WARN] close cache: %v", err)
		}
	}
}

func (a *app) defaultPeriod(flag string) (model.Period, error) {
	if flag == "" {
		flag = a.cfg.Reports.DefaultPeriod
	}
	return model.ParsePeriod(flag)
}
