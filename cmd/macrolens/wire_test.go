package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroLens/internal/config"
	"MacroLens/internal/model"
)

func TestNewApp_CacheBackends(t *testing.T) {
	cfg := &config.Config{}
	cfg.Cache.Backend = config.CacheNone
	a, err := newApp(cfg)
	require.NoError(t, err)
	assert.Nil(t, a.cache)
	assert.False(t, strings.HasPrefix(a.provider.Name(), "cached("))

	cfg.Cache.Backend = config.CacheMemory
	cfg.Cache.Size = 8
	cfg.Sources.RESTBaseURL = "https://rest.example"
	a, err = newApp(cfg)
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.cache)
	assert.True(t, strings.HasPrefix(a.provider.Name(), "cached("))
	assert.Contains(t, a.provider.Name(), "rest")
}

func TestPurgeCache_RejectsProcessLocalBackends(t *testing.T) {
	for _, backend := range []string{config.CacheNone, config.CacheMemory} {
		cfg := &config.Config{}
		cfg.Cache.Backend = backend
		cfg.Cache.Size = 8
		a, err := newApp(cfg)
		require.NoError(t, err)
		err = a.purgeCache(context.Background(), "")
		require.Error(t, err, backend)
		assert.Contains(t, err.Error(), "redis")
		a.Close()
	}

	// An unreachable redis falls back to memory, which is not purgeable either.
	cfg := &config.Config{}
	cfg.Cache.Backend = config.CacheRedis
	cfg.Cache.Size = 8
	cfg.Cache.Redis.Addr = "127.0.0.1:1"
	a, err := newApp(cfg)
	require.NoError(t, err)
	defer a.Close()
	assert.Error(t, a.purgeCache(context.Background(), ""))
}

func TestNewApp_IndexSymbols(t *testing.T) {
	cfg := &config.Config{}
	cfg.Cache.Backend = config.CacheNone
	cfg.Sources.IndexSymbols = map[string]string{"atlantis": "^X"}
	_, err := newApp(cfg)
	assert.Error(t, err)

	cfg.Sources.IndexSymbols = map[string]string{"sgp": "^STI"}
	_, err = newApp(cfg)
	assert.NoError(t, err)
}

func TestDefaultPeriod(t *testing.T) {
	a := &app{cfg: &config.Config{}}
	a.cfg.Reports.DefaultPeriod = "5Y"
	p, err := a.defaultPeriod("")
	require.NoError(t, err)
	assert.Equal(t, "5Y", p.String())

	p, err = a.defaultPeriod("ytd")
	require.NoError(t, err)
	assert.Equal(t, model.MustPeriod("YTD"), p)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"GDP", "INFLATION"}, splitList(" GDP,,INFLATION , "))
	assert.Empty(t, splitList(" , "))
}
