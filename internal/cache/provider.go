package cache

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"MacroLens/internal/collector"
	"MacroLens/internal/model"
)

// fetchTimeout bounds one upstream fetch shared by collapsed callers.
const fetchTimeout = 2 * time.Minute

// Provider is a collector.SeriesProvider that serves repeated requests from
// a Store. Entries expire after TTL; Invalidate drops them early. Failed
// fetches are never cached.
type Provider struct {
	next  collector.SeriesProvider
	store Store
	ttl   time.Duration
	group singleflight.Group
}

// NewProvider wraps next with store.
func NewProvider(next collector.SeriesProvider, store Store, ttl time.Duration) *Provider {
	return &Provider{next: next, store: store, ttl: ttl}
}

func (p *Provider) Name() string { return "cached(" + p.next.Name() + ")" }

// Key identifies one request. Countries come first so Invalidate can purge
// by prefix.
func Key(c model.Country, id model.SeriesID, r model.DateRange) string {
	return string(c) + "|" + string(id) + "|" + r.String()
}

func (p *Provider) Fetch(ctx context.Context, c model.Country, id model.SeriesID, r model.DateRange) (model.TimeSeries, error) {
	key := Key(c, id, r)
	if ts, ok, err := p.store.Get(ctx, key); err != nil {
		log.Printf("[WARN] cache get %s: %v", key, err)
	} else if ok {
		return ts, nil
	}

	// The flight is shared, so it must not die with whichever caller started it.
	ch := p.group.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		ts, err := p.next.Fetch(fctx, c, id, r)
		if err != nil {
			return model.TimeSeries{}, err
		}
		if err := p.store.Set(fctx, key, ts, p.ttl); err != nil {
			log.Printf("[WARN] cache set %s: %v", key, err)
		}
		return ts, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return model.TimeSeries{}, res.Err
		}
		return res.Val.(model.TimeSeries), nil
	case <-ctx.Done():
		return model.TimeSeries{}, ctx.Err()
	}
}

// Invalidate drops cached series for one country, or everything when c is "".
func (p *Provider) Invalidate(ctx context.Context, c model.Country) error {
	prefix := ""
	if c != "" {
		prefix = string(c) + "|"
	}
	return p.store.Purge(ctx, prefix)
}
