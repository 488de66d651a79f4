package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"MacroLens/internal/cache"
	"MacroLens/internal/model"
)

func newCacheCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the series cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge [country]",
		Short: "Drop cached series for one country, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()
			var c model.Country
			if len(args) == 1 {
				if c, err = model.ParseCountry(args[0]); err != nil {
					return err
				}
			}
			if err := a.purgeCache(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Println("cache purged")
			return nil
		},
	})
	return cmd
}

// purgeCache drops cached series for c, or everything when c is zero. Only a
// shared redis store outlives this process; purging an in-memory cache here
// would leave the running server's copy untouched.
func (a *app) purgeCache(ctx context.Context, c model.Country) error {
	if _, ok := a.store.(*cache.RedisStore); !ok || a.cache == nil {
		return fmt.Errorf("cache purge needs the redis backend, configured %q", a.cfg.Cache.Backend)
	}
	return a.cache.Invalidate(ctx, c)
}
