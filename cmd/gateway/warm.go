package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/etendosoftware/workspace-gateway/internal/app"
	"github.com/etendosoftware/workspace-gateway/internal/domain"
)

var (
	warmToken    string
	warmLanguage string
	warmWindows  []string
	warmTimeout  time.Duration
)

// warmCmd prefetches window metadata into the shared cache so the first
// user after a deploy does not pay for it.
var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Prefetch window metadata into the shared cache",
	Long: `warm fetches the menu and the given windows with a service token.

Only useful with REDIS_ADDR set: without a shared cache the prefetched
entries die with this process.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if warmToken == "" {
			return errors.New("--token is required")
		}
		ctx := cmd.Context()
		if warmTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, warmTimeout)
			defer cancel()
		}

		a, err := app.Build(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		s := domain.Session{Token: warmToken, Language: warmLanguage}
		menu, err := a.Metadata().GetMenu(ctx, s, true)
		if err != nil {
			return fmt.Errorf("warm menu: %w", err)
		}
		if err := a.Metadata().Warm(ctx, s, warmWindows...); err != nil {
			return err
		}
		a.Logger().Info("cache warmed", zap.Int("menu_entries", len(menu)), zap.Int("windows", len(warmWindows)))
		return nil
	},
}

func init() {
	warmCmd.Flags().StringVar(&warmToken, "token", "", "ERP bearer token used for the fetches")
	warmCmd.Flags().StringVar(&warmLanguage, "language", "", "language of the cached labels, e.g. en_US")
	warmCmd.Flags().StringSliceVar(&warmWindows, "window", nil, "window id to prefetch (repeatable)")
	warmCmd.Flags().DurationVar(&warmTimeout, "timeout", 2*time.Minute, "overall deadline")
}
