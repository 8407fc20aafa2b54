package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/localplate/waitlist/internal/socialproof"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// previewClock pins the hour and never fires its ticker; the preview
// advances the rotation itself.
type previewClock struct {
	now time.Time
}

func (c previewClock) Now() time.Time { return c.now }

func (previewClock) NewTicker(time.Duration) socialproof.Ticker { return idleTicker{} }

type idleTicker struct{}

func (idleTicker) C() <-chan time.Time { return nil }
func (idleTicker) Stop()               {}

func newPreviewCmd(newLogger func() *zap.Logger) *cobra.Command {
	var (
		hour        int
		ticks       int
		seed        uint64
		catalogPath string
		maxPer      int
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the social proof rotation a visitor would see",
		Long: `Runs one visitor's rotation against an in-memory ledger and prints each
message in order. Capped messages are skipped exactly as on the site.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if hour < 0 || hour > 23 {
				return fmt.Errorf("--hour must be within 0-23, got %d", hour)
			}
			if ticks < 1 {
				return fmt.Errorf("--ticks must be at least 1")
			}

			catalog := socialproof.DefaultCatalog()
			if catalogPath != "" {
				var err error
				if catalog, err = socialproof.LoadCatalog(catalogPath); err != nil {
					return err
				}
			}

			cfg := socialproof.DefaultConfig()
			if maxPer > 0 {
				cfg.MaxImpressionsPerMessage = maxPer
			}

			log := newLogger()
			defer log.Sync()

			out := cmd.OutOrStdout()
			shown := 0
			sink := socialproof.SinkFunc(func(_ context.Context, d socialproof.Display) error {
				shown++
				fmt.Fprintf(out, "%3d  %-12s %s %s", shown, d.Category, d.Emoji, d.Text)
				if d.Sub != "" {
					fmt.Fprintf(out, " (%s)", d.Sub)
				}
				fmt.Fprintln(out)
				return nil
			})

			opts := []socialproof.Option{
				socialproof.WithConfig(cfg),
				socialproof.WithClock(previewClock{now: time.Date(2026, 1, 1, hour, 0, 0, 0, time.UTC)}),
				socialproof.WithLogger(log),
			}
			if cmd.Flags().Changed("seed") {
				opts = append(opts, socialproof.WithRand(rand.New(rand.NewPCG(seed, seed))))
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			rotator := socialproof.NewRotator(ctx, catalog, socialproof.NewMemoryStore(), sink, opts...)
			if err := rotator.Start(ctx); err != nil {
				if errors.Is(err, socialproof.ErrNoMessages) {
					fmt.Fprintln(out, "no messages available")
					return nil
				}
				return err
			}
			defer rotator.Stop()

			for i := 1; i < ticks; i++ {
				if _, ok := rotator.ShowNext(ctx); !ok {
					fmt.Fprintf(out, "%3s  every queued message is capped\n", "-")
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&hour, "hour", time.Now().Hour(), "Hour of day (0-23) used to pick time-of-day messages")
	cmd.Flags().IntVar(&ticks, "ticks", 10, "Number of rotations to print")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Fix the random source for a repeatable preview")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "YAML catalog to preview instead of the built-in one")
	cmd.Flags().IntVar(&maxPer, "max-impressions", 0, "Override the per-message impression cap")
	return cmd
}
