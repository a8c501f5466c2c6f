package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/sessionauth/reaper"
)

var reapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Delete long-dead sessions once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadFromFlags(cmd)
		if err != nil {
			return err
		}

		rt, err := openRuntime(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		r, err := newReaper(rt)
		if err != nil {
			return err
		}

		n, err := r.RunOnce(cmd.Context())
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d sessions older than %s\n", n, r.Cutoff().UTC().Format("2006-01-02T15:04:05Z"))
		return nil
	},
}

func newReaper(rt *runtime) (*reaper.Reaper, error) {
	return reaper.New(rt.engine, reaper.Config{
		TTL:              rt.engine.SessionTTL(),
		Interval:         rt.cfg.Reaper.Interval,
		CutoffMultiplier: rt.cfg.Reaper.CutoffMultiplier,
	}, reaper.WithLogger(rt.logger))
}

func init() {
	rootCmd.AddCommand(reapCmd)
}
