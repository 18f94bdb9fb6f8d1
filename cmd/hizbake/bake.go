package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Carmen-Shannon/oxy-hiz/engine/baker"
	"github.com/spf13/cobra"
)

func newBakeCmd() *cobra.Command {
	var flags bakeFlags
	var watch bool
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "bake [scene]",
		Short: "Bake a scene into a Hi-Z dataset",
		Long: "Loads a glTF/GLB scene, groups every renderable under the configured roots into draw " +
			"buckets and writes <scene>_hiz_data.hiz plus a YAML manifest.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			b := baker.NewBaker()
			if watch {
				return runWatch(ctx, cmd, b, &flags, args, debounce)
			}

			cfg, err := flags.resolve(cmd, args)
			if err != nil {
				return err
			}
			report, err := b.Bake(ctx, cfg)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&watch, "watch", false, "re-bake whenever the scene or config file changes")
	cmd.Flags().DurationVar(&debounce, "debounce", 250*time.Millisecond, "quiet period before a watched change triggers a bake")
	return cmd
}

func printReport(w io.Writer, r *baker.Report) {
	fmt.Fprintf(w, "%s: %d draws, %d clusters, %d bytes\n", r.OutputPath, r.Draws, r.Clusters, r.Bytes)
	fmt.Fprintf(w, "  digest   %s\n", r.Digest)
	if r.ManifestPath != "" {
		fmt.Fprintf(w, "  manifest %s\n", r.ManifestPath)
	}
	for _, p := range r.MissingRoots {
		fmt.Fprintf(w, "  missing root %q\n", p)
	}
	if r.Upload != nil {
		for _, buf := range r.Upload.Buffers {
			fmt.Fprintf(w, "  gpu %-9s %6d records %10d bytes\n", buf.Label, buf.Records, buf.Bytes)
		}
	}
}
