package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/Carmen-Shannon/oxy-hiz/engine/config"
	"github.com/Carmen-Shannon/oxy-hiz/engine/dataset"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	var verify bool
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "inspect <dataset.hiz>",
		Short: "Print the draws and totals of a baked dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			d, err := dataset.Decode(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			printDataset(out, d)

			if !verify {
				return nil
			}
			if manifestPath == "" {
				manifestPath = config.ManifestPathFor(args[0])
			}
			return verifyManifest(out, manifestPath, data)
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "check the dataset digest against its manifest")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "manifest path (default derived from the dataset path)")
	return cmd
}

func printDataset(w io.Writer, d *dataset.Dataset) {
	t := d.Totals()
	fmt.Fprintf(w, "format %d: %d draws, %d clusters, %d material slots, %d strings\n",
		dataset.FormatVersion, t.Draws, t.Clusters, t.Materials, t.Strings)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tMESH\tMATERIALS\tCLUSTERS\tBOUNDS")
	for i, s := range d.Summaries() {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%v .. %v\n", i, s.Mesh, len(s.Materials), s.Clusters, s.BoundsMin, s.BoundsMax)
	}
	tw.Flush()
}

func verifyManifest(w io.Writer, path string, data []byte) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no manifest at %s", path)
		}
		return err
	}
	defer f.Close()

	m, err := dataset.ReadManifest(f)
	if err != nil {
		return err
	}
	if err := m.Verify(data); err != nil {
		return err
	}
	fmt.Fprintf(w, "digest ok (%s)\n", m.Digest)
	return nil
}
