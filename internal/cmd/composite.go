package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	vectortile "github.com/MeKo-Tech/vectortile"
)

var compositeCmd = &cobra.Command{
	Use:   "composite <a.mvt> <b.mvt> [more.mvt...]",
	Short: "Merge several tile buffers into one",
	Long: `Composite loads two or more tile buffers addressed at the same
tile coordinate, merges their layers (first writer wins on name
conflicts), and writes the combined buffer.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runComposite,
}

func init() {
	rootCmd.AddCommand(compositeCmd)

	compositeCmd.Flags().IntP("zoom", "z", 0, "Tile zoom level")
	compositeCmd.Flags().IntP("x", "x", 0, "Tile column")
	compositeCmd.Flags().IntP("y", "y", 0, "Tile row")
	compositeCmd.Flags().StringP("output", "o", "", "Output file path (required)")
	compositeCmd.Flags().Bool("reencode", false, "Force re-encoding instead of byte splicing")
	compositeCmd.Flags().Bool("gzip", false, "Gzip the output buffer")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"composite.zoom", "zoom"},
		{"composite.x", "x"},
		{"composite.y", "y"},
		{"composite.output", "output"},
		{"composite.reencode", "reencode"},
		{"composite.gzip", "gzip"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, compositeCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runComposite(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	z := uint32(viper.GetInt("composite.zoom"))
	x := uint32(viper.GetInt("composite.x"))
	y := uint32(viper.GetInt("composite.y"))
	output := viper.GetString("composite.output")
	if output == "" {
		return fmt.Errorf("--output is required")
	}

	target, err := vectortile.New(z, x, y)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	if err := target.SetData(data, vectortile.ParseOptions{}); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	sources := make([]*vectortile.Tile, 0, len(args)-1)
	for _, path := range args[1:] {
		src, err := vectortile.New(z, x, y)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if err := src.SetData(data, vectortile.ParseOptions{}); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		sources = append(sources, src)
	}

	opts := vectortile.DefaultCompositeOptions()
	opts.Reencode = viper.GetBool("composite.reencode")
	if err := target.Composite(sources, opts); err != nil {
		return err
	}

	logger.Info("composited tiles",
		"sources", len(sources),
		"layers", len(target.Names()),
	)

	getOpts := vectortile.DefaultGetDataOptions()
	if viper.GetBool("composite.gzip") {
		getOpts.Compression = "gzip"
	}
	out, err := target.GetData(getOpts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	return nil
}
