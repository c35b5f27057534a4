package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	vectortile "github.com/MeKo-Tech/vectortile"
)

var togeojsonCmd = &cobra.Command{
	Use:   "togeojson <tile.mvt>",
	Short: "Convert tile layers back to GeoJSON",
	Long: `Togeojson decodes a vector tile buffer and prints its features as
WGS84 GeoJSON. The tile coordinate is needed to place the grid
coordinates on the globe.`,
	Args: cobra.ExactArgs(1),
	RunE: runToGeoJSON,
}

func init() {
	rootCmd.AddCommand(togeojsonCmd)

	togeojsonCmd.Flags().IntP("zoom", "z", 0, "Tile zoom level")
	togeojsonCmd.Flags().IntP("x", "x", 0, "Tile column")
	togeojsonCmd.Flags().IntP("y", "y", 0, "Tile row")
	togeojsonCmd.Flags().StringP("layer", "l", vectortile.SelectorAll, "Layer name, index, __all__ or __array__")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"togeojson.zoom", "zoom"},
		{"togeojson.x", "x"},
		{"togeojson.y", "y"},
		{"togeojson.layer", "layer"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, togeojsonCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runToGeoJSON(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	z := viper.GetInt("togeojson.zoom")
	x := viper.GetInt("togeojson.x")
	y := viper.GetInt("togeojson.y")
	selector := viper.GetString("togeojson.layer")

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	tile, err := vectortile.New(uint32(z), uint32(x), uint32(y))
	if err != nil {
		return err
	}
	if err := tile.SetData(data, vectortile.ParseOptions{}); err != nil {
		return err
	}

	logger.Debug("decoded tile", "layers", tile.Names())

	out, err := tile.ToGeoJSON(selector)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
