package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	vectortile "github.com/MeKo-Tech/vectortile"
)

var infoCmd = &cobra.Command{
	Use:   "info <tile.mvt>",
	Short: "Report the structure of a vector tile buffer",
	Long: `Info reads a vector tile buffer (raw, gzip, or zlib framed) and
prints per-layer feature counts, versions, and structural errors as
JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	logger.Debug("read tile buffer", "path", args[0], "bytes", len(data))

	report := vectortile.Info(data)
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
