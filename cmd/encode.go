package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/bikeprice/app"
	"github.com/kilianp07/bikeprice/core/encoder"
	"github.com/kilianp07/bikeprice/pkg/export"
)

var encodeFormat string

var encodeCmd = &cobra.Command{
	Use:   "encode [file|-]",
	Short: "Print the feature vector for a prediction request body",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEncode,
}

func init() {
	encodeCmd.Flags().StringVarP(&encodeFormat, "format", "f", "json", "output format: json or csv")
	rootCmd.AddCommand(encodeCmd)
}

func runEncode(cmd *cobra.Command, args []string) error {
	cfg, err := offlineConfig()
	if err != nil {
		return err
	}
	reg, err := app.LoadVocabulary(cfg)
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	body, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}

	vec, err := encoder.New(reg).EncodeJSON(body)
	if err != nil {
		return err
	}
	switch encodeFormat {
	case "json":
		return export.WriteJSON(cmd.OutOrStdout(), vec)
	case "csv":
		return export.WriteCSV(cmd.OutOrStdout(), vec)
	default:
		return fmt.Errorf("unknown format %q", encodeFormat)
	}
}
