package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/bikeprice/app"
	"github.com/kilianp07/bikeprice/core/vocabulary"
)

var vocabCmd = &cobra.Command{
	Use:   "vocab <brand|model|location> [label]",
	Short: "Print vocabulary codes and the location fallback",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runVocab,
}

func init() {
	rootCmd.AddCommand(vocabCmd)
}

func runVocab(cmd *cobra.Command, args []string) error {
	table, err := vocabulary.ParseTable(args[0])
	if err != nil {
		return err
	}
	cfg, err := offlineConfig()
	if err != nil {
		return err
	}
	reg, err := app.LoadVocabulary(cfg)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	if len(args) == 2 {
		code, ok := reg.CodeFor(table, args[1])
		if !ok {
			return fmt.Errorf("%s %q not found", table, args[1])
		}
		fmt.Fprintf(w, "%s\t%d\n", args[1], code)
	} else {
		m, _ := reg.Mapping(table)
		for code := 0; code < m.Len(); code++ {
			label, _ := m.Label(code)
			fmt.Fprintf(w, "%d\t%s\n", code, label)
		}
	}
	if table == vocabulary.Location {
		fmt.Fprintf(w, "fallback\t%g\n", reg.LocationFallback())
	}
	return nil
}
