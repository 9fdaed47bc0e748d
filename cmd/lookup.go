package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/wikipedia-enrich/internal/model"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <company name>",
	Short: "Enrich a single ad-hoc company name without touching the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enricher, err := newEnricher()
		if err != nil {
			return err
		}

		result := enricher.Enrich(cmd.Context(), model.Company{Name: args[0]})

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}
