package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/wikipedia-enrich/internal/enrich"
	"github.com/sells-group/wikipedia-enrich/internal/store"
)

var (
	enrichIDs     []int64
	enrichMissing string
	enrichLimit   int
	enrichWorkers int
	enrichDryRun  bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich stored companies from Wikipedia",
	Long:  "Loads companies from the store, resolves each name to a Wikipedia article, and fills missing fields. Existing values are never overwritten.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		companies, err := st.ListCompanies(ctx, store.CompanyFilter{
			IDs:          enrichIDs,
			MissingField: enrichMissing,
			Limit:        enrichLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list companies")
		}
		if len(companies) == 0 {
			fmt.Fprintln(os.Stderr, "No companies to enrich.")
			return nil
		}

		enricher, err := newEnricher()
		if err != nil {
			return err
		}

		workers := cfg.Enrich.Workers
		if enrichWorkers > 0 {
			workers = enrichWorkers
		}

		started := time.Now().UTC()
		summary := enricher.EnrichAll(ctx, companies, workers)

		if !enrichDryRun {
			for _, r := range summary.Results {
				if !r.Found || len(r.Fields) == 0 {
					continue
				}
				if err := st.UpdateCompanyFields(ctx, r.Company.ID, r.Fields); err != nil {
					zap.L().Warn("apply fields failed",
						zap.Int64("company_id", r.Company.ID),
						zap.Error(err),
					)
				}
			}
			if err := st.RecordRun(ctx, store.RunRecord{
				ID:         summary.RunID,
				Total:      summary.Total,
				Found:      summary.Found,
				NotFound:   summary.NotFound,
				Failed:     summary.Failed,
				StartedAt:  started,
				FinishedAt: time.Now().UTC(),
			}); err != nil {
				zap.L().Warn("record run failed", zap.Error(err))
			}
		}

		formatSummary(os.Stdout, summary, enrichDryRun)
		return nil
	},
}

func init() {
	enrichCmd.Flags().Int64SliceVar(&enrichIDs, "ids", nil, "enrich only these company IDs")
	enrichCmd.Flags().StringVar(&enrichMissing, "missing", "", "enrich only companies missing this field (e.g. year_founded)")
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 0, "max companies to process (0 = all)")
	enrichCmd.Flags().IntVar(&enrichWorkers, "workers", 0, "companies in flight (overrides config)")
	enrichCmd.Flags().BoolVar(&enrichDryRun, "dry-run", false, "report what would change without writing")
	rootCmd.AddCommand(enrichCmd)
}

// formatSummary writes a per-company table followed by totals.
func formatSummary(out io.Writer, s *enrich.Summary, dryRun bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COMPANY\tARTICLE\tCONFIDENCE\tFIELDS\tNOTE")
	_, _ = fmt.Fprintln(w, "-------\t-------\t----------\t------\t----")

	for _, r := range s.Results {
		article, confidence := "-", "-"
		if r.Match != nil {
			article = r.Match.Title
			confidence = string(r.Match.Confidence)
		}
		note := r.Reason
		if r.Error != "" {
			note = "error: " + r.Error
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			r.Company.Name, article, confidence, len(r.Fields), note)
	}
	_ = w.Flush()

	mode := ""
	if dryRun {
		mode = " (dry run, nothing written)"
	}
	_, _ = fmt.Fprintf(out, "\nrun %s: %d companies, %d enriched, %d no match, %d failed%s\n",
		s.RunID, s.Total, s.Found, s.NotFound, s.Failed, mode)
}
