package main

import (
	"encoding/csv"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/wikipedia-enrich/internal/model"
)

var importCSVPath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import companies from CSV into the store",
	Long:  "Seeds the companies table from a CSV with a name column and optional field columns (website, year_founded, ...). Names that already exist are skipped.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		f, err := os.Open(importCSVPath)
		if err != nil {
			return eris.Wrap(err, "open csv")
		}
		defer f.Close() //nolint:errcheck

		companies, err := parseCompaniesCSV(f)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		inserted, err := st.ImportCompanies(ctx, companies)
		if err != nil {
			return eris.Wrap(err, "import companies")
		}

		zap.L().Info("import complete",
			zap.Int("parsed", len(companies)),
			zap.Int64("inserted", inserted),
			zap.String("csv", importCSVPath),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to CSV file (required)")
	_ = importCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(importCmd)
}

// parseCompaniesCSV reads a header row with a required name column; every
// other column must be a recognized field key.
func parseCompaniesCSV(r io.Reader) ([]model.Company, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "import: read header")
	}

	nameIdx := -1
	fieldIdx := map[int]string{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		switch {
		case key == "name":
			nameIdx = i
		case slices.Contains(model.AllFields, key):
			fieldIdx[i] = key
		default:
			return nil, eris.Errorf("import: unknown column %q", h)
		}
	}
	if nameIdx < 0 {
		return nil, eris.New("import: csv must have a name column")
	}

	var companies []model.Company
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "import: line %d", line)
		}

		name := strings.TrimSpace(rec[nameIdx])
		if name == "" {
			continue
		}

		fields := model.ExtractedFields{}
		for i, key := range fieldIdx {
			val := strings.TrimSpace(rec[i])
			if val == "" {
				continue
			}
			switch key {
			case model.FieldYearFounded, model.FieldEmployees:
				n, err := strconv.Atoi(val)
				if err != nil {
					return nil, eris.Errorf("import: line %d: %s must be a number, got %q", line, key, val)
				}
				fields.Set(key, n)
			default:
				fields.Set(key, val)
			}
		}
		companies = append(companies, model.Company{Name: name, Existing: fields})
	}
	return companies, nil
}
