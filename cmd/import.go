package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orebase/mining-intel/internal/fetcher"
	"github.com/orebase/mining-intel/internal/model"
	"github.com/orebase/mining-intel/internal/store"
)

var importFilePath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a project list from CSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		var rows []fetcher.ProjectRow
		switch strings.ToLower(filepath.Ext(importFilePath)) {
		case ".xlsx":
			rows, err = fetcher.ReadProjectXLSX(importFilePath)
		case ".csv":
			var f *os.File
			f, err = os.Open(importFilePath)
			if err != nil {
				return eris.Wrapf(err, "open %s", importFilePath)
			}
			defer f.Close()
			rows, err = fetcher.ReadProjectCSV(ctx, f)
		default:
			return eris.Errorf("unsupported file type: %s", importFilePath)
		}
		if err != nil {
			return eris.Wrap(err, "parse project list")
		}

		projects := make([]model.Project, 0, len(rows))
		for _, row := range rows {
			projects = append(projects, model.Project{
				Name:    row.Name,
				Company: row.Company,
				Ticker:  row.Ticker,
				Country: row.Country,
				URLs:    row.URLs,
			})
		}

		// Postgres bulk-upserts in one transaction; SQLite upserts row by row.
		if ps, ok := st.(*store.PostgresStore); ok {
			if _, err := ps.ImportProjects(ctx, projects); err != nil {
				return eris.Wrap(err, "bulk import")
			}
		} else {
			for i := range projects {
				if _, err := st.UpsertProject(ctx, &projects[i]); err != nil {
					return eris.Wrapf(err, "upsert project %s", projects[i].Name)
				}
			}
		}

		zap.L().Info("import complete",
			zap.Int("projects", len(projects)),
			zap.String("file", importFilePath),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFilePath, "file", "", "path to CSV or XLSX project list (required)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
