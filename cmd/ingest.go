package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orebase/mining-intel/internal/model"
)

var (
	ingestProjectID string
	ingestProject   string
	ingestCompany   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest and extract one project's source documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if ingestProjectID == "" && ingestProject == "" {
			return eris.New("either --id or --project is required")
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var project *model.Project
		if ingestProjectID != "" {
			project, err = env.Store.GetProject(ctx, ingestProjectID)
		} else {
			project, err = env.Store.FindProject(ctx, ingestProject, ingestCompany)
		}
		if err != nil {
			return eris.Wrap(err, "look up project")
		}

		result, err := env.Pipeline.Run(ctx, project)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("ingest complete",
			zap.String("project", project.Name),
			zap.Int("documents_extracted", result.DocumentsExtracted),
			zap.Int("documents_skipped", result.DocumentsSkipped),
			zap.Int("fields_populated", result.FieldsPopulated),
		)

		// Print the merged record JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Merged)
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestProjectID, "id", "", "project ID")
	ingestCmd.Flags().StringVar(&ingestProject, "project", "", "project name")
	ingestCmd.Flags().StringVar(&ingestCompany, "company", "", "company name (disambiguates --project)")
	rootCmd.AddCommand(ingestCmd)
}
