package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orebase/mining-intel/internal/store"
)

var (
	batchLimit       int
	batchCompany     string
	batchCountry     string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch ingest every tracked project",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		projects, err := env.Store.ListProjects(ctx, store.ProjectFilter{
			Company: batchCompany,
			Country: batchCountry,
			Limit:   batchLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list projects")
		}
		if len(projects) == 0 {
			zap.L().Info("no projects to process")
			return nil
		}

		concurrency := batchConcurrency
		if concurrency == 0 {
			concurrency = cfg.Batch.MaxConcurrentProjects
		}

		result, err := env.Pipeline.RunBatch(ctx, projects, concurrency)
		if err != nil {
			return eris.Wrap(err, "batch run")
		}

		zap.L().Info("batch finished",
			zap.Int("projects", result.Projects),
			zap.Int("succeeded", result.Succeeded),
			zap.Int("failed", result.Failed),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 100, "max number of projects to process")
	batchCmd.Flags().StringVar(&batchCompany, "company", "", "only projects of this company")
	batchCmd.Flags().StringVar(&batchCountry, "country", "", "only projects in this country")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "concurrent projects (default from config)")
	rootCmd.AddCommand(batchCmd)
}
