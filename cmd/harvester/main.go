package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tethys-harvester/internal/model"
	"tethys-harvester/internal/pipeline"
	"tethys-harvester/internal/store"
	"tethys-harvester/internal/tethys"
	"tethys-harvester/pkg/logging"
	"tethys-harvester/pkg/utils"
)

func main() {
	var (
		folderPath   string
		logPath      string
		outputPath   string
		baseURL      string
		noDownload   bool
		jobTimeout   string
		fetchTimeout string
		fetchWorkers int
		keyFields    []string
	)

	root := &cobra.Command{
		Use:   "harvester",
		Short: "Fetch Tethys data files, deduplicate records and write one merged file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			log, closeLog, err := logging.New(logPath)
			if err != nil {
				return err
			}
			defer closeLog()

			if err := os.MkdirAll(folderPath, 0755); err != nil {
				return err
			}
			if err := store.InitDB(filepath.Join(folderPath, "harvester.db")); err != nil {
				log.Warnf("run tracking disabled: %v", err)
			}
			defer store.CloseDB()

			job := model.HarvestJobSpec{
				FolderPath:       folderPath,
				OutputPath:       outputPath,
				SuppressDownload: noDownload,
				BaseURL:          baseURL,
				KeyFields:        keyFields,
				Concurrency: model.ConcurrencyConfig{
					Workers:      model.Workers{Fetch: fetchWorkers},
					JobTimeout:   jobTimeout,
					FetchTimeout: fetchTimeout,
				},
			}

			runID := uuid.New().String()
			if err := store.SaveRun(runID, job); err != nil {
				log.Warnf("could not record run %s: %v", runID, err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			src := tethys.NewClient(baseURL, utils.ParseDurationOr(fetchTimeout, 30*time.Second), log)
			summary, err := pipeline.Run(ctx, runID, job, src, log)
			if err != nil {
				return err
			}

			fmt.Println(summary)
			return nil
		},
	}

	root.Flags().StringVar(&folderPath, "folderpath", "", "local directory for downloaded data (required)")
	root.Flags().StringVar(&logPath, "logpath", "", "directory for run logs (required)")
	root.Flags().StringVar(&outputPath, "output", "", "consolidated output file (default: <folderpath>/tethys-merged.tsv)")
	root.Flags().StringVar(&baseURL, "base-url", tethys.DefaultBaseURL, "remote source root URL")
	root.Flags().BoolVar(&noDownload, "no-download", false, "skip downloading, use already-present files")
	root.Flags().StringVar(&jobTimeout, "job-timeout", "5m", "whole-run timeout")
	root.Flags().StringVar(&fetchTimeout, "fetch-timeout", "30s", "per-file download timeout")
	root.Flags().IntVar(&fetchWorkers, "fetch-workers", 4, "parallel downloads")
	root.Flags().StringSliceVar(&keyFields, "key-fields", nil, "identifying-key columns (default: title,date)")
	root.MarkFlagRequired("folderpath")
	root.MarkFlagRequired("logpath")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
