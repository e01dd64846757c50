package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"

	"github.com/de-tools/cluster-report/pkg/config"
	"github.com/de-tools/cluster-report/pkg/handlers/report"
	"github.com/de-tools/cluster-report/pkg/models/api"
	"github.com/de-tools/cluster-report/pkg/server"
	"github.com/de-tools/cluster-report/pkg/services/awsenv"
	"github.com/de-tools/cluster-report/pkg/services/billing"
	"github.com/de-tools/cluster-report/pkg/services/inventory"
	"github.com/de-tools/cluster-report/pkg/services/notify"
	"github.com/de-tools/cluster-report/pkg/services/reportjob"
	"github.com/de-tools/cluster-report/pkg/store/objectstore"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "report",
		Short: "Per-owner cost and usage reporting for a tag-grouped cluster",
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run one reporting pass and print the result",
		RunE:  runOnce,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Expose the reporting run over HTTP",
		RunE:  runServer,
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runOnce(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	runner, err := buildRunner(ctx)
	if err != nil {
		return err
	}

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	envelope := api.RunResult{Status: 200}
	switch result.Skipped {
	case reportjob.SkipEmptyWindow:
		envelope.Message = "report window is empty"
	case reportjob.SkipNoOwners:
		envelope.Message = "no owner-tagged instances found"
	default:
		for _, oc := range result.OwnersCost {
			envelope.OwnersCost = append(envelope.OwnersCost, api.OwnerCostEntry{
				Owner: oc.Owner,
				Total: oc.Total,
			})
		}
	}
	return json.NewEncoder(os.Stdout).Encode(envelope)
}

func runServer(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	runner, err := buildRunner(ctx)
	if err != nil {
		return err
	}

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")
	if host == "" || port == "" {
		logger.Error().Msg("missing SERVER_HOST/SERVER_PORT configuration")
		os.Exit(1)
	}

	webAPI := server.NewWebAPI(logger, server.Config{
		Addr: net.JoinHostPort(host, port),
		Dependencies: server.Dependencies{
			Runner: runner,
		},
	})
	return webAPI.Start()
}

func buildRunner(ctx context.Context) (report.JobRunner, error) {
	if err := godotenv.Load(); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("no .env file loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsenv.LoadConfig(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}
	clients := awsenv.NewClients(*awsCfg)

	return reportjob.NewRunner(
		cfg,
		inventory.NewExplorer(clients.EC2),
		billing.NewAggregator(clients.CostExplorer, cfg.UsageType),
		objectstore.NewStore(clients.S3),
		notify.NewMailer(clients.SES),
	), nil
}
