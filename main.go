package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/acronymdata/complaints-etl/internal/config"
	"github.com/acronymdata/complaints-etl/internal/fetch"
	"github.com/acronymdata/complaints-etl/internal/load"
	"github.com/acronymdata/complaints-etl/internal/pipeline"
	"github.com/acronymdata/complaints-etl/internal/storage"
	"github.com/acronymdata/complaints-etl/internal/warehouse"
)

var (
	flagMethod string
	flagStart  string
	flagEnd    string
	flagTable  string
)

var rootCmd = &cobra.Command{
	Use:   "complaints-etl",
	Short: "Extract CFPB consumer complaints and load them into a warehouse",
	Long: `complaints-etl pulls consumer complaint records from the CFPB —
either the full bulk snapshot or an incremental date range from the Open
API — stages them as CSV in S3, and loads them into a warehouse table.`,
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initEnv)

	rootCmd.Flags().StringVar(&flagMethod, "method", "file", `extraction method: "file" (bulk snapshot) or "api" (incremental pull)`)
	rootCmd.Flags().StringVar(&flagStart, "start", "", "start date YYYY-MM-DD for --method api (default: yesterday)")
	rootCmd.Flags().StringVar(&flagEnd, "end", "", "end date YYYY-MM-DD for --method api (default: today)")
	rootCmd.Flags().StringVar(&flagTable, "table", "", "destination table (overrides TABLE_NAME)")
}

func initEnv() {
	// .env is optional; real deployments set variables in the environment.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if flagTable != "" {
		cfg.Warehouse.Table = flagTable
	}

	job, err := buildJob(cfg.Warehouse.Table)
	if err != nil {
		return err
	}

	store, err := storage.NewS3Store(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize object store: %w", err)
	}

	wh, err := warehouse.New(cfg.Warehouse)
	if err != nil {
		return fmt.Errorf("failed to initialize warehouse: %w", err)
	}
	defer wh.Close()

	runner := pipeline.NewRunner(
		fetch.NewBulkFetcher(cfg.Fetch),
		fetch.NewAPIFetcher(cfg.Fetch),
		load.New(store, wh, cfg.Warehouse.Table),
	)

	return runner.Run(context.Background(), job)
}

// buildJob validates the flags and assembles the run descriptor. The default
// incremental window is yesterday through today, matching the daily schedule
// the utility is normally run on.
func buildJob(table string) (pipeline.Job, error) {
	method := pipeline.Method(flagMethod)
	if method != pipeline.MethodFile && method != pipeline.MethodAPI {
		return pipeline.Job{}, fmt.Errorf(`invalid --method %q: must be "file" or "api"`, flagMethod)
	}

	now := time.Now().UTC()
	start := now.AddDate(0, 0, -1)
	end := now

	var err error
	if flagStart != "" {
		if start, err = time.Parse("2006-01-02", flagStart); err != nil {
			return pipeline.Job{}, fmt.Errorf("invalid --start %q: expected YYYY-MM-DD", flagStart)
		}
	}
	if flagEnd != "" {
		if end, err = time.Parse("2006-01-02", flagEnd); err != nil {
			return pipeline.Job{}, fmt.Errorf("invalid --end %q: expected YYYY-MM-DD", flagEnd)
		}
	}
	if start.After(end) {
		return pipeline.Job{}, fmt.Errorf("--start %s is after --end %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	return pipeline.Job{
		Method: method,
		Start:  start,
		End:    end,
		Table:  table,
	}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
