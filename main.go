package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/paologalligit/films-feed/aggregate"
	"github.com/paologalligit/films-feed/client"
	"github.com/paologalligit/films-feed/config"
	"github.com/paologalligit/films-feed/feed"
	"github.com/paologalligit/films-feed/logging"
	"github.com/paologalligit/films-feed/persistence"
	"github.com/paologalligit/films-feed/publish"
	"github.com/paologalligit/films-feed/updatefilms"
)

// CLI flags
var (
	envFileFlag         string
	startDateFlag       string
	endDateFlag         string
	outputFlag          string
	workersFlag         int
	pageSizeFlag        int
	includeUpcomingFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "update-films",
	Short: "Build the now-showing feed for the cinema website",
	Long: `update-films pulls the upcoming sessions from the ticketing API, resolves
film and attribute details, and writes a JSON feed grouped by film and day.
The file is only rewritten when its content changed.

Examples:
  update-films
  update-films --output /var/www/data/films.json --workers 4
  update-films --start-date 2025-06-01 --end-date 2025-06-15
  update-films checksum films.json`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runUpdate,
}

var checksumCmd = &cobra.Command{
	Use:           "checksum <file>",
	Short:         "Print the embedded and recomputed checksum of a feed file",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runChecksum,
}

func init() {
	rootCmd.Flags().StringVar(&envFileFlag, "env-file", "", "Environment file to load (default .env when present)")
	rootCmd.Flags().StringVar(&startDateFlag, "start-date", "", "First day of the session window, YYYY-MM-DD (default today)")
	rootCmd.Flags().StringVar(&endDateFlag, "end-date", "", "Last day of the session window, YYYY-MM-DD (default start+30)")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output file (overrides OUTPUT_PATH)")
	rootCmd.Flags().IntVarP(&workersFlag, "workers", "w", 0, "Concurrent detail lookups (overrides WORKERS)")
	rootCmd.Flags().IntVar(&pageSizeFlag, "page-size", 0, "Sessions per page, 0 disables paging (overrides PAGE_SIZE)")
	rootCmd.Flags().BoolVar(&includeUpcomingFlag, "include-upcoming", false, "List films opening later without showings (overrides INCLUDE_UPCOMING)")
	rootCmd.AddCommand(checksumCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func runUpdate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFileFlag)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("start-date") {
		cfg.StartDate = startDateFlag
	}
	if flags.Changed("end-date") {
		cfg.EndDate = endDateFlag
	}
	if flags.Changed("output") {
		cfg.OutputPath = outputFlag
	}
	if flags.Changed("workers") {
		cfg.Workers = workersFlag
	}
	if flags.Changed("page-size") {
		cfg.PageSize = pageSizeFlag
	}
	if flags.Changed("include-upcoming") {
		cfg.IncludeUpcoming = includeUpcomingFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Init(cfg.LogLevel)
	runId := uuid.NewString()
	logger := logging.ForRun(runId)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport, err := client.NewTransport(cfg.ProxyUrl)
	if err != nil {
		return err
	}
	extractor := client.New(&client.Options{
		BaseUrl:   cfg.ApiUrl,
		Token:     cfg.Token,
		Transport: transport,
		Timeout:   cfg.RequestTimeout,
	})

	recorders, closeRecorders := buildRecorders(ctx, cfg, logger)
	defer closeRecorders()

	var publisher publish.Publisher
	if cfg.GCSBucket != "" {
		gcs, err := publish.NewGCS(ctx, cfg.GCSBucket)
		if err != nil {
			logger.Error().Err(err).Str("bucket", cfg.GCSBucket).Msg("publisher disabled")
		} else {
			defer gcs.Close()
			publisher = gcs
		}
	}

	logger.Info().
		Str("api", cfg.ApiUrl).
		Str("output", cfg.OutputPath).
		Int("workers", cfg.Workers).
		Int("page_size", cfg.PageSize).
		Msg("starting update")

	result, err := updatefilms.RunUpdateFilms(ctx, &updatefilms.UpdateFilmsOptions{
		RunId:           runId,
		Client:          extractor,
		CinemaId:        cfg.CinemaId,
		CinemaName:      cfg.CinemaName,
		StartDate:       cfg.StartDate,
		EndDate:         cfg.EndDate,
		PageSize:        cfg.PageSize,
		Workers:         cfg.Workers,
		IncludeUpcoming: cfg.IncludeUpcoming,
		Aggregate: aggregate.Options{
			LeadTime:          cfg.LeadTime,
			Location:          cfg.Location,
			LowSeatsThreshold: cfg.LowSeatsThreshold,
			LegendExclude:     cfg.LegendExclude,
		},
		Writer:    feed.NewWriter(cfg.OutputPath),
		Recorders: recorders,
		Publisher: publisher,
		Logger:    logger,
	})
	if err != nil {
		if errors.Is(err, updatefilms.ErrNoSessions) {
			logger.Error().Msg("upstream returned no sessions, previous feed kept")
		}
		return err
	}

	if result.Outcome == feed.Written {
		fmt.Printf("🏁 Done! %d films written to %s\n", result.Films, cfg.OutputPath)
	} else {
		fmt.Printf("🏁 Done! %s unchanged\n", cfg.OutputPath)
	}
	fmt.Printf("📊 %d sessions kept, %d ignored, %d lookups (%d cached, %d failed)\n",
		result.Stats.Kept, result.Stats.Ignored,
		result.Enrichment.Lookups, result.Enrichment.Hits, result.Enrichment.Failures)
	return nil
}

// buildRecorders sets up the optional run history sinks. A sink that cannot
// be opened is skipped.
func buildRecorders(ctx context.Context, cfg *config.Config, logger zerolog.Logger) ([]persistence.Persistence, func()) {
	var recorders []persistence.Persistence
	closeFn := func() {}
	if cfg.RunLog != "" {
		recorders = append(recorders, persistence.NewFilePersistence(cfg.RunLog))
	}
	if cfg.DatabaseUrl != "" {
		pool, err := persistence.NewPostgresPool(ctx, cfg.DatabaseUrl)
		if err != nil {
			logger.Error().Err(err).Msg("run history database disabled")
			return recorders, closeFn
		}
		if err := persistence.InitPostgresSchema(ctx, pool); err != nil {
			logger.Error().Err(err).Msg("run history database disabled")
			pool.Close()
			return recorders, closeFn
		}
		recorders = append(recorders, persistence.NewPostgresPersistence(pool))
		closeFn = pool.Close
	}
	return recorders, closeFn
}

func runChecksum(cmd *cobra.Command, args []string) error {
	logging.Init("info")
	embedded, recomputed, err := feed.Verify(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("embedded:   %s\n", embedded)
	fmt.Printf("recomputed: %s\n", recomputed)
	if embedded != recomputed {
		log.Warn().Str("file", args[0]).Msg("checksum mismatch")
		return fmt.Errorf("checksum mismatch in %s", args[0])
	}
	fmt.Println("✅ checksum matches")
	return nil
}
