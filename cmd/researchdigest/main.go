package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"researchdigest/internal/app"
	"researchdigest/internal/config"
	"researchdigest/internal/logging"
	"researchdigest/internal/tracker"
)

func main() {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config file",
		Sources: cli.EnvVars("RESEARCH_DIGEST_CONFIG"),
	}

	cmd := &cli.Command{
		Name:  "researchdigest",
		Usage: "Fetches research articles, summarizes new ones, and emails digests",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Execute digest runs",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "once",
						Usage: "Run a single pass instead of the recurring schedule",
					},
				},
				Action: runAction,
			},
			{
				Name:  "track",
				Usage: "Inspect and maintain the processed-articles snapshot",
				Commands: []*cli.Command{
					{
						Name:  "show",
						Usage: "List tracked articles, newest first",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "limit", Usage: "Maximum entries to print", Value: 20},
							&cli.StringFlag{Name: "source", Usage: "Only entries from this source"},
						},
						Action: trackShowAction,
					},
					{
						Name:  "clear",
						Usage: "Evict entries older than N days",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "days", Usage: "Retention window in days", Required: true},
						},
						Action: trackClearAction,
					},
					{
						Name:  "validate",
						Usage: "Check the snapshot file, optionally dropping broken entries",
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "repair", Usage: "Rewrite the snapshot keeping only valid entries"},
						},
						Action: trackValidateAction,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cli.Command) (config.Config, error) {
	return config.Load(cmd.String("config"))
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.App.LogLevel)
	application := app.New(cfg, logger)

	if cmd.Bool("once") {
		return application.RunOnce(ctx)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return application.RunScheduled(ctx)
}

func trackShowAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store := tracker.NewStore(tracker.SnapshotPath(cfg.App.StoragePath), logging.New(cfg.App.LogLevel))
	if err := store.Load(); err != nil {
		return err
	}

	articles := store.Articles(cmd.String("source"), int(cmd.Int("limit")))
	if len(articles) == 0 {
		fmt.Println("no tracked articles")
		return nil
	}

	for _, item := range articles {
		fmt.Printf("%s  [%s]  %s\n", item.Entry.FirstSeen.Format("2006-01-02 15:04"), item.Entry.Source, item.Entry.Title)
		if item.Entry.URL != "" {
			fmt.Printf("    %s\n", item.Entry.URL)
		}
	}
	fmt.Printf("%d shown of %d tracked\n", len(articles), store.Len())
	return nil
}

func trackClearAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store := tracker.NewStore(tracker.SnapshotPath(cfg.App.StoragePath), logging.New(cfg.App.LogLevel))
	if err := store.Load(); err != nil {
		return err
	}

	removed := store.EvictOlderThan(int(cmd.Int("days")))
	if removed == 0 {
		fmt.Println("nothing to evict")
		return nil
	}
	if err := store.Persist(); err != nil {
		return err
	}
	fmt.Printf("evicted %d entries older than %d days\n", removed, cmd.Int("days"))
	return nil
}

func trackValidateAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := tracker.SnapshotPath(cfg.App.StoragePath)

	if cmd.Bool("repair") {
		kept, dropped, err := tracker.RepairSnapshot(path)
		if err != nil {
			return err
		}
		fmt.Printf("repaired snapshot: %d entries kept, %d dropped\n", kept, dropped)
		return nil
	}

	report, err := tracker.ValidateSnapshot(path)
	if err != nil {
		return err
	}
	fmt.Printf("%d valid entries\n", report.Valid)
	for _, problem := range report.Invalid {
		fmt.Printf("invalid: %s\n", problem)
	}
	if len(report.Invalid) > 0 {
		return fmt.Errorf("%d invalid entries (run with --repair to drop them)", len(report.Invalid))
	}
	return nil
}
