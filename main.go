// main.go
//
// Entry point for the Stacks server and its maintenance commands:
//   - stacks [serve]        → run the HTTP API (default)
//   - stacks migrate        → apply embedded SQL migrations and exit
//   - stacks puzzle [date]  → print the puzzle a date resolves to
//
// Configuration comes from .stacks.toml, STACKS_* env vars, and .env.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/robalobadob/stacks/assets"
	"github.com/robalobadob/stacks/internal/config"
	"github.com/robalobadob/stacks/internal/daily"
	"github.com/robalobadob/stacks/internal/db"
	"github.com/robalobadob/stacks/internal/httpserver"
	"github.com/robalobadob/stacks/internal/store"
	"github.com/robalobadob/stacks/internal/words"
)

var rootCmd = &cobra.Command{
	Use:           "stacks",
	Short:         "Stacks daily word puzzle server",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		sqlDB, err := db.OpenMigrated(cmd.Context(), cfg.DBPath, assets.Migrations())
		if err != nil {
			return err
		}
		return sqlDB.Close()
	},
}

var puzzleCmd = &cobra.Command{
	Use:   "puzzle [date]",
	Short: "Print the puzzle for a date (default today, UTC)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cat, err := daily.LoadCatalog(cfg.DailySalt)
		if err != nil {
			return err
		}
		date := daily.DateKey(time.Now())
		if len(args) == 1 {
			date = args[0]
		}
		p, err := cat.Resolve(date)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().String("config", "", "config file (default .stacks.toml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("port", "", "HTTP port")
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	rootCmd.AddCommand(serveCmd, migrateCmd, puzzleCmd)
}

func initConfig() {
	config.Init()
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	// Defaults still apply, but a broken file should not pass silently.
	if err := config.ReadFile(cfgFile); err != nil {
		log.Warn().Err(err).Msg("config file ignored")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.OpenMigrated(ctx, cfg.DBPath, assets.Migrations())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer sqlDB.Close()

	cat, err := daily.LoadCatalog(cfg.DailySalt)
	if err != nil {
		return err
	}

	lists, err := words.New()
	if err != nil {
		return fmt.Errorf("load word lists: %w", err)
	}
	if cfg.WordsAllowedFile != "" || cfg.WordsBannedFile != "" {
		if err := lists.Load(cfg.WordsAllowedFile, cfg.WordsBannedFile); err != nil {
			log.Warn().Err(err).Msg("word list files unreadable; using embedded lists")
		}
		if err := lists.Watch(ctx, cfg.WordsAllowedFile, cfg.WordsBannedFile, nil); err != nil {
			log.Warn().Err(err).Msg("word list watcher disabled")
		}
	}
	a, b := lists.Stats()
	log.Info().Int("allowed", a).Int("banned", b).Int("puzzles", cat.Len()).Msg("loaded data")

	var snaps store.ClaimingStore = store.NewSQLite(sqlDB)
	if cfg.SnapshotStore == "memory" {
		snaps = store.NewMemory()
	}

	srv := httpserver.New(httpserver.Deps{
		Config:  cfg,
		DB:      sqlDB,
		Catalog: cat,
		Words:   lists,
		Records: daily.NewStore(sqlDB),
		Snaps:   snaps,
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting stacks server")
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		srv.Close()
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = httpSrv.Shutdown(shutdownCtx)
	// Handlers are done; write out pending snapshots.
	srv.Close()
	return err
}
