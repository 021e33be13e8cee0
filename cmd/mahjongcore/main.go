package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mahjongcore/internal/cache"
	"mahjongcore/internal/config"
	"mahjongcore/internal/logging"
	"mahjongcore/internal/match"
	"mahjongcore/internal/metrics"
	"mahjongcore/internal/oracle"
	"mahjongcore/internal/registry"
	"mahjongcore/internal/router"
	"mahjongcore/internal/server"
)

var (
	configFile string
	logLevel   string
	listenAddr string
)

var rootCmd = &cobra.Command{
	Use:   "mahjongcore",
	Short: "mahjong match core server",
	Long:  "TCP core hosting a single four-player mahjong match: session handshake, turn rotation, call-window arbitration and broadcast fan-out.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if listenAddr != "" {
			cfg.ListenAddr = listenAddr
		}

		logging.Init(cfg.AppName, cfg.Log.Level)
		runID := uuid.New().String()
		logging.Info("starting %s run=%s listen=%s", cfg.AppName, runID, cfg.ListenAddr)

		go metrics.Serve(fmt.Sprintf("0.0.0.0:%d", cfg.MetricPort))

		responses, err := cache.New(cfg.Oracle.CacheMaxCost, cfg.Oracle.CacheTTL)
		if err != nil {
			logging.Fatal("build oracle cache: %v", err)
		}
		defer responses.Close()

		ev, err := oracle.New(cfg.Oracle.ScriptsDir, responses)
		if err != nil {
			logging.Fatal("load oracle scripts: %v", err)
		}
		defer ev.Close()

		mgr := match.NewManager(ev, match.Config{CallWindowDeadline: cfg.CallWindowDeadline()})
		reg := registry.New(nil)
		rt := router.New(mgr, reg)
		reg.SetGame(rt)

		srv := server.New(cfg.ListenAddr, reg)
		if err := srv.Run(context.Background()); err != nil {
			logging.Fatal("server exited: %v", err)
		}
	},
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "", "path to a YAML/JSON/TOML config file (defaults baked in if empty)")
	rootCmd.Flags().StringVar(&logLevel, "logLevel", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.Flags().StringVar(&listenAddr, "port", "", "listen address, e.g. 0.0.0.0:3000 (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
