package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/latticekv/lattice/internal/aof"
	"github.com/latticekv/lattice/internal/server"
)

func main() {
	v := viper.New()
	var configPath string

	root := &cobra.Command{
		Use:   "lattice-server",
		Short: "Start the lattice key-value server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v, configPath)
		},
	}

	flags := root.Flags()
	flags.Int("port", 6379, "Port to listen on")
	flags.String("host", "127.0.0.1", "Host to bind to")
	flags.Int("max-connections", 10000, "Maximum concurrent client connections")
	flags.Int("databases", 16, "Number of numbered keyspace databases")
	flags.Bool("repl-slave-ro", true, "Reject writes issued directly against a replica")
	flags.Int64("slowlog-log-slower-than", 10000, "Log commands slower than this many microseconds")
	flags.Int("slowlog-max-len", 128, "Maximum number of entries kept in the slow log")
	flags.String("replication-role", "master", "Replication role (master/replica)")
	flags.String("replication-master-host", "", "Master host for replica")
	flags.Int("replication-master-port", 6379, "Master port for replica")
	flags.Int("replica-priority", 100, "Replica priority for failover")
	flags.StringVar(&configPath, "config", "", "Path to a YAML config file")

	if err := v.BindPFlags(flags); err != nil {
		fmt.Fprintf(os.Stderr, "failed to bind flags: %v\n", err)
		os.Exit(1)
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(v *viper.Viper, configPath string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := server.LoadConfig(v, configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Fields server.LoadConfig does not source from viper (pipeline
	// timeouts, AOF, RDB) are set here, replacing their DefaultConfig values
	// with settings tuned for a foreground server process.
	cfg.MaxPipelineCommands = 1000
	cfg.CommandTimeout = 30 * time.Second
	cfg.ReadTimeout = 60 * time.Second
	cfg.PipelineTimeout = 1 * time.Second
	cfg.AOF = aof.Config{
		Enabled:    true,
		Filepath:   "appendonly.aof",
		SyncPolicy: aof.SyncEverySecond,
		BufferSize: 4096,
	}
	cfg.RDBFilepath = "dump.rdb"
	cfg.RDBSavePoint = server.RDBSavePoint{Seconds: 60, Changes: 1000}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.NewRedisServer(cfg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutting down server")
		cancel()
		srv.Shutdown()
	}()

	logger.Info("starting server", zap.String("host", cfg.Host), zap.Int("port", cfg.Port))
	return srv.Start(ctx)
}
