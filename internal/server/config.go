package server

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/latticekv/lattice/internal/aof"
)

// RDBSavePoint defines automatic RDB save conditions (Redis-style)
type RDBSavePoint struct {
	Seconds int // Time interval in seconds
	Changes int // Minimum number of key changes
}

type Config struct {
	Host            string
	Port            int
	MaxConnections  int
	ReadBufferSize  int
	WriteBufferSize int

	// Pipeline configuration
	MaxPipelineCommands int           // Max commands in a single pipeline batch
	SlowLogThreshold    time.Duration // Commands slower than this are logged
	CommandTimeout      time.Duration // Max time for a single command before client disconnect
	ReadTimeout         time.Duration // Timeout for reading client data (idle timeout)
	PipelineTimeout     time.Duration // Short timeout for waiting for in-flight pipelined commands

	// AOF (Append-Only File) configuration
	AOF aof.Config

	// RDB (Redis Database) configuration
	RDBFilepath  string       // Path to RDB dump file
	RDBSavePoint RDBSavePoint // Automatic save conditions

	// Replication configuration
	ReplicationRole       string // "master" or "replica"
	ReplicationMasterHost string // Master host (if replica)
	ReplicationMasterPort int    // Master port (if replica)
	ReplicaPriority       int    // Priority for Sentinel failover (0-100, higher = preferred)

	// ReplSlaveReadOnly rejects write commands issued directly against a
	// replica (the replication link itself still applies master writes via
	// ExecuteReplicatedCommand, which bypasses this check).
	ReplSlaveReadOnly bool

	// Databases is the number of numbered keyspace databases (SELECT 0..N-1)
	// this server exposes.
	Databases int

	// SlowLogMaxLen bounds the slow log's entry count (oldest entries are
	// evicted once full).
	SlowLogMaxLen int
}

func DefaultConfig() *Config {
	return &Config{
		Host:            "0.0.0.0",
		Port:            6379,
		MaxConnections:  10000,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,

		// Pipeline defaults
		MaxPipelineCommands: 1000,
		SlowLogThreshold:    10 * time.Millisecond, // Log commands slower than 10ms
		CommandTimeout:      5 * time.Second,       // Disconnect after 5s for a single command
		ReadTimeout:         5 * time.Second,       // 5 second read timeout for partial commands
		PipelineTimeout:     1 * time.Millisecond,  // Short timeout for waiting for in-flight pipelined commands

		// AOF defaults
		AOF: aof.DefaultConfig(),

		// RDB defaults (Redis-style: save after 60 seconds if 1000 keys changed)
		RDBFilepath: "dump.rdb",
		RDBSavePoint: RDBSavePoint{
			Seconds: 60,
			Changes: 1000,
		},

		// Replication defaults
		ReplicaPriority: 100,      // Default priority for failover
		ReplicationRole: "master", // Default role is master

		ReplSlaveReadOnly: true,
		Databases:         16,
		SlowLogMaxLen:     128,
	}
}

// LoadConfig builds a Config from defaults, overlaid with a config file (if
// present at configPath) and LATTICE_-prefixed environment variables, using
// viper so operators can mix a YAML file, env vars and CLI flags the way
// they already do for the rest of this stack. v is expected to already have
// any CLI flags bound (see cmd/server for the cobra/viper wiring); LoadConfig
// only supplies the file/env layers and the defaults.
func LoadConfig(v *viper.Viper, configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v.SetEnvPrefix("LATTICE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	if v.IsSet("host") {
		cfg.Host = v.GetString("host")
	}
	if v.IsSet("port") {
		cfg.Port = v.GetInt("port")
	}
	if v.IsSet("max-connections") {
		cfg.MaxConnections = v.GetInt("max-connections")
	}
	if v.IsSet("databases") {
		cfg.Databases = v.GetInt("databases")
	}
	if v.IsSet("repl-slave-ro") {
		cfg.ReplSlaveReadOnly = v.GetBool("repl-slave-ro")
	}
	if v.IsSet("slowlog-log-slower-than") {
		cfg.SlowLogThreshold = time.Duration(v.GetInt64("slowlog-log-slower-than")) * time.Microsecond
	}
	if v.IsSet("slowlog-max-len") {
		cfg.SlowLogMaxLen = v.GetInt("slowlog-max-len")
	}
	if v.IsSet("replication-role") {
		cfg.ReplicationRole = v.GetString("replication-role")
	}
	if v.IsSet("replication-master-host") {
		cfg.ReplicationMasterHost = v.GetString("replication-master-host")
	}
	if v.IsSet("replication-master-port") {
		cfg.ReplicationMasterPort = v.GetInt("replication-master-port")
	}
	if v.IsSet("replica-priority") {
		cfg.ReplicaPriority = v.GetInt("replica-priority")
	}

	return cfg, nil
}
