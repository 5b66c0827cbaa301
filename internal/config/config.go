package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/setavenger/xfp-indexer/internal/logging"
	"github.com/spf13/viper"
)

func LoadConfigs(pathToConfig string) {
	if err := Load(viper.New(), pathToConfig); err != nil {
		logging.L.Fatal().Err(err).Msg("invalid configuration")
	}

	logging.L.Info().
		Int64("sync_start_height", SyncStartHeight).
		Int64("rollback_window", RollbackWindow).
		Dur("poll_interval", PollInterval).
		Int("min_inscription_length", MinInscriptionLength).
		Str("db_backend", BackendToString(Backend)).
		Str("block_source", SourceToString(Source)).
		Str("node", NodeEndpoint).
		Msg("configuration loaded")
}

// Load reads the config file (if present) and the environment into the package vars.
func Load(v *viper.Viper, pathToConfig string) error {
	if pathToConfig != "" {
		v.SetConfigFile(pathToConfig)
		if err := v.ReadInConfig(); err != nil {
			logging.L.Warn().Err(err).Msg("No config file detected")
		}
	}

	/* set defaults */
	v.SetDefault("http_host", HTTPHost)
	v.SetDefault("grpc_host", GRPCHost)
	v.SetDefault("bitcoin_node", NodeEndpoint)
	v.SetDefault("block_source", "rest")
	v.SetDefault("sync_start_height", SyncStartHeight)
	v.SetDefault("rollback_window", RollbackWindow)
	v.SetDefault("poll_interval", PollInterval)
	v.SetDefault("min_inscription_length", MinInscriptionLength)
	v.SetDefault("max_parallel_decoders", MaxParallelDecoders)
	v.SetDefault("request_timeout", RequestTimeout)
	v.SetDefault("db_backend", "pebble")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_path", "")

	v.AutomaticEnv()
	v.BindEnv("http_host", "HTTP_HOST")
	v.BindEnv("port", "PORT")
	v.BindEnv("grpc_host", "GRPC_HOST")
	v.BindEnv("bitcoin_node", "BITCOIN_NODE")
	v.BindEnv("block_source", "BLOCK_SOURCE")
	v.BindEnv("cookie_path", "COOKIE_PATH")
	v.BindEnv("rpc_pass", "RPC_PASS")
	v.BindEnv("rpc_user", "RPC_USER")
	v.BindEnv("sync_start_height", "START_HEIGHT", "SYNC_START_HEIGHT")
	v.BindEnv("rollback_window", "ROLLBACK_WINDOW")
	v.BindEnv("poll_interval", "POLL_INTERVAL")
	v.BindEnv("min_inscription_length", "MIN_INSCRIPTION_LENGTH")
	v.BindEnv("max_parallel_decoders", "MAX_PARALLEL_DECODERS")
	v.BindEnv("request_timeout", "REQUEST_TIMEOUT")
	v.BindEnv("db_backend", "DB_BACKEND")
	v.BindEnv("log_level", "LOG_LEVEL")
	v.BindEnv("log_path", "LOG_PATH")

	/* read and set config variables */
	// General
	HTTPHost = v.GetString("http_host")
	if port := v.GetString("port"); port != "" {
		// PORT only overrides the port part of the listen address
		host := HTTPHost
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		HTTPHost = host + ":" + port
	}
	GRPCHost = v.GetString("grpc_host")
	LogLevel = v.GetString("log_level")
	if p := v.GetString("log_path"); p != "" {
		LogsPath = p
	}

	// Sync
	SyncStartHeight = v.GetInt64("sync_start_height")
	RollbackWindow = v.GetInt64("rollback_window")
	PollInterval = v.GetDuration("poll_interval")
	MinInscriptionLength = v.GetInt("min_inscription_length")
	MaxParallelDecoders = v.GetInt("max_parallel_decoders")
	RequestTimeout = v.GetDuration("request_timeout")

	// Node
	NodeEndpoint = strings.TrimRight(v.GetString("bitcoin_node"), "/")
	CookiePath = v.GetString("cookie_path")
	RpcPass = v.GetString("rpc_pass")
	RpcUser = v.GetString("rpc_user")

	logging.SetLogLevel(logging.ParseLevel(LogLevel))

	switch v.GetString("db_backend") {
	case "pebble":
		Backend = BackendPebble
	case "leveldb":
		Backend = BackendLevelDB
	case "sqlite":
		Backend = BackendSQLite
	default:
		return errors.Newf("db_backend undefined: %q", v.GetString("db_backend"))
	}

	switch v.GetString("block_source") {
	case "rest":
		Source = SourceREST
	case "rpc":
		Source = SourceRPC
	default:
		return errors.Newf("block_source undefined: %q", v.GetString("block_source"))
	}

	if RollbackWindow < 1 {
		return errors.New("rollback_window must be at least 1")
	}
	if MinInscriptionLength < 0 {
		return errors.New("min_inscription_length must not be negative")
	}
	if PollInterval <= 0 {
		return errors.New("poll_interval must be positive")
	}
	if MaxParallelDecoders < 1 {
		MaxParallelDecoders = 1
	}

	if Source == SourceRPC {
		if CookiePath != "" {
			data, err := os.ReadFile(CookiePath)
			if err != nil {
				return errors.Wrap(err, "error reading cookie file")
			}

			credentials := strings.Split(strings.TrimSpace(string(data)), ":")
			if len(credentials) != 2 {
				return errors.New("cookie file is invalid")
			}
			RpcUser = credentials[0]
			RpcPass = credentials[1]
		}

		if RpcUser == "" {
			return errors.New("rpc user not set")
		}

		if RpcPass == "" {
			return errors.New("rpc pass not set")
		}
	}

	return nil
}
