package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

var (
	LogLevel = "info"
)

const (
	ConfigFileName       string = "xfp-indexer.toml"
	DefaultBaseDirectory string = "./data"

	// DefaultMinInscriptionLength is the shortest text body (in runes) that is handed to the
	// descriptor decoder. Older deployments used 200.
	DefaultMinInscriptionLength = 100

	// DefaultRollbackWindow is how many blocks the cursor steps back when a reorg is seen.
	DefaultRollbackWindow int64 = 6

	DefaultPollInterval = 60 * time.Second
)

type dbBackend int

const (
	BackendPebble dbBackend = iota
	BackendLevelDB
	BackendSQLite
)

type blockSource int

const (
	SourceREST blockSource = iota
	SourceRPC
)

var (
	NodeEndpoint = "http://localhost:8332" // default local node
	CookiePath   = ""
	RpcUser      = ""
	RpcPass      = ""

	BaseDirectory = ""
	DBPath        = ""
	LogsPath      = ""

	HTTPHost = "0.0.0.0:3000"
	GRPCHost = "" // default value is empty (deactivated)

	Backend = BackendPebble
	Source  = SourceREST
)

// control vars
var (
	// SyncStartHeight is the cursor height on first start. The first block indexed is SyncStartHeight+1.
	SyncStartHeight int64 = 870_525

	RollbackWindow       = DefaultRollbackWindow
	PollInterval         = DefaultPollInterval
	MinInscriptionLength = DefaultMinInscriptionLength

	// MaxParallelDecoders bounds the per block transaction fan-out.
	MaxParallelDecoders = max(runtime.NumCPU()-2, 1)

	// RequestTimeout applies to every call against the node
	RequestTimeout = 30 * time.Second
)

// SetDirectories derives the db and log paths, one has to call it otherwise DBPath will be empty
func SetDirectories() {
	BaseDirectory = ResolvePath(BaseDirectory)

	DBPath = filepath.Join(BaseDirectory, "db")
	LogsPath = filepath.Join(BaseDirectory, "logs")
}

// ResolvePath expands a leading ~ to the home directory.
func ResolvePath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

func BackendToString(b dbBackend) string {
	switch b {
	case BackendLevelDB:
		return "leveldb"
	case BackendSQLite:
		return "sqlite"
	default:
		return "pebble"
	}
}

func SourceToString(s blockSource) string {
	switch s {
	case SourceRPC:
		return "rpc"
	default:
		return "rest"
	}
}
