package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

const (
	// DebugMode indicates service mode is debug.
	DebugMode = "debug"
	// TestMode indicates service mode is test.
	TestMode = "test"
	// ReleaseMode indicates service mode is release.
	ReleaseMode = "release"
)

const (
	// MaxPageSize is the server-side cap on record query page size.
	MaxPageSize = 500

	// CascadeRulesKey is the kvstore key the cascade rules are cached under.
	CascadeRulesKey = "view_engine.cascade_rules"
	// OperationLogKey is the kvstore key the operation log is kept under.
	OperationLogKey = "view_engine.operation_log"
)

type Config struct {
	ServiceName string
	ServiceHost string
	ServicePort string

	Environment string // debug, test, release
	Version     string

	JaegerHostPort string

	// APIBaseURL is the record/view API the engine talks to.
	APIBaseURL string

	PageSize         int
	ViewSaveDebounce time.Duration

	ImportChunkSize   int
	ImportConcurrency int
	RecordCacheLimit  int
	OperationLogLimit int

	// CacheDir backs the file kvstore (cascade rules, operation log).
	CacheDir string
}

// Load ...
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found")
	}

	config := Config{}

	config.ServiceName = cast.ToString(getOrReturnDefaultValue("SERVICE_NAME", "view_engine"))
	config.ServiceHost = cast.ToString(getOrReturnDefaultValue("VIEW_ENGINE_SERVICE_HOST", "localhost"))
	config.ServicePort = cast.ToString(getOrReturnDefaultValue("VIEW_ENGINE_SERVICE_PORT", ":7130"))

	config.Environment = cast.ToString(getOrReturnDefaultValue("ENVIRONMENT", DebugMode))
	config.Version = cast.ToString(getOrReturnDefaultValue("VERSION", "1.0"))

	config.JaegerHostPort = cast.ToString(getOrReturnDefaultValue("JAEGER_URL", ""))

	config.APIBaseURL = cast.ToString(getOrReturnDefaultValue("API_BASE_URL", "http://localhost:7130"))

	config.PageSize = cast.ToInt(getOrReturnDefaultValue("PAGE_SIZE", 100))
	config.ViewSaveDebounce = time.Duration(cast.ToInt(getOrReturnDefaultValue("VIEW_SAVE_DEBOUNCE_MS", 400))) * time.Millisecond

	config.ImportChunkSize = cast.ToInt(getOrReturnDefaultValue("IMPORT_CHUNK_SIZE", 50))
	config.ImportConcurrency = cast.ToInt(getOrReturnDefaultValue("IMPORT_CONCURRENCY", 8))
	config.RecordCacheLimit = cast.ToInt(getOrReturnDefaultValue("RECORD_CACHE_LIMIT", 1000))
	config.OperationLogLimit = cast.ToInt(getOrReturnDefaultValue("OPERATION_LOG_LIMIT", 200))

	config.CacheDir = cast.ToString(getOrReturnDefaultValue("CACHE_DIR", ".view_engine_cache"))

	return config
}

func getOrReturnDefaultValue(key string, defaultValue any) any {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return defaultValue
}
