package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/midfieldhq/reconciler/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the reconciliation pipeline.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	DBURL          string
	LogLevel       logging.Level

	DBDisablePreparedBinary bool

	StubCacheTTL time.Duration

	SportsDBEnabled            bool
	SportsDBAPIKey             string
	SportsDBV1BaseURL          string
	SportsDBV2BaseURL          string
	SportsDBTimeout            time.Duration
	SportsDBMaxRetries         int
	SportsDBRetryBaseDelay     time.Duration
	SportsDBCircuitEnabled     bool
	SportsDBCircuitFailures    int
	SportsDBCircuitOpenTimeout time.Duration
	SportsDBCircuitHalfOpenMax int

	SyncBatchSize        int
	SyncFanoutWorkers    int
	SyncPollInterval     time.Duration
	SyncProcessingLease  time.Duration
	LivescoreInterval    time.Duration
	ScheduleSyncInterval time.Duration
	EnrichInterval       time.Duration
	EnrichBatchSize      int
	TargetLeagueIDs      []string
	ContinentalLeagueIDs map[string]struct{}

	UptraceEnabled bool
	UptraceDSN     string

	PprofEnabled bool
	PprofAddr    string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("SERVICE_NAME", "reconciler"),
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8090"),
		DBURL:          strings.TrimSpace(getEnv("DATABASE_URL", "")),
		LogLevel:       parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	cfg.DBDisablePreparedBinary = dbDisablePreparedBinary

	stubCacheTTL, err := time.ParseDuration(getEnv("STUB_CACHE_TTL", "10m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STUB_CACHE_TTL: %w", err)
	}
	if stubCacheTTL <= 0 {
		return Config{}, fmt.Errorf("STUB_CACHE_TTL must be > 0")
	}
	cfg.StubCacheTTL = stubCacheTTL

	sportsDBEnabled, err := strconv.ParseBool(getEnv("THESPORTSDB_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse THESPORTSDB_ENABLED: %w", err)
	}
	cfg.SportsDBEnabled = sportsDBEnabled
	cfg.SportsDBAPIKey = strings.TrimSpace(getEnv("THESPORTSDB_API_KEY", ""))
	if cfg.SportsDBEnabled && cfg.SportsDBAPIKey == "" {
		return Config{}, fmt.Errorf("THESPORTSDB_API_KEY is required when THESPORTSDB_ENABLED=true")
	}
	cfg.SportsDBV1BaseURL = strings.TrimRight(getEnv("THESPORTSDB_V1_BASE_URL", "https://www.thesportsdb.com/api/v1/json"), "/")
	cfg.SportsDBV2BaseURL = strings.TrimRight(getEnv("THESPORTSDB_V2_BASE_URL", "https://www.thesportsdb.com/api/v2/json"), "/")

	sportsDBTimeout, err := time.ParseDuration(getEnv("THESPORTSDB_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse THESPORTSDB_TIMEOUT: %w", err)
	}
	cfg.SportsDBTimeout = sportsDBTimeout

	sportsDBMaxRetries, err := getEnvAsInt("THESPORTSDB_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse THESPORTSDB_MAX_RETRIES: %w", err)
	}
	if sportsDBMaxRetries < 0 {
		return Config{}, fmt.Errorf("THESPORTSDB_MAX_RETRIES must be >= 0")
	}
	cfg.SportsDBMaxRetries = sportsDBMaxRetries

	retryBaseDelay, err := time.ParseDuration(getEnv("THESPORTSDB_RETRY_BASE_DELAY", "1s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse THESPORTSDB_RETRY_BASE_DELAY: %w", err)
	}
	if retryBaseDelay <= 0 {
		return Config{}, fmt.Errorf("THESPORTSDB_RETRY_BASE_DELAY must be > 0")
	}
	cfg.SportsDBRetryBaseDelay = retryBaseDelay

	circuitEnabled, err := strconv.ParseBool(getEnv("THESPORTSDB_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse THESPORTSDB_CIRCUIT_ENABLED: %w", err)
	}
	cfg.SportsDBCircuitEnabled = circuitEnabled

	circuitFailures, err := getEnvAsInt("THESPORTSDB_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse THESPORTSDB_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if circuitFailures < 1 {
		return Config{}, fmt.Errorf("THESPORTSDB_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	cfg.SportsDBCircuitFailures = circuitFailures

	circuitOpenTimeout, err := time.ParseDuration(getEnv("THESPORTSDB_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse THESPORTSDB_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if circuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("THESPORTSDB_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	cfg.SportsDBCircuitOpenTimeout = circuitOpenTimeout

	circuitHalfOpenMax, err := getEnvAsInt("THESPORTSDB_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse THESPORTSDB_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if circuitHalfOpenMax < 1 {
		return Config{}, fmt.Errorf("THESPORTSDB_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	cfg.SportsDBCircuitHalfOpenMax = circuitHalfOpenMax

	batchSize, err := getEnvAsInt("SYNC_BATCH_SIZE", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_BATCH_SIZE: %w", err)
	}
	if batchSize < 1 {
		return Config{}, fmt.Errorf("SYNC_BATCH_SIZE must be >= 1")
	}
	cfg.SyncBatchSize = batchSize

	fanoutWorkers, err := getEnvAsInt("SYNC_FANOUT_WORKERS", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_FANOUT_WORKERS: %w", err)
	}
	if fanoutWorkers < 1 {
		return Config{}, fmt.Errorf("SYNC_FANOUT_WORKERS must be >= 1")
	}
	cfg.SyncFanoutWorkers = fanoutWorkers

	pollInterval, err := time.ParseDuration(getEnv("SYNC_POLL_INTERVAL", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_POLL_INTERVAL: %w", err)
	}
	if pollInterval <= 0 {
		return Config{}, fmt.Errorf("SYNC_POLL_INTERVAL must be > 0")
	}
	cfg.SyncPollInterval = pollInterval

	processingLease, err := time.ParseDuration(getEnv("SYNC_PROCESSING_LEASE", "10m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_PROCESSING_LEASE: %w", err)
	}
	if processingLease <= 0 {
		return Config{}, fmt.Errorf("SYNC_PROCESSING_LEASE must be > 0")
	}
	cfg.SyncProcessingLease = processingLease

	livescoreInterval, err := time.ParseDuration(getEnv("SYNC_LIVESCORE_INTERVAL", "1m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_LIVESCORE_INTERVAL: %w", err)
	}
	if livescoreInterval <= 0 {
		return Config{}, fmt.Errorf("SYNC_LIVESCORE_INTERVAL must be > 0")
	}
	cfg.LivescoreInterval = livescoreInterval

	scheduleInterval, err := time.ParseDuration(getEnv("SYNC_SCHEDULE_INTERVAL", "24h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_SCHEDULE_INTERVAL: %w", err)
	}
	if scheduleInterval <= 0 {
		return Config{}, fmt.Errorf("SYNC_SCHEDULE_INTERVAL must be > 0")
	}
	cfg.ScheduleSyncInterval = scheduleInterval

	enrichInterval, err := time.ParseDuration(getEnv("SYNC_ENRICH_INTERVAL", "1h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_ENRICH_INTERVAL: %w", err)
	}
	if enrichInterval <= 0 {
		return Config{}, fmt.Errorf("SYNC_ENRICH_INTERVAL must be > 0")
	}
	cfg.EnrichInterval = enrichInterval

	enrichBatchSize, err := getEnvAsInt("SYNC_ENRICH_BATCH_SIZE", 25)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_ENRICH_BATCH_SIZE: %w", err)
	}
	if enrichBatchSize < 1 {
		return Config{}, fmt.Errorf("SYNC_ENRICH_BATCH_SIZE must be >= 1")
	}
	cfg.EnrichBatchSize = enrichBatchSize

	cfg.TargetLeagueIDs = splitCSV(getEnv("SYNC_TARGET_LEAGUE_IDS", "4328,4335,4332,4331,4334"))
	if len(cfg.TargetLeagueIDs) == 0 {
		return Config{}, fmt.Errorf("SYNC_TARGET_LEAGUE_IDS must not be empty")
	}

	cfg.ContinentalLeagueIDs = make(map[string]struct{})
	for _, item := range splitCSV(getEnv("SYNC_CONTINENTAL_LEAGUE_IDS", "4480,4481")) {
		cfg.ContinentalLeagueIDs[item] = struct{}{}
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	cfg.UptraceEnabled = uptraceEnabled
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	cfg.PprofEnabled = pprofEnabled
	cfg.PprofAddr = getEnv("PPROF_ADDR", ":6060")

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	cfg.PyroscopeEnabled = pyroscopeEnabled
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName)
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))

	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}
	cfg.PyroscopeUploadRate = pyroscopeUploadRate

	return cfg, nil
}

func (c Config) IsContinentalLeague(externalID string) bool {
	_, ok := c.ContinentalLeagueIDs[strings.TrimSpace(externalID)]
	return ok
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}
