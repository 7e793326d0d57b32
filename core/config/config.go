package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port string

	OTel     OTelConfig
	DB       DBConfig
	Redis    RedisConfig
	Planner  PlannerConfig
	Executor ExecutorConfig
	Tools    ToolsConfig
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

// DBConfig configures the optional Postgres job archive.
type DBConfig struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// RedisConfig configures the optional job status event stream.
type RedisConfig struct {
	URL          string
	StatusStream string
}

type PlannerConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

type ExecutorConfig struct {
	// Timeout bounds a single capability dispatch. A job whose tool call
	// exceeds it is marked failed rather than left running forever.
	Timeout time.Duration
	Workers int
}

// ToolsConfig holds the base URLs of the external tool services each
// capability adapter talks to.
type ToolsConfig struct {
	GeneratorURL    string
	ESMFoldURL      string
	AlphaFold2URL   string
	OpenFoldURL     string
	FoldSeekURL     string
	USalignURL      string
	NCBIBlastURL    string
	ColabFoldURL    string
	LocalBlastURL   string
	P2RankURL       string
	VinaURL         string
	PhylogenyURL    string
	RamachandranURL string
	DBBuilderURL    string

	PollInterval time.Duration
	PollAttempts int
}

func Load() (Config, error) {
	if getEnv("PROTOMATIC_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	cfg := Config{
		Env:  getEnv("PROTOMATIC_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "protomatic"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		DB: DBConfig{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt32("DB_MAX_CONNS", 10),
			MinConns: getEnvInt32("DB_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", ""),
			StatusStream: getEnv("REDIS_STATUS_STREAM", "protomatic_job_events"),
		},
		Planner: PlannerConfig{
			APIKey:    getEnv("PLANNER_API_KEY", ""),
			BaseURL:   getEnv("PLANNER_BASE_URL", ""),
			Model:     getEnv("PLANNER_MODEL", "gpt-4o-mini"),
			MaxTokens: getEnvInt("PLANNER_MAX_TOKENS", 1000),
		},
		Executor: ExecutorConfig{
			Timeout: getEnvDuration("EXECUTOR_TIMEOUT", 30*time.Minute),
			Workers: getEnvInt("EXECUTOR_WORKERS", 8),
		},
		Tools: ToolsConfig{
			GeneratorURL:    getEnv("TOOL_GENERATOR_URL", "http://localhost:9001"),
			ESMFoldURL:      getEnv("TOOL_ESMFOLD_URL", "https://api.esmatlas.com/foldSequence/v1/pdb"),
			AlphaFold2URL:   getEnv("TOOL_ALPHAFOLD2_URL", "http://localhost:9002"),
			OpenFoldURL:     getEnv("TOOL_OPENFOLD_URL", "http://localhost:9003"),
			FoldSeekURL:     getEnv("TOOL_FOLDSEEK_URL", "https://search.foldseek.com/api"),
			USalignURL:      getEnv("TOOL_USALIGN_URL", "http://localhost:9004"),
			NCBIBlastURL:    getEnv("TOOL_NCBI_BLAST_URL", "https://blast.ncbi.nlm.nih.gov/Blast.cgi"),
			ColabFoldURL:    getEnv("TOOL_COLABFOLD_URL", "https://api.colabfold.com"),
			LocalBlastURL:   getEnv("TOOL_LOCAL_BLAST_URL", "http://localhost:9005"),
			P2RankURL:       getEnv("TOOL_P2RANK_URL", "http://localhost:9006"),
			VinaURL:         getEnv("TOOL_VINA_URL", "http://localhost:9007"),
			PhylogenyURL:    getEnv("TOOL_PHYLOGENY_URL", "http://localhost:9008"),
			RamachandranURL: getEnv("TOOL_RAMACHANDRAN_URL", "http://localhost:9009"),
			DBBuilderURL:    getEnv("TOOL_DB_BUILDER_URL", "http://localhost:9010"),
			PollInterval:    getEnvDuration("TOOL_POLL_INTERVAL", 5*time.Second),
			PollAttempts:    getEnvInt("TOOL_POLL_ATTEMPTS", 60),
		},
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c DBConfig) Enabled() bool {
	return c.DSN != ""
}

func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

func (c PlannerConfig) Enabled() bool {
	return c.APIKey != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
