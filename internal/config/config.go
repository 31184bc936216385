package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/simaogato/bankcascade-backend/internal/domain"
)

const (
	defaultGRPCPort = ":8080"
	defaultAPIToken = "dev-token"
)

// Config holds the server configuration
type Config struct {
	GRPCPort  string
	APIToken  string
	DBConnStr string  // empty keeps sweep runs in memory
	Seed      *uint64 // nil draws a fresh seed per run
	Defaults  domain.SweepParams
}

// SimDefaults is the YAML shape of the default sweep parameters.
// Omitted keys keep the built-in values.
type SimDefaults struct {
	BankCount    *int      `yaml:"bank_count"`
	Iterations   *int      `yaml:"iterations"`
	CoreFraction *float64  `yaml:"core_fraction"`
	DegreeRatio  *float64  `yaml:"degree_ratio"`
	DegreeGrid   []float64 `yaml:"degree_grid"`
}

// BuiltinDefaults are the sweep parameters used when nothing overrides them
func BuiltinDefaults() domain.SweepParams {
	return domain.SweepParams{
		BankCount:    100,
		Iterations:   1000,
		CoreFraction: 0.1,
		DegreeRatio:  3,
		DegreeGrid:   domain.DefaultDegreeGrid(),
	}
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	// Missing .env is fine; real environment variables still apply
	_ = godotenv.Load()

	cfg := &Config{
		GRPCPort:  getEnv("GRPC_PORT", defaultGRPCPort),
		APIToken:  getEnv("API_TOKEN", defaultAPIToken),
		DBConnStr: dbConnStr(),
		Defaults:  BuiltinDefaults(),
	}

	if raw := os.Getenv("SIM_SEED"); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SIM_SEED %q: %w", raw, err)
		}
		cfg.Seed = &seed
	}

	if path := os.Getenv("SIM_DEFAULTS_FILE"); path != "" {
		defaults, err := LoadDefaults(path, cfg.Defaults)
		if err != nil {
			return nil, err
		}
		cfg.Defaults = defaults
	}

	if err := cfg.Defaults.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default sweep parameters: %w", err)
	}

	return cfg, nil
}

// LoadDefaults overlays the YAML file at path on base
func LoadDefaults(path string, base domain.SweepParams) (domain.SweepParams, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read sim defaults: %w", err)
	}

	var file SimDefaults
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return base, fmt.Errorf("%s: %w", path, err)
	}

	params := base
	if file.BankCount != nil {
		params.BankCount = *file.BankCount
	}
	if file.Iterations != nil {
		params.Iterations = *file.Iterations
	}
	if file.CoreFraction != nil {
		params.CoreFraction = *file.CoreFraction
	}
	if file.DegreeRatio != nil {
		params.DegreeRatio = *file.DegreeRatio
	}
	if len(file.DegreeGrid) > 0 {
		params.DegreeGrid = file.DegreeGrid
	}

	return params, nil
}

// dbConnStr returns DB_CONN_STR, or builds one from the individual DB_* vars
// when DB_HOST is set (Docker friendly). Empty means no database.
func dbConnStr() string {
	if connStr := os.Getenv("DB_CONN_STR"); connStr != "" {
		return connStr
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host,
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_NAME", "bankcascade"),
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
