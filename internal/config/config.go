package config

import (
	"os"
	"strings"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string // empty selects the in-memory store
	TablePrefix string
	CORSOrigins string

	// Document addressing
	DefaultNamespace string   // organization/project pair for derived URIs
	SearchPaths      []string // namespaces tried when resolving bare paths
	MDPDirs          []string // directories loaded into the store at startup

	// Logging
	LogDir      string // when set, logs also go to rotated files
	MaxLogFiles int

	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	namespace := getEnv("DEFAULT_NAMESPACE", "local/docs")

	searchPaths := splitList(getEnv("SEARCH_PATHS", namespace))

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      env,
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		TablePrefix:      getTablePrefix(env),
		CORSOrigins:      getEnv("CORS_ORIGINS", "http://localhost:3000"),
		DefaultNamespace: namespace,
		SearchPaths:      searchPaths,
		MDPDirs:          splitList(getEnv("MDP_DIRS", "")),
		LogDir:           getEnv("LOG_DIR", ""),
		MaxLogFiles:      10,
		Debug:            getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
