package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable. Strings for identifiers and secrets, ints for
// durations and costs.
type Config struct {
	Env              string // application environment (e.g. "dev", "prod")
	Port             string // HTTP port to listen on
	DBUser           string // database username
	DBPass           string // database password (optional)
	DBHost           string // database host address
	DBPort           string // database port number
	DBName           string // database name
	ApplySchema      bool   // run schema.sql at startup when true
	JWTSecret        string // secret used to sign session tokens
	TokenTTLMin      int    // session token time-to-live in minutes
	ResetTokenTTLMin int    // password reset token time-to-live in minutes
	BcryptCost       int    // bcrypt cost for password hashing
	ClientBaseURL    string // base URL of the web client, used in reset links
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values cause
// the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"), // empty allowed
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
		ApplySchema:      envBool("DB_APPLY_SCHEMA", false),
		JWTSecret:        must("JWT_SECRET"),
		TokenTTLMin:      envInt("TOKEN_TTL_MIN", 60),
		ResetTokenTTLMin: envInt("RESET_TOKEN_TTL_MIN", 60),
		BcryptCost:       mustInt("BCRYPT_COST"),
		ClientBaseURL:    envStr("CLIENT_BASE_URL", "http://localhost:5173"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
