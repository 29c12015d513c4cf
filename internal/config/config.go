package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Secrets stay strings; durations and costs are
// ints in the unit named by the variable.
type Config struct {
	Env              string // application environment (e.g. "dev", "prod")
	Port             string // HTTP port to listen on
	LogLevel         string // zap log level ("info" when unset)
	DBUser           string // database username
	DBPass           string // database password (optional)
	DBHost           string // database host address
	DBPort           string // database port number
	DBName           string // database name
	DBMaxOpenConns   int    // connection pool ceiling
	DBMaxIdleConns   int    // idle connections kept in the pool
	DBConnMaxLifeMin int    // connection lifetime in minutes before recycling
	AccessSecret     string // secret used to sign access tokens
	RefreshSecret    string // distinct secret used to sign refresh tokens
	AccessTTLMin     int    // access token time-to-live in minutes
	RefreshTTLDays   int    // refresh token time-to-live in days
	BcryptCost       int    // bcrypt cost for password hashing
	StagingDir       string // local directory for multipart uploads before remote storage
	S3Region         string // region of the media bucket
	S3Bucket         string // bucket holding avatars and cover images
	S3Endpoint       string // base endpoint (MinIO or another S3-compatible host)
	S3AccessKey      string // static credential id
	S3SecretKey      string // static credential secret
	S3PublicBase     string // public URL prefix stored on accounts (defaults to endpoint/bucket)
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Access and refresh
// secrets are deliberately separate so a leak of one does not compromise
// the other token class.
func Load() Config {
	cfg := Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"), // empty allowed
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
		DBMaxOpenConns:   envInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:   envInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifeMin: envInt("DB_CONN_MAX_LIFETIME_MIN", 30),
		AccessSecret:     must("ACCESS_TOKEN_SECRET"),
		RefreshSecret:    must("REFRESH_TOKEN_SECRET"),
		AccessTTLMin:     mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:   mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:       mustInt("BCRYPT_COST"),
		StagingDir:       getenv("UPLOAD_STAGING_DIR", os.TempDir()),
		S3Region:         must("S3_REGION"),
		S3Bucket:         must("S3_BUCKET"),
		S3Endpoint:       must("S3_ENDPOINT"),
		S3AccessKey:      must("S3_ACCESS_KEY"),
		S3SecretKey:      must("S3_SECRET_KEY"),
		S3PublicBase:     os.Getenv("S3_PUBLIC_BASE"),
	}
	if cfg.S3PublicBase == "" {
		cfg.S3PublicBase = cfg.S3Endpoint + "/" + cfg.S3Bucket
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
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
