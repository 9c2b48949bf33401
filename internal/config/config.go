package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres     = "postgres"
	DriverGormPostgres = "gorm-postgres"
	DriverSQLite       = "sqlite"
)

// Options configure the store API server.
type Options struct {
	runAddr       string
	logLevel      string
	dataBaseDSN   string
	driver        string
	sqlitePath    string
	redisAddr     string
	migrationsDir string
}

func NewOptions() *Options {
	return new(Options)
}

// ParseFlags handles command line arguments
// and stores their values in the corresponding variables.
func (o *Options) ParseFlags() {
	loadEnvFile()
	// CommandLine exits on a bad flag
	_ = o.Parse(flag.CommandLine, os.Args[1:])
}

// Parse registers the server flags on fs, with environment values as defaults.
func (o *Options) Parse(fs *flag.FlagSet, args []string) error {
	regStringVar(fs, &o.runAddr, "a", getEnvOrDefault("RUN_ADDRESS", ":8000"), "address and port to run server")
	regStringVar(fs, &o.logLevel, "l", getEnvOrDefault("LOG_LEVEL", "info"), "log level")
	regStringVar(fs, &o.dataBaseDSN, "d", getEnvOrDefault("DATABASE_URI", ""), "database connection string")
	regStringVar(fs, &o.driver, "driver", getEnvOrDefault("DATABASE_DRIVER", ""), "storage driver: postgres, gorm-postgres or sqlite")
	regStringVar(fs, &o.sqlitePath, "sqlite", getEnvOrDefault("SQLITE_PATH", "fitness_store.db"), "sqlite database file")
	regStringVar(fs, &o.redisAddr, "redis", getEnvOrDefault("REDIS_ADDR", ""), "redis address for the catalog cache, empty disables it")
	regStringVar(fs, &o.migrationsDir, "migrations", getEnvOrDefault("MIGRATIONS_DIR", ""), "directory with postgres migrations")

	return fs.Parse(args)
}

func (o *Options) RunAddr() string {
	return o.runAddr
}

func (o *Options) LogLevel() string {
	return o.logLevel
}

func (o *Options) DataBaseDSN() string {
	return o.dataBaseDSN
}

// Driver picks postgres when a DSN is given and sqlite otherwise, unless set explicitly.
func (o *Options) Driver() string {
	if o.driver != "" {
		return o.driver
	}
	if o.dataBaseDSN != "" {
		return DriverPostgres
	}
	return DriverSQLite
}

func (o *Options) SQLitePath() string {
	return o.sqlitePath
}

func (o *Options) RedisAddr() string {
	return o.redisAddr
}

func (o *Options) MigrationsDir() string {
	return o.migrationsDir
}

func regStringVar(fs *flag.FlagSet, p *string, name string, value string, usage string) {
	fs.StringVar(p, name, value, usage)
}

// getEnvOrDefault reads an environment variable or returns a default value if the variable is not set or is empty.
func getEnvOrDefault(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// loadEnvFile loads environment variables from a .env file in the working
// directory or two levels up.
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	for _, envPath := range []string{filepath.Join(cwd, ".env"), filepath.Join(cwd, "..", "..", ".env")} {
		if err := godotenv.Load(envPath); err == nil {
			log.Printf(".env file loaded from %s", envPath)
			return
		}
	}
	log.Printf("No .env file found, proceeding without it")
}
