package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL     = "http://localhost:8000"
	DefaultAPITimeout = 10 * time.Second
	defaultConfigPath = "fitstore.yaml"
)

// ConsoleOptions configure the console program. Precedence is flag, then
// FITSTORE_API_URL, then the YAML file, then defaults.
type ConsoleOptions struct {
	APIURL   string        `yaml:"api_url"`
	Timeout  time.Duration `yaml:"timeout"`
	LogLevel string        `yaml:"log_level"`
}

func defaultConsoleOptions() ConsoleOptions {
	return ConsoleOptions{APIURL: DefaultAPIURL, Timeout: DefaultAPITimeout, LogLevel: "warn"}
}

// LoadConsoleFile reads a YAML config. A missing file yields the defaults.
func LoadConsoleFile(path string) (ConsoleOptions, error) {
	opts := defaultConsoleOptions()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return opts, nil
	}
	if err != nil {
		return opts, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parse %s: %w", path, err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultAPITimeout
	}
	return opts, nil
}

// ParseConsole resolves the console options from args, the environment and the config file.
func ParseConsole(fset *flag.FlagSet, args []string) (ConsoleOptions, error) {
	var path, apiURL, level string
	fset.StringVar(&path, "config", getEnvOrDefault("FITSTORE_CONFIG", defaultConfigPath), "YAML config file")
	fset.StringVar(&apiURL, "api", "", "store API base URL")
	fset.StringVar(&level, "l", "", "log level")
	if err := fset.Parse(args); err != nil {
		return ConsoleOptions{}, err
	}

	opts, err := LoadConsoleFile(path)
	if err != nil {
		return opts, err
	}
	opts.APIURL = getEnvOrDefault("FITSTORE_API_URL", opts.APIURL)
	if apiURL != "" {
		opts.APIURL = apiURL
	}
	if level != "" {
		opts.LogLevel = level
	}
	return opts, nil
}
