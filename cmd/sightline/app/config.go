package app

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/sightline/internal/store"
	"github.com/agentstation/sightline/pkg/constants"
	"github.com/agentstation/sightline/pkg/errors"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Analysis settings
	DisappearanceThresholdDays int
	StaleThresholdDays         int
	CaseSensitive              bool
	SampleSize                 int
	MinPlausibleYear           int
	MaxYearLookahead           int

	// Mapping store
	Store     string
	StorePath string

	// HTTP service
	Listen string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.sightline.yaml or ./.sightline.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return loadConfig("")
}

// loadConfig loads configuration reading configFile when it is set, the
// CONFIG environment variable or the standard locations otherwise.
func loadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if configFile == "" {
		configFile = v.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".sightline")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !stderrors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "failed to read config file", err)
		}
	}

	return &Config{
		Verbose:    v.GetBool("verbose"),
		Quiet:      v.GetBool("quiet"),
		NoColor:    v.GetBool("no-color"),
		Format:     v.GetString("format"),
		ConfigFile: v.ConfigFileUsed(),

		DisappearanceThresholdDays: v.GetInt("disappearance_threshold_days"),
		StaleThresholdDays:         v.GetInt("stale_threshold_days"),
		CaseSensitive:              v.GetBool("case_sensitive"),
		SampleSize:                 v.GetInt("sample_size"),
		MinPlausibleYear:           v.GetInt("min_plausible_year"),
		MaxYearLookahead:           v.GetInt("max_year_lookahead"),

		Store:     v.GetString("store"),
		StorePath: v.GetString("store_path"),
		Listen:    v.GetString("listen"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("disappearance_threshold_days", constants.DefaultDisappearanceThresholdDays)
	v.SetDefault("stale_threshold_days", 0)
	v.SetDefault("case_sensitive", false)
	v.SetDefault("sample_size", constants.DefaultSampleSize)
	v.SetDefault("min_plausible_year", constants.MinPlausibleYear)
	v.SetDefault("max_year_lookahead", constants.MaxYearLookahead)
	v.SetDefault("store", string(store.KindYAML))
	v.SetDefault("store_path", "")
	v.SetDefault("listen", constants.DefaultListenAddr)
	v.SetDefault("log_level", "")
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
	v.SetDefault("format", "")
}

// loadEnvFiles loads environment variables from .env files. Values
// already in the environment are kept.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
