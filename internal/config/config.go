package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/mikeveit1/MacroTrack-sub000/internal/diary"
	"github.com/spf13/viper"
)

const (
	envPrefix            = "MACROTRACK"
	defaultHTTPAddress   = "0.0.0.0:8080"
	defaultDatabasePath  = "macrotrack.db"
	defaultLogLevel      = "info"
	defaultLogFormat     = "json"
	defaultCookieName    = "app_session"
	defaultSessionIssuer = "macrotrack-auth"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress          string
	DatabasePath         string
	LogLevel             string
	LogFormat            string
	SessionSigningSecret string
	SessionIssuer        string
	SessionCookieName    string
	DefaultGoals         diary.Goals
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("log.format", defaultLogFormat)
	configViper.SetDefault("session.issuer", defaultSessionIssuer)
	configViper.SetDefault("session.cookie_name", defaultCookieName)
	configViper.SetDefault("goals.calories", diary.DefaultGoals.Calories)
	configViper.SetDefault("goals.protein", diary.DefaultGoals.Protein)
	configViper.SetDefault("goals.carbs", diary.DefaultGoals.Carbs)
	configViper.SetDefault("goals.fat", diary.DefaultGoals.Fat)
	configViper.SetDefault("goals.water", diary.DefaultGoals.Water)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:          configViper.GetString("http.address"),
		DatabasePath:         configViper.GetString("database.path"),
		LogLevel:             configViper.GetString("log.level"),
		LogFormat:            configViper.GetString("log.format"),
		SessionSigningSecret: configViper.GetString("session.signing_secret"),
		SessionIssuer:        configViper.GetString("session.issuer"),
		SessionCookieName:    configViper.GetString("session.cookie_name"),
		DefaultGoals: diary.Goals{
			Calories: configViper.GetFloat64("goals.calories"),
			Protein:  configViper.GetFloat64("goals.protein"),
			Carbs:    configViper.GetFloat64("goals.carbs"),
			Fat:      configViper.GetFloat64("goals.fat"),
			Water:    configViper.GetFloat64("goals.water"),
		},
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SessionSigningSecret) == "" {
		return fmt.Errorf("session.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.SessionCookieName) == "" {
		return fmt.Errorf("session.cookie_name is required")
	}
	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.LogFormat)
	}
	for name, value := range c.DefaultGoals.Map() {
		if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("goals.%s must be a non-negative number", name)
		}
	}
	return nil
}
