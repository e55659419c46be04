package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("twitter-bridge version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Twitter TwitterConfig `mapstructure:"twitter"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	DisableConsole    bool   `mapstructure:"disable_console"`
	OutputPath        string `mapstructure:"output_path"`
}

// TwitterConfig holds everything needed to talk to Twitter: the OAuth app
// registration, endpoint overrides (used by tests), and the lifecycle
// tunables for authorization state and token refresh.
type TwitterConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	RedirectURI  string   `mapstructure:"redirect_uri"`
	Scopes       []string `mapstructure:"scopes"`

	AuthURL    string `mapstructure:"auth_url"`
	TokenURL   string `mapstructure:"token_url"`
	APIBaseURL string `mapstructure:"api_base_url"`

	// StateTTL bounds how long a pending authorization attempt stays
	// consumable. RefreshSkew is the safety margin subtracted from token
	// expiry before a refresh is attempted.
	StateTTL       time.Duration `mapstructure:"state_ttl"`
	RefreshSkew    time.Duration `mapstructure:"refresh_skew"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// InitFlags initializes command line flags (without parsing)
func InitFlags() {
	pflag.String("config", "", "Path to the config file")
	// Note: no pflag.Parse() here as it's called in main.go
}

func Load() (*Config, error) {
	viper.Reset() // Ensure clean state

	viper.SetEnvPrefix("TWITTER_BRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdown_timeout", 5*time.Second)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
	viper.SetDefault("twitter.scopes", []string{"tweet.read", "users.read", "dm.read", "offline.access"})
	viper.SetDefault("twitter.auth_url", "https://twitter.com/i/oauth2/authorize")
	viper.SetDefault("twitter.token_url", "https://api.twitter.com/2/oauth2/token")
	viper.SetDefault("twitter.api_base_url", "https://api.twitter.com")
	viper.SetDefault("twitter.state_ttl", 10*time.Minute)
	viper.SetDefault("twitter.refresh_skew", 30*time.Second)
	viper.SetDefault("twitter.request_timeout", 10*time.Second)

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/twitter-bridge")
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; env vars can carry everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Twitter.ClientID == "" {
		return nil, fmt.Errorf("twitter.client_id is required, please adjust the config or set TWITTER_BRIDGE_TWITTER_CLIENT_ID")
	}
	if config.Twitter.RedirectURI == "" {
		return nil, fmt.Errorf("twitter.redirect_uri is required, please adjust the config or set TWITTER_BRIDGE_TWITTER_REDIRECT_URI")
	}

	return &config, nil
}
