package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvFile is the local key-value store for values established at runtime
// (generated token, discovered printer). It is read once at startup and
// written only when a value is first established.
const EnvFile = ".env"

type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Printer   PrinterConfig
	Cloud     CloudConfig
	Slicer    SlicerConfig
	Relay     RelayConfig
	Discovery DiscoveryConfig
}

type ServerConfig struct {
	Port     string
	LogLevel string
}

type AuthConfig struct {
	Token string // shared bearer token for every route
}

type PrinterConfig struct {
	Address string // empty until discovered
	Kind    string // "moonraker" or "octoprint"
	APIKey  string // OctoPrint only
	Name    string // display name sent upstream
}

type CloudConfig struct {
	AppURL string // relay disabled when empty
	User   string // operator identity
}

type SlicerConfig struct {
	DefaultConfig string
	OutputDir     string
	Timeout       time.Duration
}

type RelayConfig struct {
	Interval time.Duration
}

type DiscoveryConfig struct {
	Subnet  string
	Workers int
}

func Load() (*Config, error) {
	// Pull the persisted .env into the process environment before Viper
	// binds; a missing file just means first run.
	_ = godotenv.Load(EnvFile)

	viper.AutomaticEnv()

	_ = viper.BindEnv("server.port", "PORT")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("auth.token", "USER_TOKEN")
	_ = viper.BindEnv("printer.address", "PRINTER_IP")
	_ = viper.BindEnv("printer.kind", "PRINTER_TYPE")
	_ = viper.BindEnv("printer.api_key", "OCTOPRINT_API_KEY")
	_ = viper.BindEnv("printer.name", "PRINTER_NAME")
	_ = viper.BindEnv("cloud.app_url", "APP_URL")
	_ = viper.BindEnv("cloud.user", "USER_NAME")
	_ = viper.BindEnv("slicer.default_config", "SLICER_CONFIG")
	_ = viper.BindEnv("slicer.output_dir", "SLICER_OUTPUT_DIR")
	_ = viper.BindEnv("slicer.timeout_minutes", "SLICER_TIMEOUT_MINUTES")
	_ = viper.BindEnv("relay.interval_seconds", "RELAY_INTERVAL_SECONDS")
	_ = viper.BindEnv("discovery.subnet", "DISCOVERY_SUBNET")
	_ = viper.BindEnv("discovery.workers", "DISCOVERY_WORKERS")

	viper.SetDefault("server.port", "5002")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("slicer.default_config", "my_config.ini")
	viper.SetDefault("slicer.output_dir", ".")
	viper.SetDefault("slicer.timeout_minutes", 10)
	viper.SetDefault("relay.interval_seconds", 10)
	viper.SetDefault("discovery.subnet", "192.168.68.0/24")
	viper.SetDefault("discovery.workers", 50)

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Auth: AuthConfig{
			Token: viper.GetString("auth.token"),
		},
		Printer: PrinterConfig{
			Address: viper.GetString("printer.address"),
			Kind:    viper.GetString("printer.kind"),
			APIKey:  viper.GetString("printer.api_key"),
			Name:    viper.GetString("printer.name"),
		},
		Cloud: CloudConfig{
			AppURL: viper.GetString("cloud.app_url"),
			User:   viper.GetString("cloud.user"),
		},
		Slicer: SlicerConfig{
			DefaultConfig: viper.GetString("slicer.default_config"),
			OutputDir:     viper.GetString("slicer.output_dir"),
			Timeout:       time.Duration(viper.GetInt("slicer.timeout_minutes")) * time.Minute,
		},
		Relay: RelayConfig{
			Interval: time.Duration(viper.GetInt("relay.interval_seconds")) * time.Second,
		},
		Discovery: DiscoveryConfig{
			Subnet:  viper.GetString("discovery.subnet"),
			Workers: viper.GetInt("discovery.workers"),
		},
	}

	return cfg, nil
}

// Persist writes a newly established value back to the .env file so later
// runs skip the bootstrap step that produced it.
func Persist(key, value string) error {
	env, err := godotenv.Read(EnvFile)
	if err != nil {
		env = map[string]string{}
	}
	env[key] = value
	if err := godotenv.Write(env, EnvFile); err != nil {
		return fmt.Errorf("failed to write %s: %w", EnvFile, err)
	}
	return nil
}
