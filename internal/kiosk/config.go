package kiosk

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env      string
	API      APIConfig
	Account  AccountConfig
	Camera   CameraConfig
	Model    ModelConfig
	Location LocationConfig
	Geocoder GeocoderConfig
	Log      LogConfig
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type AccountConfig struct {
	Email    string
	Password string
}

type CameraConfig struct {
	Device         int
	Interval       time.Duration
	CaptureTimeout time.Duration
}

// ModelConfig points at the Res10 SSD face model files.
type ModelConfig struct {
	Prototxt string
	Weights  string
}

// LocationConfig is the fixed position of the kiosk. Disabled kiosks clock
// without location data.
type LocationConfig struct {
	Enabled   bool
	Latitude  float64
	Longitude float64
	Timeout   time.Duration
}

type GeocoderConfig struct {
	BaseURL   string
	UserAgent string
}

type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig reads the YAML file at path (kiosk.yaml in the working directory
// when empty). KIOSK_* environment variables override file values, e.g.
// KIOSK_API_BASE_URL.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("kiosk")
		v.AddConfigPath(".")
	}
	v.SetConfigType("yaml")
	v.SetEnvPrefix("KIOSK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read kiosk config: %w", err)
		}
	}

	cfg := &Config{
		Env: v.GetString("env"),
		API: APIConfig{
			BaseURL: v.GetString("api.base_url"),
			Timeout: v.GetDuration("api.timeout"),
		},
		Account: AccountConfig{
			Email:    v.GetString("account.email"),
			Password: v.GetString("account.password"),
		},
		Camera: CameraConfig{
			Device:         v.GetInt("camera.device"),
			Interval:       v.GetDuration("camera.interval"),
			CaptureTimeout: v.GetDuration("camera.capture_timeout"),
		},
		Model: ModelConfig{
			Prototxt: v.GetString("model.prototxt"),
			Weights:  v.GetString("model.weights"),
		},
		Location: LocationConfig{
			Enabled:   v.GetBool("location.enabled"),
			Latitude:  v.GetFloat64("location.latitude"),
			Longitude: v.GetFloat64("location.longitude"),
			Timeout:   v.GetDuration("location.timeout"),
		},
		Geocoder: GeocoderConfig{
			BaseURL:   v.GetString("geocoder.base_url"),
			UserAgent: v.GetString("geocoder.user_agent"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", EnvDevelopment)
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("camera.device", 0)
	v.SetDefault("camera.interval", 33*time.Millisecond)
	v.SetDefault("camera.capture_timeout", 60*time.Second)
	v.SetDefault("model.prototxt", "models/deploy.prototxt")
	v.SetDefault("model.weights", "models/res10_300x300_ssd_iter_140000.caffemodel")
	v.SetDefault("location.timeout", 10*time.Second)
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.user_agent", "fragranza-olio-kiosk/1.0")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// AutomaticEnv only sees keys viper already knows about.
	v.SetDefault("account.email", "")
	v.SetDefault("account.password", "")
	v.SetDefault("location.enabled", false)
	v.SetDefault("location.latitude", 0.0)
	v.SetDefault("location.longitude", 0.0)
}

func (c *Config) Validate() error {
	switch {
	case c.API.BaseURL == "":
		return fmt.Errorf("%w: api.base_url is required", ErrInvalidConfig)
	case c.Account.Email == "" || c.Account.Password == "":
		return fmt.Errorf("%w: account.email and account.password are required", ErrInvalidConfig)
	case c.Camera.Interval <= 0:
		return fmt.Errorf("%w: camera.interval must be positive", ErrInvalidConfig)
	case c.Location.Enabled && (c.Location.Latitude < -90 || c.Location.Latitude > 90 ||
		c.Location.Longitude < -180 || c.Location.Longitude > 180):
		return fmt.Errorf("%w: location coordinates out of range", ErrInvalidConfig)
	}
	return nil
}
