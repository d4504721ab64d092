package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Overpass  OverpassConfig  `mapstructure:"overpass"`
	Nominatim NominatimConfig `mapstructure:"nominatim"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Model     ModelConfig     `mapstructure:"model"`
	Print     PrintConfig     `mapstructure:"print"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
	// MaxConcurrentBuilds caps scene builds running at once; further
	// requests wait.
	MaxConcurrentBuilds int `mapstructure:"max_concurrent_builds"`
}

type OverpassConfig struct {
	URL            string `mapstructure:"url"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
	TileSizeMeters int    `mapstructure:"tile_size_meters"`
}

type NominatimConfig struct {
	URL            string `mapstructure:"url"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
	// GeocodeTTL is the cache lifetime of geocoding lookups, in seconds.
	GeocodeTTL int `mapstructure:"geocode_ttl"`
}

// ModelConfig bounds what a single request may ask for.
type ModelConfig struct {
	DefaultRadiusM int      `mapstructure:"default_radius_m"`
	MaxRadiusM     int      `mapstructure:"max_radius_m"`
	MaxBuildings   int      `mapstructure:"max_buildings"`
	AllowedFormats []string `mapstructure:"allowed_formats"`
	MaxFormats     int      `mapstructure:"max_formats"`
}

// PrintConfig holds the physical parameters of the printed stack. Thickness
// and diameter values are in meters of printed plastic; widths and paddings
// in meters of real-world ground.
type PrintConfig struct {
	PlateDiameterM     float64 `mapstructure:"plate_diameter_m"`
	BaseThicknessM     float64 `mapstructure:"base_thickness_m"`
	GreenThicknessM    float64 `mapstructure:"green_thickness_m"`
	BuildingThicknessM float64 `mapstructure:"building_thickness_m"`
	GrooveDepthM       float64 `mapstructure:"groove_depth_m"`
	PegDepthM          float64 `mapstructure:"peg_depth_m"`
	RoadWidthM         float64 `mapstructure:"road_width_m"`
	ParkShrinkM        float64 `mapstructure:"park_shrink_m"`
	BasePaddingM       float64 `mapstructure:"base_padding_m"`
	BuildingPaddingM   float64 `mapstructure:"building_padding_m"`
	DefaultHeightM     float64 `mapstructure:"default_height_m"`
	LevelHeightM       float64 `mapstructure:"level_height_m"`
	MinHeightM         float64 `mapstructure:"min_height_m"`
	HighlightHome      bool    `mapstructure:"highlight_home"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 120)
	v.SetDefault("server.max_concurrent_builds", 2)
	v.SetDefault("overpass.url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.user_agent", "print3dhood/1.0")
	v.SetDefault("overpass.timeout_seconds", 60)
	v.SetDefault("overpass.max_retries", 4)
	v.SetDefault("overpass.tile_size_meters", 400)
	v.SetDefault("nominatim.url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("nominatim.user_agent", "print3dhood/1.0")
	v.SetDefault("nominatim.timeout_seconds", 10)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.geocode_ttl", 86400)
	v.SetDefault("model.default_radius_m", 250)
	v.SetDefault("model.max_radius_m", 750)
	v.SetDefault("model.max_buildings", 250)
	v.SetDefault("model.allowed_formats", []string{"stl", "obj"})
	v.SetDefault("model.max_formats", 3)
	v.SetDefault("print.plate_diameter_m", 0.2)
	v.SetDefault("print.base_thickness_m", 0.0075)
	v.SetDefault("print.green_thickness_m", 0.0075)
	v.SetDefault("print.building_thickness_m", 0.0075)
	v.SetDefault("print.groove_depth_m", 0.0015)
	v.SetDefault("print.peg_depth_m", 0.0045)
	v.SetDefault("print.road_width_m", 4.0)
	v.SetDefault("print.park_shrink_m", 1.0)
	v.SetDefault("print.base_padding_m", 5.0)
	v.SetDefault("print.building_padding_m", 2.5)
	v.SetDefault("print.default_height_m", 10.0)
	v.SetDefault("print.level_height_m", 3.0)
	v.SetDefault("print.min_height_m", 3.0)
	v.SetDefault("print.highlight_home", true)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: PRINT3DHOOD_OVERPASS_URL → overpass.url
	v.SetEnvPrefix("PRINT3DHOOD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.MaxConcurrentBuilds <= 0 {
		errs = append(errs, "server.max_concurrent_builds must be positive")
	}
	if c.Overpass.URL == "" {
		errs = append(errs, "overpass.url is required")
	}
	if c.Overpass.UserAgent == "" {
		errs = append(errs, "overpass.user_agent is required")
	}
	if c.Overpass.TileSizeMeters <= 0 {
		errs = append(errs, "overpass.tile_size_meters must be positive")
	}
	if c.Nominatim.URL == "" {
		errs = append(errs, "nominatim.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Model.DefaultRadiusM <= 0 {
		errs = append(errs, "model.default_radius_m must be positive")
	}
	if c.Model.MaxRadiusM < c.Model.DefaultRadiusM {
		errs = append(errs, fmt.Sprintf("model.max_radius_m must be >= default_radius_m, got %d", c.Model.MaxRadiusM))
	}
	if c.Model.MaxBuildings <= 0 {
		errs = append(errs, "model.max_buildings must be positive")
	}
	if len(c.Model.AllowedFormats) == 0 {
		errs = append(errs, "model.allowed_formats must not be empty")
	}
	if c.Model.MaxFormats <= 0 {
		errs = append(errs, "model.max_formats must be positive")
	}
	if c.Print.PlateDiameterM <= 0 {
		errs = append(errs, "print.plate_diameter_m must be positive")
	}
	for name, v := range map[string]float64{
		"print.base_thickness_m":     c.Print.BaseThicknessM,
		"print.green_thickness_m":    c.Print.GreenThicknessM,
		"print.building_thickness_m": c.Print.BuildingThicknessM,
		"print.groove_depth_m":       c.Print.GrooveDepthM,
		"print.peg_depth_m":          c.Print.PegDepthM,
	} {
		if v <= 0 {
			errs = append(errs, name+" must be positive")
		}
	}
	if c.Print.RoadWidthM <= 0 {
		errs = append(errs, "print.road_width_m must be positive")
	}
	if c.Print.MinHeightM <= 0 || c.Print.DefaultHeightM < c.Print.MinHeightM {
		errs = append(errs, "print heights must satisfy 0 < min_height_m <= default_height_m")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
