package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultVariables are the ERA5 single-level fields fetched when
// ERA5_VARIABLES is unset.
var DefaultVariables = []string{
	"2m_temperature",
	"2m_dewpoint_temperature",
	"total_precipitation",
	"10m_u_component_of_wind",
	"10m_v_component_of_wind",
	"surface_pressure",
	"total_cloud_cover",
}

// Config holds all fetcher settings, populated from environment variables.
type Config struct {
	Dataset     string
	ProductType string
	Format      string
	Latitude    float64
	Longitude   float64
	AreaBuffer  float64
	Place       string
	StartYear   int
	EndYear     int
	Variables   []string
	Times       []string

	OutputDir      string
	OutputTemplate string

	CDSTimeout      time.Duration
	CDSPollInterval time.Duration

	LogLevel        string
	LogFormat       string
	MetricsAddr     string
	MetricsTextfile string
	ShutdownTimeout time.Duration

	// Completion events; disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string

	// Mapbox geocoding of ERA5_PLACE.
	MapboxToken   string
	MapboxTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	lat, err := parseFloat("ERA5_LATITUDE", "9.06")
	if err != nil {
		return nil, err
	}
	lon, err := parseFloat("ERA5_LONGITUDE", "7.49")
	if err != nil {
		return nil, err
	}
	buffer, err := parseFloat("ERA5_AREA_BUFFER", "0.5")
	if err != nil {
		return nil, err
	}
	if buffer <= 0 {
		return nil, errors.New("invalid ERA5_AREA_BUFFER: must be positive")
	}

	out, err := LoadOutput()
	if err != nil {
		return nil, err
	}

	cdsTimeout, err := parseDuration("CDS_TIMEOUT", "10m")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parseDuration("CDS_POLL_INTERVAL", "5s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		Dataset:     sharedcfg.EnvOrDefault("ERA5_DATASET", "reanalysis-era5-single-levels"),
		ProductType: sharedcfg.EnvOrDefault("ERA5_PRODUCT_TYPE", "reanalysis"),
		Format:      sharedcfg.EnvOrDefault("ERA5_FORMAT", "netcdf"),
		Latitude:    lat,
		Longitude:   lon,
		AreaBuffer:  buffer,
		Place:       strings.TrimSpace(os.Getenv("ERA5_PLACE")),
		StartYear:   out.StartYear,
		EndYear:     out.EndYear,
		Variables:   parseList(os.Getenv("ERA5_VARIABLES"), DefaultVariables),
		Times:       parseList(os.Getenv("ERA5_TIMES"), []string{"00:00", "06:00", "12:00", "18:00"}),

		OutputDir:      out.OutputDir,
		OutputTemplate: out.OutputTemplate,

		CDSTimeout:      cdsTimeout,
		CDSPollInterval: pollInterval,

		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "era5-downloads"),

		MapboxToken:   os.Getenv("MAPBOX_TOKEN"),
		MapboxTimeout: mapboxTimeout,
	}

	for _, ts := range cfg.Times {
		if _, err := time.Parse("15:04", ts); err != nil || len(ts) != len("15:04") {
			return nil, fmt.Errorf("invalid ERA5_TIMES entry %q: want HH:MM", ts)
		}
	}
	if cfg.Place != "" && cfg.MapboxToken == "" {
		return nil, errors.New("ERA5_PLACE is set but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// Output holds the settings that locate yearly files on disk. It is all the
// audit command needs, so it loads without the fetch-only checks.
type Output struct {
	OutputDir      string
	OutputTemplate string
	StartYear      int
	EndYear        int
}

// LoadOutput reads OUTPUT_DIR, OUTPUT_TEMPLATE, ERA5_START_YEAR and ERA5_END_YEAR.
func LoadOutput() (Output, error) {
	startYear, err := parseInt("ERA5_START_YEAR", "2000")
	if err != nil {
		return Output{}, err
	}
	endYear, err := parseInt("ERA5_END_YEAR", "2024")
	if err != nil {
		return Output{}, err
	}
	out := Output{
		OutputDir:      sharedcfg.EnvOrDefault("OUTPUT_DIR", "era5_data"),
		OutputTemplate: sharedcfg.EnvOrDefault("OUTPUT_TEMPLATE", "era5_abuja_{year}.nc"),
		StartYear:      startYear,
		EndYear:        endYear,
	}
	if out.StartYear > out.EndYear {
		return Output{}, fmt.Errorf("ERA5_START_YEAR %d is after ERA5_END_YEAR %d", out.StartYear, out.EndYear)
	}
	if out.OutputDir == "" {
		return Output{}, errors.New("OUTPUT_DIR is required")
	}
	return out, nil
}

// KafkaEnabled reports whether completion events should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseFloat(key, def string) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseInt(key, def string) (int, error) {
	v, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseList(raw string, def []string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}
