package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"campusshuttle/internal/catalog"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yml"

// Default returns the built-in configuration: the campus timetable served on port 8080.
func Default() AppConfig {
	tt := catalog.DefaultTimetable()
	cfg := AppConfig{
		Server:    ServerConfig{Port: 8080, LoginRatePerMinute: 30, LoginBurst: 5},
		Telemetry: TelemetryConfig{ServiceName: "campus-shuttle"},
		Timetable: TimetableConfig{
			Timezone:  "Asia/Taipei",
			Days:      tt.Days,
			SeatCount: tt.SeatCount,
		},
	}
	for _, r := range tt.Routes {
		cfg.Timetable.Routes = append(cfg.Timetable.Routes, RouteConfig{ID: r.ID, Name: r.Name})
	}
	for _, d := range tt.Departures {
		cfg.Timetable.Departures = append(cfg.Timetable.Departures, d.String())
	}
	return cfg
}

// Load reads path over the defaults, applies environment overrides and validates
// the result. A missing file is not an error.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *AppConfig) error {
	if port := getEnv("PORT", ""); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Server.Port = n
	}
	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Telemetry.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	cfg.Timetable.Timezone = getEnv("SHUTTLE_TIMEZONE", cfg.Timetable.Timezone)
	return nil
}

// Validate checks struct constraints and the values that need parsing.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.CatalogTimetable(); err != nil {
		return err
	}
	return nil
}

// Location is the zone calendar dates and departures are interpreted in.
func (c *AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timetable.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timetable timezone: %w", err)
	}
	return loc, nil
}

// CatalogTimetable converts the timetable section for seeding.
func (c *AppConfig) CatalogTimetable() (catalog.Timetable, error) {
	tt := catalog.Timetable{Days: c.Timetable.Days, SeatCount: c.Timetable.SeatCount}
	for _, r := range c.Timetable.Routes {
		tt.Routes = append(tt.Routes, catalog.Route{ID: r.ID, Name: r.Name})
	}
	for _, d := range c.Timetable.Departures {
		tod, err := catalog.ParseTimeOfDay(d)
		if err != nil {
			return catalog.Timetable{}, fmt.Errorf("timetable departure: %w", err)
		}
		tt.Departures = append(tt.Departures, tod)
	}
	return tt, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
