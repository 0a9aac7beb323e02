package config

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port               int `yaml:"port" validate:"gt=0,lte=65535"`
	LoginRatePerMinute int `yaml:"loginRatePerMinute" validate:"gte=0"`
	LoginBurst         int `yaml:"loginBurst" validate:"gte=0"`
}

// DatabaseConfig points at the Postgres reservation journal. Empty URL disables it.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// TelemetryConfig contains OpenTelemetry exporter configuration
type TelemetryConfig struct {
	ServiceName  string `yaml:"serviceName" validate:"required"`
	OTLPEndpoint string `yaml:"otlpEndpoint" validate:"omitempty,hostname_port|url"`
}

// RouteConfig is one shuttle route
type RouteConfig struct {
	ID   string `yaml:"id" validate:"required"`
	Name string `yaml:"name" validate:"required"`
}

// TimetableConfig describes the rolling schedule seeded at startup
type TimetableConfig struct {
	Timezone   string        `yaml:"timezone" validate:"required"`
	Routes     []RouteConfig `yaml:"routes" validate:"required,min=1,dive"`
	Departures []string      `yaml:"departures" validate:"required,min=1,dive,required"`
	Days       int           `yaml:"days" validate:"gt=0"`
	SeatCount  int           `yaml:"seatCount" validate:"gt=0"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server    ServerConfig    `yaml:"server" validate:"required"`
	Database  DatabaseConfig  `yaml:"database"`
	Telemetry TelemetryConfig `yaml:"telemetry" validate:"required"`
	Timetable TimetableConfig `yaml:"timetable" validate:"required"`
}
