package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// DefaultGeofenceMeters is the acceptance radius around a community anchor.
const DefaultGeofenceMeters = 200.0

// Config holds deployment configuration. Values come from an optional YAML
// file with environment variables taking precedence.
type Config struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// GeofenceMeters is the server-side attendance acceptance radius.
	GeofenceMeters float64 `yaml:"geofence_meters"`

	// OTPPerMinute caps OTP issuance requests per client IP.
	OTPPerMinute int `yaml:"otp_per_minute"`
}

func defaults() Config {
	return Config{
		Port: "5050",
		AllowedOrigins: []string{
			"http://localhost:5173",
			"https://ttfpp.uds.edu.gh",
		},
		GeofenceMeters: DefaultGeofenceMeters,
		OTPPerMinute:   5,
	}
}

// Load reads configuration from the YAML file at path (optional; pass "" to
// try ./config.yaml) and then applies environment overrides.
//
// Environment variables:
//   - PORT: HTTP listen port
//   - CORS_ORIGINS: comma-separated origin allow-list
//   - GEOFENCE_METERS: acceptance radius in meters
//   - OTP_PER_MINUTE: OTP issuance rate limit per IP
func Load(path string) Config {
	cfg := defaults()

	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("[config] failed to parse %s: %v", path, err)
		}
		log.Printf("[config] loaded %s", path)
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	if meters := os.Getenv("GEOFENCE_METERS"); meters != "" {
		v, err := strconv.ParseFloat(meters, 64)
		if err != nil || v <= 0 {
			log.Fatalf("[config] invalid GEOFENCE_METERS %q", meters)
		}
		cfg.GeofenceMeters = v
	}
	if perMin := os.Getenv("OTP_PER_MINUTE"); perMin != "" {
		v, err := strconv.Atoi(perMin)
		if err != nil || v <= 0 {
			log.Fatalf("[config] invalid OTP_PER_MINUTE %q", perMin)
		}
		cfg.OTPPerMinute = v
	}

	return cfg
}
