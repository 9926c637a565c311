// config/config.go in matching-service
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds infrastructure details for the Matching Service.
type Config struct {
	//Database (PostgreSQL) config
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string
	DB_HOST     string
	DB_PORT     string
	//Kafka config
	KAFKA_TOPIC  string
	KAFKA_BROKER string
	//RabbitMQ config for the notification bridge
	RABBITMQ_USER     string
	RABBITMQ_PASSWORD string
	RABBITMQ_HOST     string
	RABBITMQ_PORT     string

	//Tunable matching behavior
	Matching MatchingConfig
}

// MatchingConfig collects every knob of the matching engine in one place.
// The defaults reproduce the observed production behavior; nothing in the
// scoring or gap packages hard-codes these numbers.
type MatchingConfig struct {
	// Weights applied to each score factor. They should sum to 1.0.
	Weights ScoringWeights

	// MinSuggestionScore filters ranked suggestions below this total.
	MinSuggestionScore float64

	// ProximityRadiusKm is the "carriers in area" radius used by the
	// gap analyzer when classifying unmatched loads.
	ProximityRadiusKm float64

	// Forecast parameters. Utilization grows with historical shipment
	// volume but is capped so very active carriers are never projected
	// to zero availability.
	ForecastBaseUtilization    float64 // percent, applied at zero history
	ForecastUtilizationStep    float64 // percent added per 10 shipments
	ForecastUtilizationCeiling float64 // percent, hard cap
	ForecastMediumThreshold    int     // shipments needed for medium confidence
	ForecastHighThreshold      int     // shipments needed for high confidence
}

// ScoringWeights maps one weight to each breakdown factor of the scorer.
type ScoringWeights struct {
	RouteCompatibility float64
	VehicleMatch       float64
	CapacityMatch      float64
	CostOptimization   float64
	ReliabilityScore   float64
	DeliveryTimeMatch  float64
}

// DefaultMatchingConfig returns the production defaults.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		Weights: ScoringWeights{
			RouteCompatibility: 0.25,
			VehicleMatch:       0.15,
			CapacityMatch:      0.15,
			CostOptimization:   0.10,
			ReliabilityScore:   0.20,
			DeliveryTimeMatch:  0.15,
		},
		MinSuggestionScore:         70,
		ProximityRadiusKm:          200,
		ForecastBaseUtilization:    50,
		ForecastUtilizationStep:    5,
		ForecastUtilizationCeiling: 85,
		ForecastMediumThreshold:    5,
		ForecastHighThreshold:      20,
	}
}

// LoadConfig returns the service config from environment variables.
func LoadConfig() *Config {
	cfg := &Config{
		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_NAME:     os.Getenv("DB_NAME"),

		KAFKA_TOPIC:  os.Getenv("KAFKA_TOPIC"),
		KAFKA_BROKER: os.Getenv("KAFKA_BROKER"),

		RABBITMQ_USER:     os.Getenv("RABBITMQ_USER"),
		RABBITMQ_PASSWORD: os.Getenv("RABBITMQ_PASSWORD"),
		RABBITMQ_HOST:     os.Getenv("RABBITMQ_HOST"),
		RABBITMQ_PORT:     os.Getenv("RABBITMQ_PORT"),

		Matching: DefaultMatchingConfig(),
	}

	// The two knobs operators actually change in practice are overridable
	// without a redeploy; everything else stays at defaults.
	if v := os.Getenv("MATCHING_MIN_SCORE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Matching.MinSuggestionScore = f
		}
	}
	if v := os.Getenv("MATCHING_PROXIMITY_RADIUS_KM"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Matching.ProximityRadiusKm = f
		}
	}

	return cfg
}

// GetDBURL formats the config into a PostgreSQL connection string
func (c *Config) GetDBURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DB_USER, c.DB_PASSWORD, c.DB_HOST, c.DB_PORT, c.DB_NAME)
}

// GetRabbitMQURL formats the config into a RabbitMQ connection string
func (c *Config) GetRabbitMQURL() string {
	host := c.RABBITMQ_HOST
	if host == "" {
		host = "localhost"
	}
	port := c.RABBITMQ_PORT
	if port == "" {
		port = "5672"
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.RABBITMQ_USER, c.RABBITMQ_PASSWORD, host, port)
}
