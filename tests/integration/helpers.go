package integration

import (
	"time"

	"plategate/internal/config"
	"plategate/internal/constants"
	"plategate/internal/logger"
	"plategate/pkg/models"
)

const (
	containerStartupTimeout = 60
	sinkTimeout             = 10 * time.Second
)

func createTestLogger() logger.Logger {
	return logger.NopLogger()
}

func createTestDeduplicationConfig() config.DeduplicationConfig {
	return config.DeduplicationConfig{
		Enabled:       true,
		HashAlgorithm: "sha256",
		TTLSeconds:    300,
		OnRedisError:  constants.FallbackAllow,
		FieldsToHash:  []string{"ip_address", "license_plate", "date_time"},
	}
}

func createTestEvent(plate string) models.StructuredEvent {
	return models.StructuredEvent{
		IPAddress:    "192.168.1.64",
		DateTime:     "2024-03-18T10:21:07+08:00",
		EventType:    "ANPR",
		LicensePlate: plate,
		VehicleType:  "car",
		VehicleColor: "blue",
		VehicleSpeed: "42",
	}
}
