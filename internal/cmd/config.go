package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration surface. Values come from an optional
// YAML file with environment-variable overrides on top, so a bare
// deployment needs no file at all.
type Config struct {
	Port                int    `yaml:"port"`
	HTTPPort            int    `yaml:"http_port"`
	BoardSize           int    `yaml:"board_size"`
	RoomCount           int    `yaml:"room_count"`
	ClickTimeoutSeconds int    `yaml:"click_timeout_seconds"`
	AuthBaseURL         string `yaml:"auth_base_url"`
	MaxConns            int    `yaml:"max_conns"`
	LogLevel            string `yaml:"log_level"`
}

func defaultConfig() Config {
	return Config{
		Port:                7000,
		HTTPPort:            7001,
		BoardSize:           5,
		RoomCount:           4,
		ClickTimeoutSeconds: 10,
		AuthBaseURL:         "http://localhost:5231",
		MaxConns:            512,
		LogLevel:            "info",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// loadConfig reads the YAML file when present, then applies env overrides.
// A missing file is not an error; env-only deployments are normal.
func loadConfig(path string) (Config, error) {
	config := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &config); err != nil {
				return Config{}, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	config.Port = getEnvAsInt("CLICKARENA_PORT", config.Port)
	config.HTTPPort = getEnvAsInt("CLICKARENA_HTTP_PORT", config.HTTPPort)
	config.BoardSize = getEnvAsInt("CLICKARENA_BOARD_SIZE", config.BoardSize)
	config.RoomCount = getEnvAsInt("CLICKARENA_ROOM_COUNT", config.RoomCount)
	config.ClickTimeoutSeconds = getEnvAsInt("CLICKARENA_CLICK_TIMEOUT_SECONDS", config.ClickTimeoutSeconds)
	config.AuthBaseURL = getEnv("CLICKARENA_AUTH_BASEURL", config.AuthBaseURL)
	config.MaxConns = getEnvAsInt("CLICKARENA_MAX_CONNS", config.MaxConns)
	config.LogLevel = getEnv("CLICKARENA_LOG_LEVEL", config.LogLevel)

	// The lobby always offers at least the four standard rooms.
	if config.RoomCount < 4 {
		config.RoomCount = 4
	}

	return config, nil
}
