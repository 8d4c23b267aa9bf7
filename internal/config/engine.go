package config

import (
	"github.com/spf13/viper"
)

// EngineConfig holds replay engine configuration
type EngineConfig struct {
	// Scale is the number of fractional digits amounts are rounded to on
	// input and rendered with on output.
	Scale int32
	// ExportEnabled turns on the Postgres snapshot export after a replay.
	ExportEnabled bool
	// RejectionQueueEnabled turns on the Redis side channel for rejected
	// records.
	RejectionQueueEnabled bool
}

// LoadEngineConfig returns engine configuration with defaults
func LoadEngineConfig() *EngineConfig {
	viper.SetDefault("engine.scale", 4)
	viper.SetDefault("engine.export_enabled", false)
	viper.SetDefault("engine.rejection_queue_enabled", false)

	return &EngineConfig{
		Scale:                 viper.GetInt32("engine.scale"),
		ExportEnabled:         viper.GetBool("engine.export_enabled"),
		RejectionQueueEnabled: viper.GetBool("engine.rejection_queue_enabled"),
	}
}

// ServerConfig holds HTTP ingest server configuration
type ServerConfig struct {
	Port string
	// JWTSecret enables bearer-token auth on mutating endpoints when set.
	JWTSecret string
}

// LoadServerConfig returns server configuration with defaults
func LoadServerConfig() *ServerConfig {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("jwt.secret_key", "")

	return &ServerConfig{
		Port:      viper.GetString("server.port"),
		JWTSecret: viper.GetString("jwt.secret_key"),
	}
}

// BindEnv wires the environment variables the engine understands.
func BindEnv() {
	viper.AutomaticEnv()

	viper.BindEnv("engine.scale", "ENGINE_SCALE")
	viper.BindEnv("engine.export_enabled", "ENGINE_EXPORT_ENABLED")
	viper.BindEnv("engine.rejection_queue_enabled", "ENGINE_REJECTION_QUEUE_ENABLED")

	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
}
