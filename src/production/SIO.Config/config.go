package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ListenerConfig holds configuration for the MQTT listener service
type ListenerConfig struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Mongo    MongoConfig    `json:"mongo"`
	MQTT     MQTTConfig     `json:"mqtt"`
	SMTP     SMTPConfig     `json:"smtp"`
	Queue    QueueConfig    `json:"queue"`
	Logging  LoggingConfig  `json:"logging"`
}

// ApiConfig holds configuration for the device API service
type ApiConfig struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Mongo    MongoConfig    `json:"mongo"`
	MQTT     MQTTConfig     `json:"mqtt"`
	Logging  LoggingConfig  `json:"logging"`
	CORS     CORSConfig     `json:"cors"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL-related configuration
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
	MaxConns int    `json:"max_conns"`
}

// MongoConfig holds MongoDB-related configuration for the readings archive
type MongoConfig struct {
	URI        string `json:"uri"`
	Database   string `json:"database"`
	Collection string `json:"collection"`
}

// MQTTConfig holds MQTT broker configuration
type MQTTConfig struct {
	BrokerHost  string        `json:"broker_host"`
	BrokerPort  int           `json:"broker_port"`
	BrokerUser  string        `json:"broker_user"`
	BrokerPass  string        `json:"broker_pass"`
	UseTLS      bool          `json:"use_tls"`
	CACertPath  string        `json:"ca_cert_path"`
	ClientID    string        `json:"client_id"`
	KeepAlive   time.Duration `json:"keep_alive"`
	PingTimeout time.Duration `json:"ping_timeout"`
}

// SMTPConfig holds outbound mail configuration for trigger alerts
type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

// QueueConfig holds the action task queue configuration
type QueueConfig struct {
	Workers     int           `json:"workers"`
	BufferSize  int           `json:"buffer_size"`
	MaxAttempts int           `json:"max_attempts"`
	RetryDelay  time.Duration `json:"retry_delay"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level        string `json:"level"`
	Format       string `json:"format"` // json or text
	Output       string `json:"output"` // stdout or stderr
	EnableCaller bool   `json:"enable_caller"`
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

// LoadListenerConfig loads configuration for the MQTT listener service
func LoadListenerConfig() (*ListenerConfig, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	config := &ListenerConfig{
		Server:   loadServerConfig("9010"),
		Database: loadDatabaseConfig(),
		Mongo:    loadMongoConfig(),
		MQTT:     loadMQTTConfig("smartiot-cloud-listener"),
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "alerts@smartiot.local"),
		},
		Queue: QueueConfig{
			Workers:     getInt("QUEUE_WORKERS", 4),
			BufferSize:  getInt("QUEUE_BUFFER_SIZE", 4096),
			MaxAttempts: getInt("QUEUE_MAX_ATTEMPTS", 3),
			RetryDelay:  getDuration("QUEUE_RETRY_DELAY", time.Second),
		},
		Logging: loadLoggingConfig(),
	}

	if err := config.Database.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// LoadApiConfig loads configuration for the device API service
func LoadApiConfig() (*ApiConfig, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	config := &ApiConfig{
		Server:   loadServerConfig("9011"),
		Database: loadDatabaseConfig(),
		Mongo:    loadMongoConfig(),
		MQTT:     loadMQTTConfig("smartiot-api-service"),
		Logging:  loadLoggingConfig(),
		CORS: CORSConfig{
			AllowedOrigins:   getStringSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:   getStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getStringSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "X-Device-ID", "X-Secret-Key"}),
			AllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           getInt("CORS_MAX_AGE", 43200),
		},
	}

	if err := config.Database.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadServerConfig(defaultPort string) ServerConfig {
	return ServerConfig{
		Port:         getEnv("PORT", defaultPort),
		ReadTimeout:  getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getDuration("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:  getDuration("IDLE_TIMEOUT", 120*time.Second),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("POSTGRES_HOST", "localhost"),
		Port:     getInt("POSTGRES_PORT", 5432),
		User:     getRequiredEnv("POSTGRES_USER"),
		Password: getRequiredEnv("POSTGRES_PASSWORD"),
		DBName:   getEnv("POSTGRES_DB", "smartiot"),
		SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		MaxConns: getInt("POSTGRES_MAX_CONNS", 25),
	}
}

func loadMongoConfig() MongoConfig {
	return MongoConfig{
		URI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		Database:   getEnv("MONGODB_DATABASE", "smartiot"),
		Collection: getEnv("MONGODB_READINGS_COLLECTION", "readings"),
	}
}

func loadMQTTConfig(defaultClientID string) MQTTConfig {
	return MQTTConfig{
		BrokerHost:  getEnv("BROKER_HOST", "localhost"),
		BrokerPort:  getInt("BROKER_PORT", 1883),
		BrokerUser:  getEnv("BROKER_USER", ""),
		BrokerPass:  getEnv("BROKER_PASS", ""),
		UseTLS:      getBool("BROKER_TLS", false),
		CACertPath:  getEnv("BROKER_CA_FILE", ""),
		ClientID:    getEnv("MQTT_CLIENT_ID", defaultClientID),
		KeepAlive:   getDuration("MQTT_KEEP_ALIVE", 30*time.Second),
		PingTimeout: getDuration("MQTT_PING_TIMEOUT", 10*time.Second),
	}
}

func loadLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:        getEnv("LOG_LEVEL", "info"),
		Format:       getEnv("LOG_FORMAT", "text"),
		Output:       getEnv("LOG_OUTPUT", "stdout"),
		EnableCaller: getBool("LOG_ENABLE_CALLER", false),
	}
}

func (c DatabaseConfig) validate() error {
	if c.User == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if c.Password == "" {
		return fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// BrokerURL returns the MQTT broker URL
func (c MQTTConfig) BrokerURL() string {
	scheme := "tcp"
	if c.UseTLS {
		scheme = "tcps"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.BrokerHost, c.BrokerPort)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getRequiredEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("missing required environment variable: %s", key)
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return intValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if value == "1" || value == "true" || value == "TRUE" {
		return true
	}
	if value == "0" || value == "false" || value == "FALSE" {
		return false
	}
	log.Fatalf("invalid %s: %q (expected true/false or 1/0)", key, value)
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return duration
}

func getStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
