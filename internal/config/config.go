package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ElephantWatchAPI/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Security  SecurityConfig
	Logging   LoggingConfig
	AI        AIConfig
	Line      LineConfig
	Detection DetectionConfig
	Map       MapConfig
	Sync      SyncConfig
	Zones     ZonesConfig
	MQTT      MQTTConfig
	Database  DatabaseConfig
	Redis     RedisConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	Environment     string
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxHeaderBytes  int
	MaxUploadBytes  int64
}

type SecurityConfig struct {
	AuthEnabled          bool
	JWTSecret            string
	JWTExpirationHours   int
	OperatorPasswordHash string
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	RateLimitPerMinute   int
	EnableRateLimit      bool
}

type LoggingConfig struct {
	Level     logger.Level
	Mode      logger.Mode
	FilePath  string
	UseColors bool
}

// AIConfig configures the generative-AI voice relay.
type AIConfig struct {
	APIKey string
	Model  string
}

// LineConfig configures outbound alert pushes. Either a long-lived
// ChannelAccessToken or a ChannelID/ChannelSecret pair may be provided.
type LineConfig struct {
	ChannelAccessToken string
	ChannelID          string
	ChannelSecret      string
	AdminUserID        string
	APIBaseURL         string
	TokenURL           string
	Timeout            time.Duration
}

type DetectionConfig struct {
	BaseURL string
	Timeout time.Duration
}

// MapConfig values are handed to the browser as-is.
type MapConfig struct {
	ClientID string
	LiffID   string
}

// SyncConfig controls where scenario triggers mirror their state.
type SyncConfig struct {
	URL     string
	Timeout time.Duration
}

type ZonesConfig struct {
	KMLPath  string
	YAMLPath string
}

type MQTTConfig struct {
	Enabled        bool
	Broker         string
	Port           int
	ClientID       string
	Username       string
	Password       string
	StateTopic     string
	AlertTopic     string
	CommandTopic   string
	QoS            byte
	RetainMessages bool
	KeepAlive      time.Duration
	ConnectTimeout time.Duration
	AutoReconnect  bool
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server:    loadServerConfig(),
		Security:  loadSecurityConfig(),
		Logging:   loadLoggingConfig(),
		AI:        loadAIConfig(),
		Line:      loadLineConfig(),
		Detection: loadDetectionConfig(),
		Map:       loadMapConfig(),
		Sync:      loadSyncConfig(),
		Zones:     loadZonesConfig(),
		MQTT:      loadMQTTConfig(),
		Database:  loadDatabaseConfig(),
		Redis:     loadRedisConfig(),
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("SERVER_HOST", "0.0.0.0"),
		Port:            getEnvAsInt("SERVER_PORT", 8080),
		Environment:     getEnv("ENVIRONMENT", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", "15s"),
		ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", "30s"),
		WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", "120s"),
		MaxHeaderBytes:  getEnvAsInt("MAX_HEADER_BYTES", 1048576),
		MaxUploadBytes:  int64(getEnvAsInt("MAX_UPLOAD_BYTES", 25<<20)),
	}
}

func loadSecurityConfig() SecurityConfig {
	origins := getEnv("CORS_ALLOWED_ORIGINS", "*")
	methods := getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,OPTIONS")

	return SecurityConfig{
		AuthEnabled:          getEnvAsBool("AUTH_ENABLED", false),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		JWTExpirationHours:   getEnvAsInt("JWT_EXPIRATION_HOURS", 12),
		OperatorPasswordHash: getEnv("OPERATOR_PASSWORD_HASH", ""),
		CORSAllowedOrigins:   strings.Split(origins, ","),
		CORSAllowedMethods:   strings.Split(methods, ","),
		RateLimitPerMinute:   getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
		EnableRateLimit:      getEnvAsBool("ENABLE_RATE_LIMIT", false),
	}
}

func loadLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:     logger.ParseLevel(getEnv("LOG_LEVEL", "info")),
		Mode:      logger.ParseMode(getEnv("LOG_MODE", "normal")),
		FilePath:  getEnv("LOG_FILE_PATH", ""),
		UseColors: getEnvAsBool("LOG_USE_COLORS", true),
	}
}

func loadAIConfig() AIConfig {
	return AIConfig{
		APIKey: getEnv("GEMINI_API_KEY", ""),
		Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
	}
}

func loadLineConfig() LineConfig {
	return LineConfig{
		ChannelAccessToken: getEnv("LINE_CHANNEL_ACCESS_TOKEN", ""),
		ChannelID:          getEnv("LINE_CHANNEL_ID", ""),
		ChannelSecret:      getEnv("LINE_CHANNEL_SECRET", ""),
		AdminUserID:        getEnv("MY_LINE_USER_ID", ""),
		APIBaseURL:         getEnv("LINE_API_BASE_URL", "https://api.line.me"),
		TokenURL:           getEnv("LINE_TOKEN_URL", "https://api.line.me/v2/oauth/accessToken"),
		Timeout:            getEnvAsDuration("LINE_TIMEOUT", "10s"),
	}
}

func loadDetectionConfig() DetectionConfig {
	return DetectionConfig{
		BaseURL: strings.TrimRight(getEnv("DETECTION_API_URL", ""), "/"),
		Timeout: getEnvAsDuration("DETECTION_TIMEOUT", "30s"),
	}
}

func loadMapConfig() MapConfig {
	return MapConfig{
		ClientID: getEnv("MAP_CLIENT_ID", ""),
		LiffID:   getEnv("LIFF_ID", ""),
	}
}

func loadSyncConfig() SyncConfig {
	return SyncConfig{
		URL:     getEnv("SIMULATION_SYNC_URL", ""),
		Timeout: getEnvAsDuration("SIMULATION_SYNC_TIMEOUT", "10s"),
	}
}

func loadZonesConfig() ZonesConfig {
	return ZonesConfig{
		KMLPath:  getEnv("ZONES_KML_PATH", ""),
		YAMLPath: getEnv("ZONES_YAML_PATH", ""),
	}
}

func loadMQTTConfig() MQTTConfig {
	return MQTTConfig{
		Enabled:        getEnv("MQTT_BROKER", "") != "",
		Broker:         getEnv("MQTT_BROKER", ""),
		Port:           getEnvAsInt("MQTT_PORT", 1883),
		ClientID:       getEnv("MQTT_CLIENT_ID", "elephant-watch-api"),
		Username:       getEnv("MQTT_USERNAME", ""),
		Password:       getEnv("MQTT_PASSWORD", ""),
		StateTopic:     getEnv("MQTT_STATE_TOPIC", "wildlife/elephant/state"),
		AlertTopic:     getEnv("MQTT_ALERT_TOPIC", "wildlife/elephant/alerts"),
		CommandTopic:   getEnv("MQTT_COMMAND_TOPIC", "wildlife/elephant/scenario/set"),
		QoS:            byte(getEnvAsInt("MQTT_QOS", 1)),
		RetainMessages: getEnvAsBool("MQTT_RETAIN", true),
		KeepAlive:      getEnvAsDuration("MQTT_KEEP_ALIVE", "60s"),
		ConnectTimeout: getEnvAsDuration("MQTT_CONNECT_TIMEOUT", "10s"),
		AutoReconnect:  getEnvAsBool("MQTT_AUTO_RECONNECT", true),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Enabled:         getEnv("DB_HOST", "") != "",
		Host:            getEnv("DB_HOST", ""),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "elephant_watch"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "elephant_watch"),
		SSLMode:         getEnv("DB_SSL_MODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "5m"),
		ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", "5m"),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("REDIS_DB", 0),
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
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

// LineEnabled reports whether any LINE credential is available.
func (c *Config) LineEnabled() bool {
	return c.Line.ChannelAccessToken != "" || (c.Line.ChannelID != "" && c.Line.ChannelSecret != "")
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

func (c *Config) GetMQTTBroker() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTT.Broker, c.MQTT.Port)
}

func (c *Config) Validate() error {
	var errors []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, "SERVER_PORT must be between 1 and 65535")
	}

	if c.Security.AuthEnabled {
		if c.Security.JWTSecret == "" {
			errors = append(errors, "JWT_SECRET is required when AUTH_ENABLED=true")
		}
		if c.Security.OperatorPasswordHash == "" {
			errors = append(errors, "OPERATOR_PASSWORD_HASH is required when AUTH_ENABLED=true")
		}
	}

	if c.Database.Enabled && (c.Database.Port < 1 || c.Database.Port > 65535) {
		errors = append(errors, "DB_PORT must be between 1 and 65535")
	}

	if c.MQTT.Enabled && (c.MQTT.Port < 1 || c.MQTT.Port > 65535) {
		errors = append(errors, "MQTT_PORT must be between 1 and 65535")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// MissingIntegrations lists optional integrations that will run as no-ops.
func (c *Config) MissingIntegrations() []string {
	var missing []string
	if c.AI.APIKey == "" {
		missing = append(missing, "GEMINI_API_KEY (voice relay disabled)")
	}
	if !c.LineEnabled() {
		missing = append(missing, "LINE_CHANNEL_ACCESS_TOKEN (alerts not pushed)")
	}
	if c.Line.AdminUserID == "" {
		missing = append(missing, "MY_LINE_USER_ID (no alert recipient)")
	}
	if c.Map.ClientID == "" {
		missing = append(missing, "MAP_CLIENT_ID")
	}
	return missing
}

func (c *Config) Print() {
	fmt.Println("╔══════════════════════════════════════════════════════════╗")
	fmt.Println("║         Elephant Watch - Configuration                   ║")
	fmt.Println("╚══════════════════════════════════════════════════════════╝")
	fmt.Printf("Environment:     %s\n", c.Server.Environment)
	fmt.Printf("Server:          %s:%d\n", c.Server.Host, c.Server.Port)
	fmt.Printf("Detection API:   %s\n", c.Detection.BaseURL)
	fmt.Printf("AI model:        %s (key set: %v)\n", c.AI.Model, c.AI.APIKey != "")
	fmt.Printf("LINE push:       %v\n", c.LineEnabled())
	if c.Redis.Addr != "" {
		fmt.Printf("Mirror:          redis %s\n", c.Redis.Addr)
	} else {
		fmt.Println("Mirror:          in-memory")
	}
	if c.Database.Enabled {
		fmt.Printf("Database:        %s:%d/%s\n", c.Database.Host, c.Database.Port, c.Database.Database)
	}
	if c.MQTT.Enabled {
		fmt.Printf("MQTT Broker:     %s:%d\n", c.MQTT.Broker, c.MQTT.Port)
	}
	fmt.Println("──────────────────────────────────────────────────────────")
}
