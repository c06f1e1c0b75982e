package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var cameraIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

type Config struct {
	LogLevel    string
	Cameras     CameraConfig
	Obstruction ObstructionConfig
	Cooldown    CooldownConfig
	Detector    DetectorConfig
	Email       EmailConfig
	SMS         SMSConfig
	Dispatch    DispatchConfig
	Storage     StorageConfig
	S3          S3Config
	Audit       AuditConfig
	NATS        NATSConfig
	Redis       RedisConfig
	CloudWatch  CloudWatchConfig
	Telemetry   TelemetryConfig
	Server      ServerConfig
	Security    SecurityConfig
}

type CameraConfig struct {
	IDs             []string
	Source          string // dir | http
	SourceRoot      string
	SnapshotURL     string // template, {id} is replaced with the camera id
	FrameInterval   time.Duration
	MaxReadFailures int
}

type ObstructionConfig struct {
	DarkPixelThreshold  uint8
	FullBlockBrightness float64
	PartialDarkRatio    float64
	DebounceDuration    time.Duration
}

type CooldownConfig struct {
	Default           time.Duration
	PerCategory       map[string]time.Duration
	SharedObstruction bool
}

type DetectorConfig struct {
	Endpoint               string
	ConfidenceThreshold    float64
	InferenceSize          int
	Timeout                time.Duration
	ClassCategories        map[string]string
	MaxConsecutiveFailures int
}

type EmailConfig struct {
	Enabled  bool
	Sender   string
	Password string
	Receiver string
	SMTPHost string
	SMTPPort int
}

type SMSConfig struct {
	Enabled    bool
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

type DispatchConfig struct {
	QueueSize        int
	Workers          int
	TransportTimeout time.Duration
	TransportRetries int
	RatePerMinute    int
	ShutdownTimeout  time.Duration
}

type StorageConfig struct {
	SnapshotDir  string
	AlertLogPath string
	JPEGQuality  int
	Annotate     bool
}

type S3Config struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	KeyPrefix       string
	URLMode         string
	PresignedTTL    time.Duration
}

type AuditConfig struct {
	Backend  string // none | postgres | dynamodb
	Database DatabaseConfig
	Dynamo   DynamoConfig
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type DynamoConfig struct {
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	TTLDays         int
}

type NATSConfig struct {
	Enabled       bool
	URL           string
	SubjectPrefix string
}

type RedisConfig struct {
	Enabled   bool
	Host      string
	Port      string
	Password  string
	DB        int
	TTL       time.Duration
	Namespace string
}

type CloudWatchConfig struct {
	LogsEnabled          bool
	MetricsEnabled       bool
	Region               string
	Endpoint             string
	AccessKeyID          string
	SecretAccessKey      string
	LogGroupName         string
	LogStreamName        string
	LogsBufferSize       int
	LogsFlushInterval    time.Duration
	MetricsNamespace     string
	MetricsBufferSize    int
	MetricsFlushInterval time.Duration
}

type TelemetryConfig struct {
	Interval time.Duration
}

type ServerConfig struct {
	Enabled         bool
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type SecurityConfig struct {
	AllowedOrigins []string
	AuthEnabled    bool
	AuthToken      string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load читает конфигурацию: .env, затем YAML-файл из CONFIG_FILE, затем переменные окружения.
// Переменные окружения всегда имеют приоритет над YAML.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	src := source{}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		values, err := readYAMLFile(path)
		if err != nil {
			return nil, err
		}
		src.file = values
	}

	return src.build()
}

// LoadFromMap строит конфигурацию из явного набора ключей без обращения к окружению.
func LoadFromMap(values map[string]string) (*Config, error) {
	return source{file: values, skipEnv: true}.build()
}

type source struct {
	file    map[string]string
	skipEnv bool
}

func (s source) build() (*Config, error) {
	classCategories, err := parseClassCategories(s.getEnv("DETECTOR_CLASS_CATEGORIES", "weapon:weapon,0:weapon"))
	if err != nil {
		return nil, err
	}

	darkThreshold := s.getEnvInt("OBSTRUCTION_DARK_PIXEL_THRESHOLD", 30)
	if darkThreshold < 0 || darkThreshold > 255 {
		return nil, fmt.Errorf("OBSTRUCTION_DARK_PIXEL_THRESHOLD must be within 0..255")
	}

	defaultCooldown := s.getEnvDuration("COOLDOWN_DEFAULT", 10*time.Second)

	cfg := &Config{
		LogLevel: strings.ToLower(s.getEnv("LOG_LEVEL", "info")),
		Cameras: CameraConfig{
			IDs:             splitCSV(s.getEnv("CAMERA_IDS", "0")),
			Source:          strings.ToLower(s.getEnv("CAMERA_SOURCE", "dir")),
			SourceRoot:      s.getEnv("CAMERA_SOURCE_ROOT", "frames"),
			SnapshotURL:     s.getEnv("CAMERA_SNAPSHOT_URL", ""),
			FrameInterval:   s.getEnvDuration("CAMERA_FRAME_INTERVAL", 100*time.Millisecond),
			MaxReadFailures: s.getEnvInt("CAMERA_MAX_READ_FAILURES", 3),
		},
		Obstruction: ObstructionConfig{
			DarkPixelThreshold:  uint8(darkThreshold),
			FullBlockBrightness: s.getEnvFloat("OBSTRUCTION_FULL_BRIGHTNESS", 30),
			PartialDarkRatio:    s.getEnvFloat("OBSTRUCTION_PARTIAL_DARK_RATIO", 0.5),
			DebounceDuration:    s.getEnvDuration("OBSTRUCTION_DEBOUNCE", 3*time.Second),
		},
		Cooldown: CooldownConfig{
			Default: defaultCooldown,
			PerCategory: map[string]time.Duration{
				"weapon":            s.getEnvDuration("COOLDOWN_WEAPON", defaultCooldown),
				"fully_blocked":     s.getEnvDuration("COOLDOWN_FULLY_BLOCKED", defaultCooldown),
				"partially_blocked": s.getEnvDuration("COOLDOWN_PARTIALLY_BLOCKED", defaultCooldown),
			},
			SharedObstruction: s.getEnvBool("COOLDOWN_SHARED_OBSTRUCTION", false),
		},
		Detector: DetectorConfig{
			Endpoint:               s.getEnv("DETECTOR_ENDPOINT", ""),
			ConfidenceThreshold:    s.getEnvFloat("DETECTOR_CONFIDENCE", 0.5),
			InferenceSize:          s.getEnvInt("DETECTOR_INFERENCE_SIZE", 512),
			Timeout:                s.getEnvDuration("DETECTOR_TIMEOUT", 5*time.Second),
			ClassCategories:        classCategories,
			MaxConsecutiveFailures: s.getEnvInt("DETECTOR_MAX_CONSECUTIVE_FAILURES", 0),
		},
		Email: EmailConfig{
			Sender:   s.getEnv("SENDER_EMAIL", ""),
			Password: s.getEnv("EMAIL_PASSWORD", ""),
			Receiver: s.getEnv("RECEIVER_EMAIL", ""),
			SMTPHost: s.getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort: s.getEnvInt("SMTP_PORT", 465),
		},
		SMS: SMSConfig{
			AccountSID: s.getEnv("TWILIO_SID", ""),
			AuthToken:  s.getEnv("TWILIO_TOKEN", ""),
			From:       s.getEnv("TWILIO_FROM", ""),
			To:         s.getEnv("TWILIO_TO", ""),
		},
		Dispatch: DispatchConfig{
			QueueSize:        s.getEnvInt("DISPATCH_QUEUE_SIZE", 64),
			Workers:          s.getEnvInt("DISPATCH_WORKERS", 2),
			TransportTimeout: s.getEnvDuration("DISPATCH_TRANSPORT_TIMEOUT", 15*time.Second),
			TransportRetries: s.getEnvInt("DISPATCH_TRANSPORT_RETRIES", 0),
			RatePerMinute:    s.getEnvInt("DISPATCH_RATE_PER_MINUTE", 30),
			ShutdownTimeout:  s.getEnvDuration("DISPATCH_SHUTDOWN_TIMEOUT", 20*time.Second),
		},
		Storage: StorageConfig{
			SnapshotDir:  s.getEnv("SNAPSHOT_DIR", "snapshots"),
			AlertLogPath: s.getEnv("ALERT_LOG_PATH", "alert_log.txt"),
			JPEGQuality:  s.getEnvInt("SNAPSHOT_JPEG_QUALITY", 90),
			Annotate:     s.getEnvBool("SNAPSHOT_ANNOTATE", true),
		},
		S3: S3Config{
			Enabled:         s.getEnvBool("S3_ENABLED", false),
			Bucket:          s.getEnv("S3_BUCKET", ""),
			Region:          s.getEnv("S3_REGION", "us-east-1"),
			Endpoint:        s.getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     s.getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: s.getEnv("S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    s.getEnvBool("S3_USE_PATH_STYLE", true),
			KeyPrefix:       s.getEnv("S3_KEY_PREFIX", "snapshots"),
			URLMode:         s.getEnv("S3_URL_MODE", "presigned"),
			PresignedTTL:    s.getEnvDuration("S3_PRESIGNED_TTL", 24*time.Hour),
		},
		Audit: AuditConfig{
			Backend: strings.ToLower(s.getEnv("AUDIT_BACKEND", "none")),
			Database: DatabaseConfig{
				Host:            s.getEnv("DB_HOST", "localhost"),
				Port:            s.getEnv("DB_PORT", "5432"),
				User:            s.getEnv("DB_USER", "postgres"),
				Password:        s.getEnv("DB_PASSWORD", "postgres"),
				Database:        s.getEnv("DB_NAME", "surveillance"),
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: 5 * time.Minute,
				ConnMaxIdleTime: 10 * time.Minute,
			},
			Dynamo: DynamoConfig{
				TableName:       s.getEnv("DYNAMO_TABLE_ALERTS", "surveillance_alerts"),
				Region:          s.getEnv("DYNAMO_REGION", "us-east-1"),
				Endpoint:        s.getEnv("DYNAMO_ENDPOINT", ""),
				AccessKeyID:     s.getEnv("DYNAMO_ACCESS_KEY_ID", ""),
				SecretAccessKey: s.getEnv("DYNAMO_SECRET_ACCESS_KEY", ""),
				TTLDays:         s.getEnvInt("DYNAMO_TTL_DAYS", 30),
			},
		},
		NATS: NATSConfig{
			Enabled:       s.getEnvBool("NATS_ENABLED", false),
			URL:           s.getEnv("NATS_URL", "nats://localhost:4222"),
			SubjectPrefix: s.getEnv("NATS_SUBJECT_PREFIX", "surveillance.alerts"),
		},
		Redis: RedisConfig{
			Enabled:   s.getEnvBool("REDIS_ENABLED", false),
			Host:      s.getEnv("REDIS_HOST", "localhost"),
			Port:      s.getEnv("REDIS_PORT", "6379"),
			Password:  s.getEnv("REDIS_PASSWORD", ""),
			DB:        s.getEnvInt("REDIS_DB", 0),
			TTL:       s.getEnvDuration("REDIS_TTL", 24*time.Hour),
			Namespace: s.getEnv("REDIS_NAMESPACE", "surveillance"),
		},
		CloudWatch: CloudWatchConfig{
			LogsEnabled:          s.getEnvBool("CLOUDWATCH_LOGS_ENABLED", false),
			MetricsEnabled:       s.getEnvBool("CLOUDWATCH_METRICS_ENABLED", false),
			Region:               s.getEnv("CLOUDWATCH_REGION", "us-east-1"),
			Endpoint:             s.getEnv("CLOUDWATCH_ENDPOINT", ""),
			AccessKeyID:          s.getEnv("CLOUDWATCH_ACCESS_KEY_ID", ""),
			SecretAccessKey:      s.getEnv("CLOUDWATCH_SECRET_ACCESS_KEY", ""),
			LogGroupName:         s.getEnv("CLOUDWATCH_LOG_GROUP", "/surveillance/alerts"),
			LogStreamName:        s.getEnv("CLOUDWATCH_LOG_STREAM", hostnameOr("surveillance")),
			LogsBufferSize:       s.getEnvInt("CLOUDWATCH_LOGS_BUFFER_SIZE", 50),
			LogsFlushInterval:    s.getEnvDuration("CLOUDWATCH_LOGS_FLUSH_INTERVAL", 5*time.Second),
			MetricsNamespace:     s.getEnv("CLOUDWATCH_METRICS_NAMESPACE", "Surveillance/Monitor"),
			MetricsBufferSize:    s.getEnvInt("CLOUDWATCH_METRICS_BUFFER_SIZE", 100),
			MetricsFlushInterval: s.getEnvDuration("CLOUDWATCH_METRICS_FLUSH_INTERVAL", 60*time.Second),
		},
		Telemetry: TelemetryConfig{
			Interval: s.getEnvDuration("TELEMETRY_INTERVAL", 15*time.Second),
		},
		Server: ServerConfig{
			Enabled:         s.getEnvBool("SERVER_ENABLED", true),
			Port:            s.getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: splitCSV(s.getEnv("ALLOWED_ORIGINS", "http://localhost:8080,http://127.0.0.1:8080")),
			AuthEnabled:    s.getEnvBool("AUTH_ENABLED", false),
			AuthToken:      s.getEnv("AUTH_BEARER_TOKEN", ""),
			RateLimitRPS:   s.getEnvFloat("API_RATE_LIMIT_RPS", 10),
			RateLimitBurst: s.getEnvInt("API_RATE_LIMIT_BURST", 20),
		},
	}

	cfg.Email.Enabled = cfg.Email.Sender != "" && cfg.Email.Receiver != ""
	cfg.SMS.Enabled = cfg.SMS.AccountSID != ""

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	if len(c.Cameras.IDs) == 0 {
		return fmt.Errorf("CAMERA_IDS must list at least one camera")
	}
	seen := make(map[string]struct{}, len(c.Cameras.IDs))
	for _, id := range c.Cameras.IDs {
		if !cameraIDPattern.MatchString(id) {
			return fmt.Errorf("invalid camera id %q", id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate camera id %q", id)
		}
		seen[id] = struct{}{}
	}

	switch c.Cameras.Source {
	case "dir":
		if strings.TrimSpace(c.Cameras.SourceRoot) == "" {
			return fmt.Errorf("CAMERA_SOURCE_ROOT is required when CAMERA_SOURCE=dir")
		}
	case "http":
		if !strings.Contains(c.Cameras.SnapshotURL, "{id}") && len(c.Cameras.IDs) > 1 {
			return fmt.Errorf("CAMERA_SNAPSHOT_URL must contain {id} when monitoring several cameras")
		}
		if strings.TrimSpace(c.Cameras.SnapshotURL) == "" {
			return fmt.Errorf("CAMERA_SNAPSHOT_URL is required when CAMERA_SOURCE=http")
		}
	default:
		return fmt.Errorf("unsupported CAMERA_SOURCE: %s", c.Cameras.Source)
	}

	if c.Obstruction.PartialDarkRatio < 0 || c.Obstruction.PartialDarkRatio > 1 {
		return fmt.Errorf("OBSTRUCTION_PARTIAL_DARK_RATIO must be within 0..1")
	}
	if c.Obstruction.FullBlockBrightness < 0 || c.Obstruction.FullBlockBrightness > 255 {
		return fmt.Errorf("OBSTRUCTION_FULL_BRIGHTNESS must be within 0..255")
	}
	if c.Obstruction.DebounceDuration < 0 {
		return fmt.Errorf("OBSTRUCTION_DEBOUNCE must not be negative")
	}

	if c.Cooldown.Default < 0 {
		return fmt.Errorf("COOLDOWN_DEFAULT must not be negative")
	}
	for category, d := range c.Cooldown.PerCategory {
		if d < 0 {
			return fmt.Errorf("cooldown for %s must not be negative", category)
		}
	}

	if c.Detector.ConfidenceThreshold < 0 || c.Detector.ConfidenceThreshold > 1 {
		return fmt.Errorf("DETECTOR_CONFIDENCE must be within 0..1")
	}
	if c.Detector.InferenceSize <= 0 {
		return fmt.Errorf("DETECTOR_INFERENCE_SIZE must be positive")
	}
	if c.Detector.MaxConsecutiveFailures < 0 {
		return fmt.Errorf("DETECTOR_MAX_CONSECUTIVE_FAILURES must not be negative")
	}

	if c.Email.Enabled && c.Email.Password == "" {
		return fmt.Errorf("EMAIL_PASSWORD is required when SENDER_EMAIL and RECEIVER_EMAIL are set")
	}
	if c.SMS.Enabled && (c.SMS.AuthToken == "" || c.SMS.From == "" || c.SMS.To == "") {
		return fmt.Errorf("TWILIO_TOKEN, TWILIO_FROM and TWILIO_TO are required when TWILIO_SID is set")
	}

	if c.Dispatch.QueueSize <= 0 {
		return fmt.Errorf("DISPATCH_QUEUE_SIZE must be positive")
	}
	if c.Dispatch.Workers <= 0 {
		return fmt.Errorf("DISPATCH_WORKERS must be positive")
	}
	if c.Dispatch.TransportRetries < 0 {
		return fmt.Errorf("DISPATCH_TRANSPORT_RETRIES must not be negative")
	}
	if c.Storage.JPEGQuality < 1 || c.Storage.JPEGQuality > 100 {
		return fmt.Errorf("SNAPSHOT_JPEG_QUALITY must be within 1..100")
	}

	switch c.Audit.Backend {
	case "none", "postgres", "dynamodb":
	default:
		return fmt.Errorf("unsupported AUDIT_BACKEND: %s", c.Audit.Backend)
	}

	if c.Security.AuthEnabled && c.Security.AuthToken == "" {
		return fmt.Errorf("AUTH_BEARER_TOKEN is required when AUTH_ENABLED=true")
	}

	return nil
}

// CooldownFor возвращает cooldown категории или значение по умолчанию
func (c CooldownConfig) CooldownFor(category string) time.Duration {
	if d, ok := c.PerCategory[category]; ok {
		return d
	}
	return c.Default
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database)
}

func (s source) lookup(key string) (string, bool) {
	if !s.skipEnv {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return value, true
		}
	}
	if value, ok := s.file[key]; ok && strings.TrimSpace(value) != "" {
		return value, true
	}
	return "", false
}

func (s source) getEnv(key, fallback string) string {
	if value, ok := s.lookup(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func (s source) getEnvBool(key string, fallback bool) bool {
	if value, ok := s.lookup(key); ok {
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func (s source) getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := s.lookup(key); ok {
		parsed, err := time.ParseDuration(strings.TrimSpace(value))
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func (s source) getEnvInt(key string, fallback int) int {
	if value, ok := s.lookup(key); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func (s source) getEnvFloat(key string, fallback float64) float64 {
	if value, ok := s.lookup(key); ok {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func readYAMLFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	raw := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	values := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
			continue
		case []interface{}:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			values[strings.ToUpper(key)] = strings.Join(parts, ",")
		default:
			values[strings.ToUpper(key)] = fmt.Sprint(v)
		}
	}

	return values, nil
}

// parseClassCategories разбирает "label:category,0:weapon" в map.
// Ключом может быть имя класса детектора или его числовой id.
func parseClassCategories(raw string) (map[string]string, error) {
	result := make(map[string]string)
	for _, item := range splitCSV(raw) {
		parts := strings.SplitN(item, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid DETECTOR_CLASS_CATEGORIES entry %q (want label:category)", item)
		}
		result[strings.ToLower(parts[0])] = strings.ToLower(parts[1])
	}
	return result, nil
}

func splitCSV(raw string) []string {
	items := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func hostnameOr(fallback string) string {
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return fallback
}
