package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pstrings "hrportal/pkg/platform/strings"
)

// Server captures process level configuration for the HR portal.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string
	LogFormat   string

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	AdminToken    string

	DatabaseURL string
	Redis       RedisConfig
	Blob        BlobConfig
	Lock        LockConfig
	Profiles    Profiles
	Notify      NotifyConfig
}

// RedisConfig holds connection options for the distributed lock backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// BlobConfig selects and configures the blob backend.
type BlobConfig struct {
	Backend    string // memory | filesystem | s3
	Dir        string
	StagingDir string

	Bucket    string
	Endpoint  string
	Region    string
	AccountID string
	AccessKey string
	SecretKey string

	RetryAttempts int
	RetryBackoff  time.Duration
}

// LockConfig selects the per-record lock implementation.
type LockConfig struct {
	Backend string // memory | redis
	TTL     time.Duration
	Timeout time.Duration
}

// Profile is the raw form of a document intake profile.
type Profile struct {
	Name          string
	MaxFileSize   int64
	AllowedTypes  []string
	MaxFiles      int
	VerifyContent bool
}

// Profiles holds one profile per intake path. Recruitment and requested documents
// deliberately differ in allow-list and ceiling.
type Profiles struct {
	Recruitment   Profile
	RequestedDocs Profile
	Contract      Profile
}

// NotifyConfig configures the outbox relay.
type NotifyConfig struct {
	Sink         string // none | kafka | amqp
	KafkaBrokers []string
	KafkaTopic   string
	AMQPURL      string
	AMQPExchange string
	PollInterval time.Duration
	BatchSize    int
}

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Load reads an optional .env file and then builds the configuration from the
// process environment. Existing environment variables win over .env entries.
func Load(files ...string) (Server, error) {
	if err := godotenv.Load(files...); err != nil && len(files) > 0 {
		return Server{}, fmt.Errorf("load env files: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:        getString("HR_PORTAL_ADDR", ":8080"),
		Environment: getString("APP_ENV", EnvDevelopment),
		LogLevel:    getString("LOG_LEVEL", "info"),
		LogFormat:   getString("LOG_FORMAT", ""),

		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		JWTIssuer:     os.Getenv("JWT_ISSUER"),
		JWTAudience:   os.Getenv("JWT_AUDIENCE"),
		AdminToken:    os.Getenv("ADMIN_TOKEN"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
	}

	var errs []string
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	var err error
	cfg.Redis.URL = os.Getenv("REDIS_URL")
	cfg.Redis.PoolSize, err = getInt("REDIS_POOL_SIZE", 10)
	collect(err)
	cfg.Redis.MinIdleConns, err = getInt("REDIS_MIN_IDLE_CONNS", 2)
	collect(err)
	cfg.Redis.DialTimeout, err = getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	collect(err)
	cfg.Redis.ReadTimeout, err = getDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	collect(err)
	cfg.Redis.WriteTimeout, err = getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	collect(err)

	cfg.Blob = BlobConfig{
		Backend:    getString("BLOB_BACKEND", "memory"),
		Dir:        getString("BLOB_DIR", "./data/blobs"),
		StagingDir: os.Getenv("BLOB_STAGING_DIR"),
		Bucket:     os.Getenv("BLOB_BUCKET"),
		Endpoint:   os.Getenv("BLOB_ENDPOINT"),
		Region:     getString("BLOB_REGION", "auto"),
		AccountID:  os.Getenv("R2_ACCOUNT_ID"),
		AccessKey:  os.Getenv("BLOB_ACCESS_KEY"),
		SecretKey:  os.Getenv("BLOB_SECRET_KEY"),
	}
	cfg.Blob.RetryAttempts, err = getInt("BLOB_RETRY_ATTEMPTS", 3)
	collect(err)
	cfg.Blob.RetryBackoff, err = getDuration("BLOB_RETRY_BACKOFF", 200*time.Millisecond)
	collect(err)

	cfg.Lock.Backend = getString("LOCK_BACKEND", "memory")
	cfg.Lock.TTL, err = getDuration("LOCK_TTL", 30*time.Second)
	collect(err)
	cfg.Lock.Timeout, err = getDuration("LOCK_TIMEOUT", 5*time.Second)
	collect(err)

	cfg.Profiles.Recruitment, err = profileFromEnv("RECRUITMENT", DefaultRecruitmentProfile())
	collect(err)
	cfg.Profiles.RequestedDocs, err = profileFromEnv("REQUESTED_DOCS", DefaultRequestedDocsProfile())
	collect(err)
	cfg.Profiles.Contract, err = profileFromEnv("CONTRACT", DefaultContractProfile())
	collect(err)

	cfg.Notify = NotifyConfig{
		Sink:         getString("NOTIFY_SINK", "none"),
		KafkaBrokers: getList("KAFKA_BROKERS", nil),
		KafkaTopic:   getString("KAFKA_TOPIC", "hr.application.events"),
		AMQPURL:      os.Getenv("RABBITMQ_URL"),
		AMQPExchange: getString("AMQP_EXCHANGE", "application_events"),
	}
	cfg.Notify.PollInterval, err = getDuration("NOTIFY_POLL_INTERVAL", time.Second)
	collect(err)
	cfg.Notify.BatchSize, err = getInt("NOTIFY_BATCH_SIZE", 100)
	collect(err)

	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
		if cfg.Environment == EnvProduction {
			cfg.LogFormat = "json"
		}
	}
	if cfg.JWTSigningKey == "" {
		if cfg.Environment == EnvProduction {
			errs = append(errs, "JWT_SIGNING_KEY is required in production")
		}
		// Use a default for development - should be overridden in production
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	if cfg.AdminToken == "" && cfg.Environment == EnvProduction {
		errs = append(errs, "ADMIN_TOKEN is required in production")
	}
	collect(cfg.validateBackends())

	if len(errs) > 0 {
		return Server{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func (s Server) validateBackends() error {
	switch s.Blob.Backend {
	case "memory", "filesystem":
	case "s3":
		if s.Blob.Bucket == "" {
			return fmt.Errorf("BLOB_BUCKET is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", s.Blob.Backend)
	}
	switch s.Lock.Backend {
	case "memory":
	case "redis":
		if s.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis lock backend")
		}
	default:
		return fmt.Errorf("unknown LOCK_BACKEND %q", s.Lock.Backend)
	}
	switch s.Notify.Sink {
	case "none":
	case "kafka":
		if len(s.Notify.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required for the kafka sink")
		}
	case "amqp":
		if s.Notify.AMQPURL == "" {
			return fmt.Errorf("RABBITMQ_URL is required for the amqp sink")
		}
	default:
		return fmt.Errorf("unknown NOTIFY_SINK %q", s.Notify.Sink)
	}
	return nil
}

// DefaultRecruitmentProfile accepts résumés and letters as office documents.
func DefaultRecruitmentProfile() Profile {
	return Profile{
		Name:        "recruitment",
		MaxFileSize: 5 << 20,
		AllowedTypes: []string{
			"application/pdf",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		},
		MaxFiles:      5,
		VerifyContent: true,
	}
}

// DefaultRequestedDocsProfile accepts scans and photos of IDs and certificates.
func DefaultRequestedDocsProfile() Profile {
	return Profile{
		Name:        "requested_docs",
		MaxFileSize: 10 << 20,
		AllowedTypes: []string{
			"application/pdf",
			"image/jpeg",
			"image/png",
		},
		MaxFiles:      10,
		VerifyContent: true,
	}
}

func DefaultContractProfile() Profile {
	return Profile{
		Name:          "contract",
		MaxFileSize:   10 << 20,
		AllowedTypes:  []string{"application/pdf"},
		MaxFiles:      1,
		VerifyContent: true,
	}
}

func profileFromEnv(prefix string, def Profile) (Profile, error) {
	p := def
	var err error
	key := "PROFILE_" + prefix
	if p.MaxFileSize, err = getInt64(key+"_MAX_BYTES", def.MaxFileSize); err != nil {
		return p, err
	}
	if p.MaxFiles, err = getInt(key+"_MAX_FILES", def.MaxFiles); err != nil {
		return p, err
	}
	if p.VerifyContent, err = getBool(key+"_VERIFY", def.VerifyContent); err != nil {
		return p, err
	}
	p.AllowedTypes = pstrings.DedupeAndTrimLower(getList(key+"_TYPES", def.AllowedTypes))
	if p.MaxFileSize <= 0 {
		return p, fmt.Errorf("%s_MAX_BYTES must be positive", key)
	}
	if p.MaxFiles <= 0 {
		return p, fmt.Errorf("%s_MAX_FILES must be positive", key)
	}
	if len(p.AllowedTypes) == 0 {
		return p, fmt.Errorf("%s_TYPES must not be empty", key)
	}
	return p, nil
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getInt64(key string, def int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return append([]string(nil), def...)
	}
	return pstrings.DedupeAndTrim(strings.Split(v, ","))
}
