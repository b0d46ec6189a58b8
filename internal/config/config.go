package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/spk-docs/doctracker/pkg/logger"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Remote    RemoteConfig
	Local     LocalConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Documents DocumentsConfig
	Storage   StorageConfig
	Keycloak  KeycloakConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// NATSURL, when set, also serves the remote procedures over NATS.
	NATSURL     string
	NATSSubject string
}

// BackendConfig selects where documents live. Resolved once at startup.
type BackendConfig struct {
	Mode string // remote | local
}

type RemoteConfig struct {
	Transport string // http | nats
	Endpoint  string
	Token     string
	Timeout   time.Duration
	NATSURL   string
	Subject   string
}

type LocalConfig struct {
	Slot       string // memory | file | redis | sqlite | mongo
	Key        string
	FilePath   string
	SQLitePath string
}

type MongoDBConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type DocumentsConfig struct {
	Prefix       string
	SystemTitle  string
	DirectorName string
	Departments  [4]string
	Groups       []string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	URLExpiry time.Duration
}

type KeycloakConfig struct {
	URL      string
	Realm    string
	ClientID string
}

type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

var defaultGroups = []string{
	"กลุ่มสาระการเรียนรู้ภาษาไทย",
	"กลุ่มสาระการเรียนรู้คณิตศาสตร์",
	"กลุ่มสาระการเรียนรู้วิทยาศาสตร์และเทคโนโลยี",
	"กลุ่มสาระการเรียนรู้สังคมศึกษา ศาสนาและวัฒนธรรม",
	"กลุ่มสาระการเรียนรู้สุขศึกษาและพลศึกษา",
	"กลุ่มสาระการเรียนรู้ศิลปะ",
	"กลุ่มสาระการเรียนรู้การงานอาชีพ",
	"กลุ่มสาระการเรียนรู้ภาษาต่างประเทศ",
	"กิจกรรมพัฒนาผู้เรียน",
}

// SetDefaults registers every default with viper. LoadConfig calls it; the
// CLI calls it earlier so flag defaults and config files agree.
func SetDefaults() {
	viper.SetDefault("SERVER_PORT", "5010")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("SERVER_NATS_SUBJECT", "doctracker.rpc")

	viper.SetDefault("BACKEND_MODE", ModeLocal)
	viper.SetDefault("REMOTE_TRANSPORT", "http")
	viper.SetDefault("REMOTE_TIMEOUT", 0)
	viper.SetDefault("REMOTE_SUBJECT", "doctracker.rpc")

	viper.SetDefault("LOCAL_SLOT", "file")
	viper.SetDefault("LOCAL_KEY", "spk-document-tracker-documents")
	viper.SetDefault("LOCAL_FILE_PATH", "data/documents.json")
	viper.SetDefault("LOCAL_SQLITE_PATH", "data/doctracker.db")

	viper.SetDefault("MONGODB_DATABASE", "doctracker")
	viper.SetDefault("MONGODB_COLLECTION", "state")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("REDIS_PORT", "6379")

	viper.SetDefault("DOCUMENT_PREFIX", "SPK")
	viper.SetDefault("SYSTEM_TITLE", "ระบบติดตามเอกสาร")
	viper.SetDefault("DIRECTOR_NAME", "ผู้อำนวยการ")
	viper.SetDefault("DEPARTMENT_1_NAME", "ฝ่ายแผนงานและบริหาร")
	viper.SetDefault("DEPARTMENT_2_NAME", "ฝ่ายพัสดุ")
	viper.SetDefault("DEPARTMENT_3_NAME", "ฝ่ายการเงิน")
	viper.SetDefault("DEPARTMENT_4_NAME", "ฝ่ายงบประมาณ")

	viper.SetDefault("MINIO_BUCKET", "doctracker")
	viper.SetDefault("MINIO_URL_EXPIRY", 60)

	viper.SetDefault("JWT_TOKEN_TTL", 60)
	viper.SetDefault("RATE_LIMIT_RPS", 10)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
}

// LoadConfig loads configuration from environment variables, an optional
// .env file and an optional config file named by CONFIG_FILE.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()
	SetDefaults()

	if file := viper.GetString("CONFIG_FILE"); file != "" {
		viper.SetConfigFile(file)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			NATSURL:      viper.GetString("SERVER_NATS_URL"),
			NATSSubject:  viper.GetString("SERVER_NATS_SUBJECT"),
		},
		Backend: BackendConfig{
			Mode: strings.ToLower(strings.TrimSpace(viper.GetString("BACKEND_MODE"))),
		},
		Remote: RemoteConfig{
			Transport: strings.ToLower(strings.TrimSpace(viper.GetString("REMOTE_TRANSPORT"))),
			Endpoint:  viper.GetString("REMOTE_ENDPOINT"),
			Token:     viper.GetString("REMOTE_TOKEN"),
			Timeout:   time.Duration(viper.GetInt("REMOTE_TIMEOUT")) * time.Second,
			NATSURL:   viper.GetString("REMOTE_NATS_URL"),
			Subject:   viper.GetString("REMOTE_SUBJECT"),
		},
		Local: LocalConfig{
			Slot:       strings.ToLower(strings.TrimSpace(viper.GetString("LOCAL_SLOT"))),
			Key:        viper.GetString("LOCAL_KEY"),
			FilePath:   viper.GetString("LOCAL_FILE_PATH"),
			SQLitePath: viper.GetString("LOCAL_SQLITE_PATH"),
		},
		MongoDB: MongoDBConfig{
			URI:        viper.GetString("MONGODB_URI"),
			Database:   viper.GetString("MONGODB_DATABASE"),
			Collection: viper.GetString("MONGODB_COLLECTION"),
			Timeout:    time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Documents: DocumentsConfig{
			Prefix:       viper.GetString("DOCUMENT_PREFIX"),
			SystemTitle:  viper.GetString("SYSTEM_TITLE"),
			DirectorName: viper.GetString("DIRECTOR_NAME"),
			Departments: [4]string{
				viper.GetString("DEPARTMENT_1_NAME"),
				viper.GetString("DEPARTMENT_2_NAME"),
				viper.GetString("DEPARTMENT_3_NAME"),
				viper.GetString("DEPARTMENT_4_NAME"),
			},
			Groups: stringList("DOCUMENT_GROUPS", defaultGroups),
		},
		Storage: StorageConfig{
			Endpoint:  viper.GetString("MINIO_ENDPOINT"),
			AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
			SecretKey: viper.GetString("MINIO_SECRET_KEY"),
			UseSSL:    viper.GetBool("MINIO_USE_SSL"),
			Bucket:    viper.GetString("MINIO_BUCKET"),
			URLExpiry: time.Duration(viper.GetInt("MINIO_URL_EXPIRY")) * time.Minute,
		},
		Keycloak: KeycloakConfig{
			URL:      viper.GetString("KEYCLOAK_URL"),
			Realm:    viper.GetString("KEYCLOAK_REALM"),
			ClientID: viper.GetString("KEYCLOAK_CLIENT_ID"),
		},
		JWT: JWTConfig{
			Secret:   viper.GetString("JWT_SECRET"),
			TokenTTL: time.Duration(viper.GetInt("JWT_TOKEN_TTL")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.JWT.Secret == "" && cfg.Keycloak.URL == "" {
		logger.Warnf("no JWT_SECRET or KEYCLOAK_URL set; mutating routes are unauthenticated")
	}
	return cfg, nil
}

// Validate checks the combinations LoadConfig cannot default.
func (c *Config) Validate() error {
	switch c.Backend.Mode {
	case ModeLocal:
		switch c.Local.Slot {
		case "memory", "file", "sqlite":
		case "redis":
			if c.Redis.Host == "" {
				return fmt.Errorf("LOCAL_SLOT=redis requires REDIS_HOST")
			}
		case "mongo":
			if c.MongoDB.URI == "" {
				return fmt.Errorf("LOCAL_SLOT=mongo requires MONGODB_URI")
			}
		default:
			return fmt.Errorf("unknown LOCAL_SLOT %q (want memory, file, redis, sqlite or mongo)", c.Local.Slot)
		}
	case ModeRemote:
		switch c.Remote.Transport {
		case "http":
			if c.Remote.Endpoint == "" {
				return fmt.Errorf("BACKEND_MODE=remote requires REMOTE_ENDPOINT")
			}
		case "nats":
			if c.Remote.NATSURL == "" {
				return fmt.Errorf("REMOTE_TRANSPORT=nats requires REMOTE_NATS_URL")
			}
		default:
			return fmt.Errorf("unknown REMOTE_TRANSPORT %q (want http or nats)", c.Remote.Transport)
		}
	default:
		return fmt.Errorf("unknown BACKEND_MODE %q (want remote or local)", c.Backend.Mode)
	}
	if len(c.Documents.Groups) == 0 {
		return fmt.Errorf("DOCUMENT_GROUPS must name at least one group")
	}
	return nil
}

// RedisAddr returns host:port, or "" when Redis is not configured.
func (c *Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return c.Redis.Host + ":" + c.Redis.Port
}

// stringList reads a list from a config file (YAML/JSON array) or from an
// environment variable separated by commas. Group names contain spaces, so
// whitespace is not a separator.
func stringList(key string, def []string) []string {
	var items []string
	switch v := viper.Get(key).(type) {
	case []interface{}:
		for _, it := range v {
			items = append(items, fmt.Sprint(it))
		}
	case []string:
		items = v
	case string:
		items = strings.Split(v, ",")
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}
