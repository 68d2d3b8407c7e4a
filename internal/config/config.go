package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// LocalMongoURI используется, только если источник URI не задан и fallback разрешен.
	LocalMongoURI       = "mongodb://localhost:27017/visualdilemma"
	defaultDatabaseName = "visualdilemma"

	mongoURISecret = "mongodb_uri"
	jwtSecretName  = "jwt_secret"
	redisSecret    = "redis_password"
)

// ErrMissingMongoURI - URI не задан, а локальный fallback не разрешен.
var ErrMissingMongoURI = errors.New("MONGODB_URI is not configured and local fallback is not allowed")

// Config holds the application configuration.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"8080"`

	// MongoDB
	MongoURI                string        `envconfig:"MONGODB_URI"`
	MongoAllowLocalFallback bool          `envconfig:"MONGODB_ALLOW_LOCAL_FALLBACK" default:"false"`
	MongoDatabase           string        `envconfig:"MONGODB_DATABASE"`
	MongoConnectTimeout     time.Duration `envconfig:"MONGODB_CONNECT_TIMEOUT" default:"10s"`
	DeckCollection          string        `envconfig:"MONGODB_DECK_COLLECTION" default:"mazos"`
	ChoiceCollection        string        `envconfig:"MONGODB_CHOICE_COLLECTION" default:"userchoices"`
	// MongoFallbackUsed выставляется при загрузке, из окружения не читается.
	MongoFallbackUsed bool `ignored:"true"`

	// Redis (пустой адрес выключает кэш колод)
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	DeckCacheTTL  time.Duration `envconfig:"DECK_CACHE_TTL" default:"5m"`
	RedisPassword string        `ignored:"true"`

	// RabbitMQ (пустой URL выключает публикацию событий выбора)
	RabbitMQURL       string `envconfig:"RABBITMQ_URL"`
	ChoiceEventsQueue string `envconfig:"CHOICE_EVENTS_QUEUE" default:"choice_events"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:4321"`
	// Запросов в минуту с одного IP на POST /api/sessions и /api/choices; 0 выключает лимит.
	WriteRateLimit     uint   `envconfig:"WRITE_RATE_LIMIT" default:"60"`

	// Секретное поле БЕЗ envconfig тега. Пустое значение выключает админские маршруты.
	JWTSecret string `ignored:"true"`
}

// IsProduction сообщает, запущено ли приложение в production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// GetAllowedOrigins splits CORSAllowedOrigins into a slice.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",") {
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// LogFields возвращает поля конфигурации для лога, без секретов.
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("env", c.Env),
		zap.String("port", c.ServerPort),
		zap.String("mongoURI", RedactURI(c.MongoURI)),
		zap.String("mongoDatabase", c.MongoDatabase),
		zap.Bool("mongoFallbackUsed", c.MongoFallbackUsed),
		zap.String("deckCollection", c.DeckCollection),
		zap.String("choiceCollection", c.ChoiceCollection),
		zap.Bool("deckCacheEnabled", c.RedisAddr != ""),
		zap.Bool("choiceEventsEnabled", c.RabbitMQURL != ""),
		zap.Bool("adminRoutesEnabled", c.JWTSecret != ""),
		zap.Uint("writeRateLimit", c.WriteRateLimit),
	}
}

// LoadConfig загружает конфигурацию из .env файла (если он есть), переменных окружения
// и Docker Secrets.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
		}
	}
	return load(DirSecretReader(DefaultSecretsDir))
}

func load(readSecret SecretReader) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config from env: %w", err)
	}

	uri, fallback, err := ResolveMongoURI(cfg.MongoURI, readSecret, cfg.Env, cfg.MongoAllowLocalFallback)
	if err != nil {
		return nil, err
	}
	cfg.MongoURI = uri
	cfg.MongoFallbackUsed = fallback

	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase, err = DatabaseFromURI(uri)
		if err != nil {
			return nil, err
		}
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if cfg.JWTSecret, err = readOptionalSecret(readSecret, jwtSecretName); err != nil {
			return nil, err
		}
	}
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if cfg.RedisPassword == "" && cfg.RedisAddr != "" {
		if cfg.RedisPassword, err = readOptionalSecret(readSecret, redisSecret); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// ResolveMongoURI применяет политику выбора строки подключения:
// явное значение из окружения, затем секрет mongodb_uri, затем LocalMongoURI.
// Локальный адрес без аутентификации допускается только при allowFallback
// или в окружении development. fallback сообщает, был ли выбран LocalMongoURI.
func ResolveMongoURI(fromEnv string, readSecret SecretReader, env string, allowFallback bool) (uri string, fallback bool, err error) {
	if v := strings.TrimSpace(fromEnv); v != "" {
		return v, false, nil
	}
	if readSecret != nil {
		secret, err := readOptionalSecret(readSecret, mongoURISecret)
		if err != nil {
			return "", false, err
		}
		if secret != "" {
			return secret, false, nil
		}
	}
	if allowFallback || strings.EqualFold(env, EnvDevelopment) {
		return LocalMongoURI, true, nil
	}
	return "", false, ErrMissingMongoURI
}

// DatabaseFromURI извлекает имя базы из пути строки подключения.
// Разбор не обращается к сети, поэтому для mongodb+srv:// SRV-запись не запрашивается.
func DatabaseFromURI(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, "mongodb://")
	if !ok {
		rest, ok = strings.CutPrefix(uri, "mongodb+srv://")
	}
	if !ok || rest == "" {
		return "", fmt.Errorf("invalid MONGODB_URI: scheme must be mongodb:// or mongodb+srv://")
	}
	rest, _, _ = strings.Cut(rest, "?")
	_, path, found := strings.Cut(rest, "/")
	if !found || path == "" {
		return defaultDatabaseName, nil
	}
	name, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("invalid MONGODB_URI database name: %w", err)
	}
	return name, nil
}

// RedactURI убирает пароль из строки подключения для логов.
func RedactURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "mongodb://***"
	}
	return u.Redacted()
}
