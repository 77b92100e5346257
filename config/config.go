package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// LoadEnv 读取 .env（不存在则忽略），进程环境变量优先
func LoadEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Printf("load %s: %v", f, err)
		}
	}
}

// Config 从环境变量读取
type Config struct {
	Port      string `env:"PORT" envDefault:"3001"`
	WebOrigin string `env:"WEB_ORIGIN" envDefault:"http://localhost:5173"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	DB         DBConfig
	Redis      RedisConfig
	Shortener  ShortenerConfig
	Invitation InvitationConfig
	QR         QRConfig
	SMTP       SMTPConfig
}

type DBConfig struct {
	Host         string `env:"DB_HOST" envDefault:"127.0.0.1"`
	Port         string `env:"DB_PORT" envDefault:"5432"`
	User         string `env:"DB_USER" envDefault:"postgres"`
	Password     string `env:"DB_PASSWORD"`
	Name         string `env:"DB_NAME" envDefault:"tickets"`
	SSLMode      string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

// Addr 为空表示不用 Redis，QR 不缓存
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	QRTTL    time.Duration `env:"QR_CACHE_TTL" envDefault:"24h"`
}

type ShortenerConfig struct {
	APIURL      string        `env:"SHORTENER_API_URL,required"`
	APIKey      string        `env:"SHORTENER_API_KEY"`
	BaseURL     string        `env:"SHORTENER_BASE_URL,required"`
	Timeout     time.Duration `env:"SHORTENER_TIMEOUT" envDefault:"5s"`
	MaxParallel int           `env:"SHORTENER_MAX_PARALLEL" envDefault:"8"`
}

type InvitationConfig struct {
	MaxBatch        int           `env:"INVITATION_MAX_BATCH" envDefault:"100"`
	GenerateTimeout time.Duration `env:"INVITATION_GENERATE_TIMEOUT" envDefault:"30s"`
}

type QRConfig struct {
	Size int `env:"QR_SIZE" envDefault:"256"`
}

type SMTPConfig struct {
	Host        string        `env:"SMTP_HOST"`
	Port        string        `env:"SMTP_PORT" envDefault:"587"`
	Username    string        `env:"SMTP_USERNAME"`
	Password    string        `env:"SMTP_PASSWORD"`
	From        string        `env:"SMTP_FROM"`
	AppName     string        `env:"APP_NAME" envDefault:"Appointments"`
	Timeout     time.Duration `env:"SMTP_TIMEOUT" envDefault:"30s"`
	MaxParallel int           `env:"NOTIFY_MAX_PARALLEL" envDefault:"4"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if err := httpURL(c.Shortener.APIURL); err != nil {
		errs = append(errs, fmt.Errorf("SHORTENER_API_URL: %w", err))
	}
	if err := httpURL(c.Shortener.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("SHORTENER_BASE_URL: %w", err))
	}
	if c.Shortener.MaxParallel < 1 {
		errs = append(errs, errors.New("SHORTENER_MAX_PARALLEL must be positive"))
	}
	if c.Invitation.MaxBatch < 1 {
		errs = append(errs, errors.New("INVITATION_MAX_BATCH must be positive"))
	}
	if c.QR.Size < 21 {
		errs = append(errs, errors.New("QR_SIZE must be at least 21"))
	}
	if c.SMTP.MaxParallel < 1 {
		errs = append(errs, errors.New("NOTIFY_MAX_PARALLEL must be positive"))
	}
	return errors.Join(errs...)
}

func httpURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) url", raw)
	}
	return nil
}
