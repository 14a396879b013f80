package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Minio    MinioConfig
	SMTP     SMTPConfig
	RabbitMQ RabbitMQConfig

	// NotifyWorkers is the number of sharded invitation delivery workers.
	NotifyWorkers int `env:"NOTIFY_WORKERS, default=4"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=clinic_console"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type MinioConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT,   default=localhost:9000"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET,     default=signatures"`
	UseSSL    bool   `env:"MINIO_USE_SSL,    default=false"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT, default=465"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"FROM_EMAIL"`
}

type RabbitMQConfig struct {
	// URL is the AMQP connection string. Empty disables the queue and makes
	// invitation delivery go straight to SMTP.
	URL   string `env:"RABBITMQ_URL"`
	Queue string `env:"RABBITMQ_QUEUE, default=interview_invitations"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
