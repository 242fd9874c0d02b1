package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Kafka        KafkaConfig
	MinIO        MinIOConfig
	Notification NotificationConfig
}

var (
	ConfigInstance *Config
	once           sync.Once
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the postgres connection string the gorm driver expects.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	URI          string
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

type JWTConfig struct {
	Secret         string
	ExpirationTime time.Duration
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type MinIOConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type NotificationConfig struct {
	// QueueSize bounds the in-process push queue between the notification
	// service and the hub.
	QueueSize int
}

func LoadConfig() (*Config, error) {
	once.Do(func() {
		viper.SetDefault("COLLAB_HOST", "")
		viper.SetDefault("COLLAB_PORT", "8080")
		viper.SetDefault("COLLAB_READ_TIMEOUT", 30*time.Second)
		viper.SetDefault("COLLAB_WRITE_TIMEOUT", 30*time.Second)
		viper.SetDefault("COLLAB_IDLE_TIMEOUT", 60*time.Second)
		viper.SetDefault("COLLAB_JWT_SECRET", "secret")
		viper.SetDefault("COLLAB_JWT_EXPIRE", "24h")
		viper.SetDefault("REDIS_URL", "redis://127.0.0.1:6379/0")
		viper.SetDefault("REDIS_MAX_RETRIES", 3)
		viper.SetDefault("REDIS_POOL_SIZE", 100)
		viper.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
		viper.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
		viper.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
		viper.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)
		viper.SetDefault("POSTGRES_USER", "postgres")
		viper.SetDefault("POSTGRES_PASSWORD", "password")
		viper.SetDefault("POSTGRES_HOST", "localhost")
		viper.SetDefault("POSTGRES_PORT", "5432")
		viper.SetDefault("POSTGRES_DB", "postgres")
		viper.SetDefault("POSTGRES_SSLMODE", "disable")
		viper.SetDefault("KAFKA_ENABLED", false)
		viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
		viper.SetDefault("KAFKA_TOPIC", "collab.messages")
		viper.SetDefault("MINIO_ENABLED", false)
		viper.SetDefault("MINIO_ENDPOINT", "localhost:9000")
		viper.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
		viper.SetDefault("MINIO_SECRET_KEY", "minioadmin")
		viper.SetDefault("MINIO_BUCKET", "collab-uploads")
		viper.SetDefault("MINIO_USE_SSL", false)
		viper.SetDefault("NOTIFICATION_QUEUE_SIZE", 256)
		viper.AutomaticEnv()

		ConfigInstance = &Config{
			Server: ServerConfig{
				Host:         viper.GetString("COLLAB_HOST"),
				Port:         viper.GetString("COLLAB_PORT"),
				ReadTimeout:  viper.GetDuration("COLLAB_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("COLLAB_WRITE_TIMEOUT"),
				IdleTimeout:  viper.GetDuration("COLLAB_IDLE_TIMEOUT"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("POSTGRES_HOST"),
				Port:     viper.GetString("POSTGRES_PORT"),
				User:     viper.GetString("POSTGRES_USER"),
				Password: viper.GetString("POSTGRES_PASSWORD"),
				DBName:   viper.GetString("POSTGRES_DB"),
				SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
			},
			Redis: RedisConfig{
				URI:          viper.GetString("REDIS_URL"),
				MaxRetries:   viper.GetInt("REDIS_MAX_RETRIES"),
				DialTimeout:  viper.GetDuration("REDIS_DIAL_TIMEOUT"),
				ReadTimeout:  viper.GetDuration("REDIS_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("REDIS_WRITE_TIMEOUT"),
				PoolSize:     viper.GetInt("REDIS_POOL_SIZE"),
				MinIdleConns: viper.GetInt("REDIS_MIN_IDLE_CONNS"),
			},
			JWT: JWTConfig{
				Secret:         viper.GetString("COLLAB_JWT_SECRET"),
				ExpirationTime: viper.GetDuration("COLLAB_JWT_EXPIRE"),
			},
			Kafka: KafkaConfig{
				Enabled: viper.GetBool("KAFKA_ENABLED"),
				Brokers: strings.Split(viper.GetString("KAFKA_BROKERS"), ","),
				Topic:   viper.GetString("KAFKA_TOPIC"),
			},
			MinIO: MinIOConfig{
				Enabled:   viper.GetBool("MINIO_ENABLED"),
				Endpoint:  viper.GetString("MINIO_ENDPOINT"),
				AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
				SecretKey: viper.GetString("MINIO_SECRET_KEY"),
				Bucket:    viper.GetString("MINIO_BUCKET"),
				UseSSL:    viper.GetBool("MINIO_USE_SSL"),
			},
			Notification: NotificationConfig{
				QueueSize: viper.GetInt("NOTIFICATION_QUEUE_SIZE"),
			},
		}
	})

	return ConfigInstance, nil
}
