package config

import (
	"fmt"
	"os"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	JWTSecret string // JWT署名シークレット

	GatewayBaseURL string // 決済ゲートウェイのベースURL
	GatewayAPIKey  string // 決済ゲートウェイのAPIキー

	RedisAddr string // 通知用Redis（空なら通知しない）

	// DB接続。DatabaseURLが設定されていれば最優先で使う
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	GoEnv string // dev/prod
}

// Loadは環境変数
func Load() (Config, error) {
	cfg := Config{
		Port: os.Getenv("PORT"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GatewayBaseURL: os.Getenv("GATEWAY_BASE_URL"),
		GatewayAPIKey:  os.Getenv("GATEWAY_API_KEY"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      os.Getenv("POSTGRES_HOST"),
		DBPort:      os.Getenv("POSTGRES_PORT"),
		DBUser:      os.Getenv("POSTGRES_USER"),
		DBPassword:  os.Getenv("POSTGRES_PASSWORD"),
		DBName:      os.Getenv("POSTGRES_DB"),
		DBSSLMode:   os.Getenv("POSTGRES_SSLMODE"),

		GoEnv: os.Getenv("GO_ENV"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.GatewayBaseURL == "" {
		return Config{}, fmt.Errorf("GATEWAY_BASE_URL is required")
	}
	if cfg.GatewayAPIKey == "" {
		return Config{}, fmt.Errorf("GATEWAY_API_KEY is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}

	//DBはDATABASE_URLか、POSTGRES_*一式のどちらかで指定する。
	//暗黙のlocalhost/postgresへのフォールバックはしない
	if cfg.DatabaseURL == "" {
		if cfg.DBHost == "" {
			return Config{}, fmt.Errorf("POSTGRES_HOST is required")
		}
		if cfg.DBUser == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.DBPassword == "" {
			return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if cfg.DBName == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
		if cfg.DBPort == "" {
			cfg.DBPort = "5432"
		}
		if cfg.DBSSLMode == "" {
			cfg.DBSSLMode = "disable"
		}
	}

	return cfg, nil
}

// DSN はgormのpostgresドライバに渡す接続文字列を返す。
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}
