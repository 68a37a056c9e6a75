// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// Config struct'ı tüm ayarları tek bir yerde toplar, böylece her yerde
// ayrı ayrı os.Getenv() çağırmak yerine tek bir Config nesnesi taşırız.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Sync stratejisi değerleri — SYNC_STRATEGY env variable'ı için.
const (
	SyncStrategyPolling = "polling"
	SyncStrategyManaged = "managed"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
// Her alt bölüm ayrı bir struct — her struct tek bir concern'ü temsil eder.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Sync     SyncConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig, SQLite database ayarları.
type DatabaseConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/connect.db)
}

// JWTConfig, JWT token ayarları.
type JWTConfig struct {
	Secret            string // Token imzalama anahtarı — GİZLİ TUTULMALI
	AccessTokenExpiry int    // Dakika cinsinden (varsayılan: 60)
}

// SyncConfig, senkronizasyon stratejisi ayarları.
//
// "polling": paylaşılan event log'u aralıklı tarayan basit strateji.
// "managed": tablo + insert bildirimi üzerinden çalışan strateji —
// mesajlar push ile, typing kısa aralıklı poll ile gelir.
type SyncConfig struct {
	Strategy       string
	PollIntervalMS int // polling stratejisinin tarama aralığı
	TypingPollMS   int // managed stratejide typing tablosunun poll aralığı
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
func Load() (*Config, error) {
	// Dosya yoksa hata vermez, sessizce devam eder.
	// Production'da bu dosya olmaz, gerçek env variable'lar kullanılır.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	accessExpiry, err := strconv.Atoi(getEnv("JWT_ACCESS_EXPIRY_MINUTES", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRY_MINUTES: %w", err)
	}

	pollInterval, err := strconv.Atoi(getEnv("SYNC_POLL_INTERVAL_MS", "500"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_POLL_INTERVAL_MS: %w", err)
	}

	typingPoll, err := strconv.Atoi(getEnv("SYNC_TYPING_POLL_MS", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_TYPING_POLL_MS: %w", err)
	}

	strategy := getEnv("SYNC_STRATEGY", SyncStrategyManaged)
	switch strategy {
	case SyncStrategyPolling, SyncStrategyManaged:
	default:
		return nil, fmt.Errorf("invalid SYNC_STRATEGY: %q (expected %q or %q)", strategy, SyncStrategyPolling, SyncStrategyManaged)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/connect.db"),
		},
		JWT: JWTConfig{
			Secret:            jwtSecret,
			AccessTokenExpiry: accessExpiry,
		},
		Sync: SyncConfig{
			Strategy:       strategy,
			PollIntervalMS: pollInterval,
			TypingPollMS:   typingPoll,
		},
	}

	return cfg, nil
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:9090").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
