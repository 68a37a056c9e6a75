// Package main, connect backend uygulamasının giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Database'i başlat (embedded migration'lar ile)
//  3. Repository'leri oluştur (DB bağlantısı ile)
//  4. WebSocket Hub'ı başlat
//  5. Service'leri oluştur
//  6. Handler'ları oluştur
//  7. Middleware'ları oluştur
//  8. HTTP router'ı kur, route'ları bağla
//  9. CORS yapılandır
// 10. Typing sweeper'ı başlat
// 11. HTTP Server'ı başlat
// 12. Graceful shutdown
//
// Global değişken YOK — her şey bu fonksiyonda oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fleetpulse/connect/config"
	"github.com/fleetpulse/connect/database"
	"github.com/fleetpulse/connect/handlers"
	"github.com/fleetpulse/connect/middleware"
	"github.com/fleetpulse/connect/pkg/ratelimit"
	"github.com/fleetpulse/connect/presence"
	"github.com/fleetpulse/connect/repository"
	"github.com/fleetpulse/connect/services"
	"github.com/fleetpulse/connect/ws"
	"github.com/rs/cors"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] connect server starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d, sync=%s)", cfg.Server.Port, cfg.Sync.Strategy)

	// ─── 2. Database ───
	// Migration'lar binary'ye gömülüdür — deploy'da ayrı dosya taşınmaz.
	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		log.Fatalf("[main] failed to access embedded migrations: %v", err)
	}

	db, err := database.New(cfg.Database.Path, migrationsFS)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Repository Layer ───
	userRepo := repository.NewSQLiteUserRepo(db.Conn)
	channelRepo := repository.NewSQLiteChannelRepo(db.Conn)
	messageRepo := repository.NewSQLiteMessageRepo(db.Conn)
	typingRepo := repository.NewSQLiteTypingRepo(db.Conn)

	// ─── 4. WebSocket Hub ───
	//
	// Hub, tüm WebSocket bağlantılarını yöneten merkezi yapıdır.
	// `go hub.Run()` ayrı bir goroutine'de event loop başlatır:
	// register/unregister channel'larını dinler ve client map'ini günceller.
	// Hub aynı zamanda realtime.Notifier interface'ini implement eder —
	// handler'lar mesaj yazınca insert bildirimi buradan yayınlanır.
	hub := ws.NewHub()
	go hub.Run()

	// ─── 5. Service Layer ───
	authService := services.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// ─── 6. Handler Layer ───
	// Rate limiter'lar in-memory'dir — tek instance deploy için yeterli.
	signinLimiter := ratelimit.NewSignInRateLimiter(5, 2*time.Minute)
	defer signinLimiter.Close()
	messageLimiter := ratelimit.NewMessageRateLimiter(5, 5*time.Second, 15*time.Second)
	defer messageLimiter.Close()

	authHandler := handlers.NewAuthHandler(authService, signinLimiter)
	channelHandler := handlers.NewChannelHandler(channelRepo)
	messageHandler := handlers.NewMessageHandler(messageRepo, channelRepo, hub, messageLimiter)
	typingHandler := handlers.NewTypingHandler(typingRepo)
	wsHandler := ws.NewHandler(hub, authService)

	// ─── 7. Middleware ───
	authMiddleware := middleware.NewAuthMiddleware(authService, userRepo)

	// ─── 8. HTTP Router ───
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"connect"}`)
	})

	// Auth — signin public, gerisi token ister
	mux.HandleFunc("POST /api/auth/signin", authHandler.SignIn)
	mux.HandleFunc("POST /api/auth/signout", authMiddleware.Require(authHandler.SignOut))
	mux.HandleFunc("GET /api/auth/me", authMiddleware.Require(authHandler.Me))

	// Channels — katalog read-only'dir; kanallar administratif olarak seed edilir
	mux.HandleFunc("GET /api/channels", authMiddleware.Require(channelHandler.List))
	mux.HandleFunc("GET /api/channels/groups", authMiddleware.Require(channelHandler.Groups))
	mux.HandleFunc("GET /api/channels/{channelID}", authMiddleware.Require(channelHandler.Get))

	// Messages
	mux.HandleFunc("GET /api/channels/{channelID}/messages", authMiddleware.Require(messageHandler.List))
	mux.HandleFunc("POST /api/channels/{channelID}/messages", authMiddleware.Require(messageHandler.Create))
	mux.HandleFunc("PATCH /api/messages/{messageID}", authMiddleware.Require(messageHandler.Update))
	mux.HandleFunc("DELETE /api/messages/{messageID}", authMiddleware.Require(messageHandler.Delete))
	mux.HandleFunc("POST /api/messages/{messageID}/pin", authMiddleware.Require(messageHandler.TogglePin))
	mux.HandleFunc("POST /api/messages/{messageID}/read", authMiddleware.Require(messageHandler.MarkRead))

	// Typing — managed stratejinin poll edilen ucu
	mux.HandleFunc("POST /api/channels/{channelID}/typing", authMiddleware.Require(typingHandler.Set))
	mux.HandleFunc("GET /api/channels/{channelID}/typing", authMiddleware.Require(typingHandler.List))

	// WebSocket — token query parameter ile authenticate edilir
	//
	// Neden auth middleware kullanmıyoruz?
	// WebSocket upgrade sırasında tarayıcılar custom HTTP header gönderemez.
	// Bu yüzden JWT token URL query parameter olarak gönderilir:
	//   ws://server/ws?token=JWT_TOKEN
	// WS handler kendi içinde token doğrulaması yapar.
	mux.HandleFunc("GET /ws", wsHandler.HandleConnection)

	// ─── 9. CORS ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:3000", // web dev server
			"http://localhost:1420", // Tauri dev
			"tauri://localhost",     // Tauri production
		},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := corsHandler.Handler(mux)

	// ─── 10. Typing Sweeper ───
	// typing_indicators ephemeral state taşır — crash etmiş bir client'ın
	// terk ettiği satırlar pencere dışına düşünce süpürülür.
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-sweeperCtx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-presence.TypingTTL)
				if n, err := typingRepo.CleanupOlderThan(sweeperCtx, cutoff); err != nil {
					log.Printf("[typing] cleanup failed: %v", err)
				} else if n > 0 {
					log.Printf("[typing] swept %d stale indicators", n)
				}
			}
		}
	}()

	// ─── 11. HTTP Server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 12. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	// Önce WebSocket bağlantılarını kapat, sonra HTTP server'ı —
	// yeni request kabul etmeyi durdurur, mevcutların bitmesini bekler.
	stopSweeper()
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}
