// Command p4 starts the Connect Four game server.
//
// The server exposes a websocket endpoint for gameplay, a small JSON API
// over the room registry, and static files for the browser client. Flags
// override the environment for host/port, debug logging, version output,
// and optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/Zak4b/P4-sub000/api"
	"github.com/Zak4b/P4-sub000/auth"
	"github.com/Zak4b/P4-sub000/config"
	"github.com/Zak4b/P4-sub000/game/room"
	"github.com/Zak4b/P4-sub000/results"
	"github.com/Zak4b/P4-sub000/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Connect Four Server"
)

var (
	port         = flag.String("port", "", "HTTP server port (overrides PORT)")
	host         = flag.String("host", "", "HTTP server host (overrides HOST)")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

func main() {
	cfg := config.Load()
	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	if *port != "" {
		cfg.Port = *port
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *ngrokEnabled {
		cfg.UseNgrok = true
	}

	log.Printf("Starting %s v%s", AppName, Version)

	recorder, cleanup, err := initializeRecorder(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize result recorder: %v", err)
	}
	defer cleanup()

	manager := room.NewManager(room.Options{
		SeatLimit:      cfg.SeatLimit,
		NoJoinDelay:    cfg.NoJoinDelay,
		EmptyRoomDelay: cfg.EmptyRoomDelay,
		EndGrace:       cfg.EndGrace,
		Recorder:       recorder,
	})
	defer manager.Stop()

	wsHandler := websocket.NewHandler(manager, auth.NewJWTProvider(cfg.JWTSecret))
	apiServer := api.NewServer(manager, wsHandler, cfg.StaticDir)

	runHTTPServer(cfg, apiServer)
}

// initializeRecorder picks the match recorder: Postgres when configured,
// plain logging otherwise. The returned cleanup closes the DB connection.
func initializeRecorder(cfg config.Config) (results.Recorder, func(), error) {
	if !cfg.Postgres.Enabled() {
		log.Println("No Postgres configured, match results will only be logged")
		return &results.LogRecorder{}, func() {}, nil
	}

	pg := cfg.Postgres
	recorder, err := results.OpenPostgres(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	log.Printf("Recording match results to postgres at %s:%d", pg.Host, pg.Port)
	cleanup := func() {
		if err := recorder.Close(); err != nil {
			log.Printf("Failed to close postgres connection: %v", err)
		}
	}
	return recorder, cleanup, nil
}

// runHTTPServer starts the HTTP server and blocks until a shutdown signal.
// If ngrok is enabled, it also provisions a public tunnel serving the same
// handler.
func runHTTPServer(cfg config.Config, handler http.Handler) {
	addr := cfg.Addr()

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("WebSocket: ws://%s/ws", addr)
		log.Printf("Rooms API: http://%s/api/rooms", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	if cfg.UseNgrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, handler)
		}()
	}

	sig := <-stop
	log.Printf("Received signal: %v. Shutting down...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
}

// runNgrokTunnel serves the handler through an ngrok tunnel until ctx is
// canceled. Failures are logged, never fatal; the local listener keeps
// working without the tunnel.
func runNgrokTunnel(ctx context.Context, handler http.Handler) {
	authToken := *ngrokAuth
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
	}
	if authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Printf("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx,
		tunnel,
		ngrok.WithAuthtoken(authToken),
	)
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws", ngrokURL)
	log.Printf("  Game UI (ngrok): %s/", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}
