package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	grpcserver "github.com/therealutkarshpriyadarshi/reversekmips/pkg/api/grpc"
	"github.com/therealutkarshpriyadarshi/reversekmips/pkg/api/rest"
	"github.com/therealutkarshpriyadarshi/reversekmips/pkg/api/rest/middleware"
	"github.com/therealutkarshpriyadarshi/reversekmips/pkg/config"
	"github.com/therealutkarshpriyadarshi/reversekmips/pkg/engine"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version and exit")
		showHelp    = flag.Bool("help", false, "show help and exit")
		configFile  = flag.String("config", "", "path to configuration file (optional)")
		host        = flag.String("host", "", "server host (overrides config/env)")
		port        = flag.Int("port", 0, "server port (overrides config/env)")
		itemsPath   = flag.String("items", "", "path to raw f32 item vectors (required)")
		usersPath   = flag.String("users", "", "path to raw f32 user vectors (required)")
		dim         = flag.Int("dim", 0, "vector dimensionality (required)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("Reverse k-MIPS Server v%s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	if *showHelp {
		showUsage()
		os.Exit(0)
	}

	printBanner()

	cfg := loadConfig(*configFile)

	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if *itemsPath == "" || *usersPath == "" || *dim <= 0 {
		fmt.Println("error: -items, -users and -dim are required to build the engine")
		showUsage()
		os.Exit(1)
	}

	log.Println("Loading vectors and building engine...")
	eng, err := buildEngine(cfg, *itemsPath, *usersPath, *dim)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}
	log.Printf("Engine built: variant=%s k_max=%d memory=~%d bytes", eng.Variant(), eng.KMax(), eng.MemoryEstimate())

	grpcServer, err := grpcserver.NewServer(cfg, eng)
	if err != nil {
		log.Fatalf("Failed to create gRPC server: %v", err)
	}

	printStartupInfo(cfg, eng)

	errChan := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Println("Starting gRPC server...")
		if err := grpcServer.Start(); err != nil {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	var restServer *rest.Server
	if cfg.REST.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()

			time.Sleep(500 * time.Millisecond)

			restConfig := rest.Config{
				Host:        cfg.REST.Host,
				Port:        cfg.REST.Port,
				GRPCAddress: cfg.Server.Address(),
				CORSEnabled: cfg.REST.CORSEnabled,
				CORSOrigins: cfg.REST.CORSOrigins,
				Auth: middleware.AuthConfig{
					Enabled:     cfg.REST.AuthEnabled,
					JWTSecret:   cfg.REST.JWTSecret,
					PublicPaths: cfg.REST.PublicPaths,
					AdminPaths:  cfg.REST.AdminPaths,
				},
				RateLimit: middleware.RateLimitConfig{
					Enabled:        cfg.REST.RateLimitEnabled,
					RequestsPerSec: cfg.REST.RateLimitPerSec,
					Burst:          cfg.REST.RateLimitBurst,
					PerIP:          cfg.REST.RateLimitPerIP,
					PerUser:        cfg.REST.RateLimitPerUser,
					GlobalLimit:    cfg.REST.RateLimitGlobal,
				},
			}

			var err error
			restServer, err = rest.NewServer(restConfig)
			if err != nil {
				errChan <- fmt.Errorf("failed to create REST server: %w", err)
				return
			}

			log.Println("Starting REST API server...")
			if err := restServer.Start(); err != nil {
				errChan <- fmt.Errorf("REST server error: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	log.Println("Servers are ready. Press Ctrl+C to stop.")
	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-errChan:
		log.Printf("Server error: %v", err)
	}

	log.Println("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if restServer != nil {
		if err := restServer.Stop(ctx); err != nil {
			log.Printf("Error stopping REST server: %v", err)
		}
	}

	if err := grpcServer.Stop(); err != nil {
		log.Printf("Error stopping gRPC server: %v", err)
	}

	wg.Wait()

	log.Println("Servers stopped. Goodbye!")
}

// buildEngine loads raw f32 item/user vectors and builds the engine
// variant named in cfg.Engine.
func buildEngine(cfg *config.Config, itemsPath, usersPath string, dim int) (*engine.Engine, error) {
	items, err := loadVectors(itemsPath, dim)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	users, err := loadVectors(usersPath, dim)
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}

	variant, err := engine.ParseVariant(cfg.Engine.Variant)
	if err != nil {
		return nil, err
	}

	cacheCapacity := 0
	if cfg.Cache.Enabled {
		cacheCapacity = cfg.Cache.Capacity
	}

	return engine.BuildEngine(engine.BuildConfig{
		Items:         items,
		Users:         users,
		Variant:       variant,
		KMax:          cfg.Engine.KMax,
		B:             cfg.Engine.B,
		KSrp:          cfg.Engine.KSrp,
		LeafSize:      cfg.Engine.LeafSize,
		C0:            cfg.Engine.C0,
		CacheCapacity: cacheCapacity,
	})
}

// loadVectors reads a raw little-endian f32 file and splits it into
// n rows of dim float32s each.
func loadVectors(path string, dim int) ([][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data)%(dim*4) != 0 {
		return nil, fmt.Errorf("%s: size %d is not a multiple of dim*4=%d", path, len(data), dim*4)
	}
	n := len(data) / (dim * 4)

	rows := make([][]float32, n)
	for i := 0; i < n; i++ {
		row := make([]float32, dim)
		for j := 0; j < dim; j++ {
			offset := (i*dim + j) * 4
			bits := binary.LittleEndian.Uint32(data[offset : offset+4])
			row[j] = math.Float32frombits(bits)
		}
		rows[i] = row
	}
	return rows, nil
}

func loadConfig(configFile string) *config.Config {
	// TODO: support loading from YAML/JSON config file
	if configFile != "" {
		log.Printf("Warning: config file support not yet implemented, using environment variables")
	}

	return config.LoadFromEnv()
}

func printBanner() {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                                                           ║
║   ____                              _                    ║
║  |  _ \ _____   _____ _ __ ___  ___| | __                ║
║  | |_) / _ \ \ / / _ \ '__/ __|/ _ \ |/ /                ║
║  |  _ <  __/\ V /  __/ |  \__ \  __/   <                 ║
║  |_| \_\___| \_/ \___|_|  |___/\___|_|\_\                ║
║                                                           ║
║   Reverse k-Maximum Inner Product Search                  ║
║                                                           ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Println(banner)
	fmt.Printf("Version: %s (commit: %s)\n\n", version, commit)
}

func printStartupInfo(cfg *config.Config, eng *engine.Engine) {
	fmt.Println("\n╔════════════════════════════════════════════════════════╗")
	fmt.Println("║            gRPC Server Configuration                   ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Address:          %-35s ║\n", cfg.Server.Address())
	fmt.Printf("║ TLS Enabled:      %-35v ║\n", cfg.Server.EnableTLS)
	fmt.Printf("║ Max Connections:  %-35d ║\n", cfg.Server.MaxConnections)
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Println("║            REST API Configuration                      ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Enabled:          %-35v ║\n", cfg.REST.Enabled)
	if cfg.REST.Enabled {
		fmt.Printf("║ Address:          %-35s ║\n", fmt.Sprintf("%s:%d", cfg.REST.Host, cfg.REST.Port))
		fmt.Printf("║ Auth Enabled:     %-35v ║\n", cfg.REST.AuthEnabled)
		fmt.Printf("║ CORS Enabled:     %-35v ║\n", cfg.REST.CORSEnabled)
		fmt.Printf("║ Rate Limiting:    %-35v ║\n", cfg.REST.RateLimitEnabled)
		if cfg.REST.RateLimitEnabled {
			fmt.Printf("║ Rate:             %-35s ║\n", fmt.Sprintf("%.1f req/s (burst: %d)", cfg.REST.RateLimitPerSec, cfg.REST.RateLimitBurst))
		}
		fmt.Printf("║ API Docs:         %-35s ║\n", fmt.Sprintf("http://%s:%d/docs", cfg.REST.Host, cfg.REST.Port))
	}
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Println("║               Engine Configuration                     ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Variant:          %-35s ║\n", eng.Variant())
	fmt.Printf("║ k_max:            %-35d ║\n", eng.KMax())
	fmt.Printf("║ Memory estimate:  %-35s ║\n", fmt.Sprintf("%d bytes", eng.MemoryEstimate()))
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Println("║               Cache Configuration                      ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Enabled:          %-35v ║\n", cfg.Cache.Enabled)
	fmt.Printf("║ Capacity:         %-35d ║\n", cfg.Cache.Capacity)
	fmt.Printf("║ TTL:              %-35s ║\n", cfg.Cache.TTL)
	fmt.Println("╚════════════════════════════════════════════════════════╝")
	fmt.Println()
}

func showUsage() {
	fmt.Println("Reverse k-MIPS Server - reverse top-k inner product search")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  reversekmips-server -items FILE -users FILE -dim N [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -help             Show this help message")
	fmt.Println("  -version          Show version information")
	fmt.Println("  -config PATH      Accepted but not read; configuration comes from the environment")
	fmt.Println("  -host HOST        Server host (default: 0.0.0.0)")
	fmt.Println("  -port PORT        Server port (default: 50051)")
	fmt.Println("  -items FILE       Raw f32 item vectors")
	fmt.Println("  -users FILE       Raw f32 user vectors")
	fmt.Println("  -dim N            Vector dimensionality")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  RKMIPS_HOST                 Server host")
	fmt.Println("  RKMIPS_PORT                 Server port")
	fmt.Println("  RKMIPS_MAX_CONNECTIONS      Max concurrent connections")
	fmt.Println("  RKMIPS_REQUEST_TIMEOUT      Request timeout (e.g., 30s)")
	fmt.Println("  RKMIPS_ENABLE_TLS           Enable TLS (true/false)")
	fmt.Println("  RKMIPS_TLS_CERT             TLS certificate file")
	fmt.Println("  RKMIPS_TLS_KEY              TLS key file")
	fmt.Println("  RKMIPS_ENGINE_VARIANT       Engine variant")
	fmt.Println("  RKMIPS_ENGINE_K_MAX         Largest k to precompute bounds for")
	fmt.Println("  RKMIPS_ENGINE_B             Item block norm ratio")
	fmt.Println("  RKMIPS_ENGINE_K_SRP         SRP-LSH bit count")
	fmt.Println("  RKMIPS_ENGINE_LEAF_SIZE     Cone-tree leaf size")
	fmt.Println("  RKMIPS_CACHE_ENABLED        Enable query cache (true/false)")
	fmt.Println("  RKMIPS_CACHE_CAPACITY       Cache capacity")
	fmt.Println("  RKMIPS_CACHE_TTL            Cache TTL (e.g., 5m)")
	fmt.Println("  RKMIPS_REST_ENABLED         Enable REST API (true/false)")
	fmt.Println("  RKMIPS_REST_PORT            REST API port")
	fmt.Println("  RKMIPS_REST_JWT_SECRET      REST API JWT secret")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  reversekmips-server -items items.bin -users users.bin -dim 128")
	fmt.Println()
	fmt.Println("  RKMIPS_ENGINE_VARIANT=SAHCone reversekmips-server -items items.bin -users users.bin -dim 128 -port 8080")
	fmt.Println()
}
