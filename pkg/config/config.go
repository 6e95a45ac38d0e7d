package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all server configuration
type Config struct {
	Server        ServerConfig
	Engine        EngineConfig
	Cache         CacheConfig
	Observability ObservabilityConfig
	REST          RESTConfig
}

// ServerConfig holds gRPC/REST server configuration
type ServerConfig struct {
	Host            string        // Server host (default: "0.0.0.0")
	Port            int           // Server port (default: 50051)
	MaxConnections  int           // Max concurrent connections
	RequestTimeout  time.Duration // Request timeout
	ShutdownTimeout time.Duration // Graceful shutdown timeout
	EnableTLS       bool          // Enable TLS
	CertFile        string        // TLS certificate file
	KeyFile         string        // TLS key file
}

// EngineConfig holds reverse k-MIPS engine build configuration
type EngineConfig struct {
	Variant  string  // one of ExhaustiveScan, H2Linear, H2Simpfer, SAlshSimpfer, SAHCone, H2Cone
	KMax     int     // largest k the engine precomputes bounds for
	B        float32 // item block norm ratio, in (0,1)
	KSrp     int     // SRP-LSH bit count, must be a multiple of 64
	LeafSize int     // cone-tree leaf size
	C0       float32 // QALSH nearest-neighbor approximation ratio
}

// CacheConfig holds query result cache configuration
type CacheConfig struct {
	Enabled  bool          // Enable (query,k) result caching
	Capacity int           // Max cache entries
	TTL      time.Duration // Time to live for cache entries
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel string // DEBUG, INFO, WARN, ERROR, FATAL
}

// RESTConfig holds the optional REST query surface configuration; it
// fronts the gRPC server with JWT auth and rate limiting.
type RESTConfig struct {
	Enabled bool
	Host    string
	Port    int

	GRPCAddress string // address of the gRPC server to proxy to

	CORSEnabled bool
	CORSOrigins []string

	AuthEnabled bool
	JWTSecret   string
	PublicPaths []string
	AdminPaths  []string

	RateLimitEnabled bool
	RateLimitPerSec  float64
	RateLimitBurst   int
	RateLimitPerIP   bool
	RateLimitPerUser bool
	RateLimitGlobal  bool
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            50051,
			MaxConnections:  1000,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			EnableTLS:       false,
		},
		Engine: EngineConfig{
			Variant:  "H2Simpfer",
			KMax:     10,
			B:        0.9,
			KSrp:     64,
			LeafSize: 100,
			C0:       2.0,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Capacity: 1000,
			TTL:      5 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel: "INFO",
		},
		REST: RESTConfig{
			Enabled:          true,
			Host:             "0.0.0.0",
			Port:             8080,
			GRPCAddress:      "localhost:50051",
			CORSEnabled:      true,
			CORSOrigins:      []string{"*"},
			PublicPaths:      []string{"/v1/health", "/docs"},
			RateLimitEnabled: true,
			RateLimitPerSec:  50,
			RateLimitBurst:   100,
			RateLimitPerIP:   true,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	cfg := Default()

	// Server configuration
	if host := os.Getenv("RKMIPS_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("RKMIPS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if maxConn := os.Getenv("RKMIPS_MAX_CONNECTIONS"); maxConn != "" {
		if mc, err := strconv.Atoi(maxConn); err == nil {
			cfg.Server.MaxConnections = mc
		}
	}
	if timeout := os.Getenv("RKMIPS_REQUEST_TIMEOUT"); timeout != "" {
		if t, err := time.ParseDuration(timeout); err == nil {
			cfg.Server.RequestTimeout = t
		}
	}
	if enableTLS := os.Getenv("RKMIPS_ENABLE_TLS"); enableTLS == "true" {
		cfg.Server.EnableTLS = true
		cfg.Server.CertFile = os.Getenv("RKMIPS_TLS_CERT")
		cfg.Server.KeyFile = os.Getenv("RKMIPS_TLS_KEY")
	}

	// Engine configuration
	if variant := os.Getenv("RKMIPS_ENGINE_VARIANT"); variant != "" {
		cfg.Engine.Variant = variant
	}
	if kMax := os.Getenv("RKMIPS_ENGINE_K_MAX"); kMax != "" {
		if v, err := strconv.Atoi(kMax); err == nil {
			cfg.Engine.KMax = v
		}
	}
	if b := os.Getenv("RKMIPS_ENGINE_B"); b != "" {
		if v, err := strconv.ParseFloat(b, 32); err == nil {
			cfg.Engine.B = float32(v)
		}
	}
	if kSrp := os.Getenv("RKMIPS_ENGINE_K_SRP"); kSrp != "" {
		if v, err := strconv.Atoi(kSrp); err == nil {
			cfg.Engine.KSrp = v
		}
	}
	if leaf := os.Getenv("RKMIPS_ENGINE_LEAF_SIZE"); leaf != "" {
		if v, err := strconv.Atoi(leaf); err == nil {
			cfg.Engine.LeafSize = v
		}
	}

	// Cache configuration
	if cacheEnabled := os.Getenv("RKMIPS_CACHE_ENABLED"); cacheEnabled == "false" {
		cfg.Cache.Enabled = false
	}
	if capacity := os.Getenv("RKMIPS_CACHE_CAPACITY"); capacity != "" {
		if c, err := strconv.Atoi(capacity); err == nil {
			cfg.Cache.Capacity = c
		}
	}
	if ttl := os.Getenv("RKMIPS_CACHE_TTL"); ttl != "" {
		if t, err := time.ParseDuration(ttl); err == nil {
			cfg.Cache.TTL = t
		}
	}

	// Observability configuration
	if level := os.Getenv("RKMIPS_LOG_LEVEL"); level != "" {
		cfg.Observability.LogLevel = level
	}

	// REST configuration
	if restEnabled := os.Getenv("RKMIPS_REST_ENABLED"); restEnabled == "false" {
		cfg.REST.Enabled = false
	}
	if port := os.Getenv("RKMIPS_REST_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.REST.Port = p
		}
	}
	if secret := os.Getenv("RKMIPS_REST_JWT_SECRET"); secret != "" {
		cfg.REST.AuthEnabled = true
		cfg.REST.JWTSecret = secret
	}

	return cfg
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.MaxConnections < 1 {
		return fmt.Errorf("invalid max connections: %d (must be > 0)", c.Server.MaxConnections)
	}
	if c.Server.EnableTLS {
		if c.Server.CertFile == "" || c.Server.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert or key file not specified")
		}
	}

	// Engine validation
	switch c.Engine.Variant {
	case "ExhaustiveScan", "H2Linear", "H2Simpfer", "SAlshSimpfer", "SAHCone", "H2Cone":
	default:
		return fmt.Errorf("invalid engine variant: %q", c.Engine.Variant)
	}
	if c.Engine.KMax < 1 {
		return fmt.Errorf("invalid k_max: %d (must be > 0)", c.Engine.KMax)
	}
	if c.Engine.B <= 0 || c.Engine.B >= 1 {
		return fmt.Errorf("invalid block ratio b: %v (must be in (0,1))", c.Engine.B)
	}
	if c.Engine.KSrp <= 0 || c.Engine.KSrp%64 != 0 {
		return fmt.Errorf("invalid k_srp: %d (must be a positive multiple of 64)", c.Engine.KSrp)
	}
	if c.Engine.LeafSize < 1 {
		return fmt.Errorf("invalid leaf_size: %d (must be > 0)", c.Engine.LeafSize)
	}

	// Cache validation
	if c.Cache.Enabled && c.Cache.Capacity < 1 {
		return fmt.Errorf("invalid cache capacity: %d (must be > 0)", c.Cache.Capacity)
	}

	// REST validation
	if c.REST.Enabled {
		if c.REST.Port < 1 || c.REST.Port > 65535 {
			return fmt.Errorf("invalid REST port: %d (must be 1-65535)", c.REST.Port)
		}
		if c.REST.AuthEnabled && c.REST.JWTSecret == "" {
			return fmt.Errorf("REST auth enabled but JWT secret not specified")
		}
	}

	return nil
}

// Address returns the server address (host:port)
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
