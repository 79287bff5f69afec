package config

import "time"

// APIConfig holds runtime configuration for the auth API service.
type APIConfig struct {
	Environment   string
	Addr          string
	DatabaseURL   string
	MigrationsDir string
	JWTSecret     string
	SessionTTL    time.Duration
	SeedDemoUser  bool
	DemoUsername  string
	DemoEmail     string
	DemoPassword  string
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:   GetString("APP_ENV", "development"),
		Addr:          GetString("API_ADDR", ":4000"),
		DatabaseURL:   GetString("DATABASE_URL", "postgres://gatekit:gatekit@db:5432/gatekit?sslmode=disable"),
		MigrationsDir: GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		JWTSecret:     GetString("JWT_SECRET", "supersecuresecret"),
		SessionTTL:    time.Duration(GetInt("SESSION_TOKEN_TTL_HOURS", 168)) * time.Hour,
		SeedDemoUser:  GetBool("SEED_DEMO_USER", true),
		DemoUsername:  GetString("DEMO_USERNAME", "demo"),
		DemoEmail:     GetString("DEMO_EMAIL", "demo@example.com"),
		DemoPassword:  GetString("DEMO_PASSWORD", "demopass123"),
	}
}
