package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the process reads from the environment.
// The backup subsystem keeps its own persisted JSON config on top of
// BackupDir/BackupConfigPath (see internal/backup).
type Config struct {
	Port              string `envconfig:"PORT" default:"8080"`
	BaseURL           string `envconfig:"BASE_URL" default:"http://localhost:8080"`
	DBPath            string `envconfig:"DB_PATH" default:"./pos.db"`
	UploadsDir        string `envconfig:"UPLOADS_DIR" default:"./uploads"`
	BackupDir         string `envconfig:"BACKUP_DIR" default:"./backups"`
	BackupConfigPath  string `envconfig:"BACKUP_CONFIG_PATH" default:"./backup_config.json"`
	JWTSecret         string `envconfig:"JWT_SECRET" default:"change_me_in_production"`
	AllowRegistration bool   `envconfig:"ALLOW_REGISTRATION" default:"false"`
	CORSOrigin        string `envconfig:"CORS_ORIGIN" default:"http://localhost:5173"`
}

// Load reads .env (if present) and resolves the process configuration.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
