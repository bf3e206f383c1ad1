package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const (
	EnvPrefix = "KANSO_"

	StorageJSON     = "json"
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Application struct {
	Server   Server   `koanf:"server"`
	Storage  Storage  `koanf:"storage"`
	Database Database `koanf:"db"`
	Redis    Redis    `koanf:"redis"`
	Auth     Auth     `koanf:"auth"`
	Log      Log      `koanf:"log"`
	Seed     uint64   `koanf:"seed"`
}

type Server struct {
	Port string `koanf:"port"`
	// RateLimit is the number of /api/v1 requests a client may send per
	// RateWindow. Zero disables limiting.
	RateLimit  int           `koanf:"ratelimit"`
	RateWindow time.Duration `koanf:"ratewindow"`
}

type Storage struct {
	Driver string `koanf:"driver"`
	File   string `koanf:"file"`
}

type Database struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
	User string `koanf:"user"`
	Pass string `koanf:"pass"`
	Name string `koanf:"name"`
}

type Redis struct {
	Enabled  bool   `koanf:"enabled"`
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type Auth struct {
	Secret   string        `koanf:"secret"`
	Issuer   string        `koanf:"issuer"`
	TokenTTL time.Duration `koanf:"tokenttl"`
	Owner    string        `koanf:"owner"`
}

type Log struct {
	Level string `koanf:"level"`
}

// DSN builds the Postgres connection string used by sqlx and golang-migrate.
func (d Database) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Pass, d.Host, d.Port, d.Name)
}

func Defaults() Application {
	return Application{
		Server: Server{
			Port:       "8080",
			RateLimit:  100,
			RateWindow: time.Minute,
		},
		Storage: Storage{
			Driver: StorageJSON,
			File:   "habits.json",
		},
		Database: Database{
			Host: "localhost",
			Port: 5432,
			User: "kanso_user",
			Name: "kanso_db",
		},
		Redis: Redis{
			Host: "localhost",
			Port: "6379",
		},
		Auth: Auth{
			Issuer:   "kanso-habits",
			TokenTTL: 24 * time.Hour,
			Owner:    "owner",
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load layers struct defaults, an optional YAML file and KANSO_ environment
// variables, in that order. A .env file in the working directory is loaded into
// the environment first when present.
func Load(path string) (Application, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("could not read .env file: %v", err)
	}

	var k = koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return Application{}, fmt.Errorf("loading config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Debugf("Config file not found at %s, using defaults and environment variables", path)
			} else {
				return Application{}, fmt.Errorf("loading config from %s: %w", path, err)
			}
		} else {
			log.Debugf("Loaded configuration from file: %s", path)
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, EnvPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		return Application{}, fmt.Errorf("loading config from env: %w", err)
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, fmt.Errorf("decoding config: %w", err)
	}

	switch app.Storage.Driver {
	case StorageJSON, StorageMemory, StoragePostgres:
	default:
		return Application{}, fmt.Errorf("unknown storage driver %q", app.Storage.Driver)
	}

	if app.Server.RateLimit > 0 && app.Server.RateWindow <= 0 {
		return Application{}, fmt.Errorf("server.ratewindow must be positive when server.ratelimit is set, got %s", app.Server.RateWindow)
	}

	return app, nil
}

// ConfigureLogging applies the configured level to the global logrus logger.
func ConfigureLogging(cfg Log) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("unknown log level %q, falling back to info", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
