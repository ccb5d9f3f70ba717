package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultPath = "config/local.yaml"

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	Storage  StorageConfig  `yaml:"storage"`
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Export   ExportConfig   `yaml:"export"`
	Seed     SeedConfig     `yaml:"seed"`
}

type StorageConfig struct {
	Driver      string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	DSN         string `yaml:"dsn" env:"STORAGE_DSN" env-required:"true"`
	AutoMigrate bool   `yaml:"auto_migrate" env:"STORAGE_AUTO_MIGRATE" env-default:"false"`
}

type HTTPConfig struct {
	Port            int           `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"5s"`
	AllowOrigins    []string      `yaml:"allow_origins" env:"HTTP_ALLOW_ORIGINS" env-separator:","`
}

type AuthConfig struct {
	Secret   string        `yaml:"secret" env:"AUTH_SECRET" env-required:"true"`
	TokenTTL time.Duration `yaml:"token_ttl" env:"AUTH_TOKEN_TTL" env-default:"12h"`
}

type RealtimeConfig struct {
	SendBuffer   int           `yaml:"send_buffer" env-default:"32"`
	QueueSize    int           `yaml:"queue_size" env-default:"256"`
	PingInterval time.Duration `yaml:"ping_interval" env-default:"30s"`
}

type ExportConfig struct {
	ChamberName string `yaml:"chamber_name" env-default:"Câmara de Vereadores de Ubaporanga"`
	Timezone    string `yaml:"timezone" env:"EXPORT_TIMEZONE" env-default:"America/Sao_Paulo"`
}

type SeedConfig struct {
	AdminEmail        string `yaml:"admin_email" env-default:"admin@ubaporanga.com.br"`
	AdminName         string `yaml:"admin_name" env-default:"Administrador"`
	AdminPassword     string `yaml:"admin_password" env:"SEED_ADMIN_PASSWORD"`
	CouncilorEmail    string `yaml:"councilor_email" env-default:"usuario@ubaporanga.com.br"`
	CouncilorName     string `yaml:"councilor_name" env-default:"Usuário Teste"`
	CouncilorPassword string `yaml:"councilor_password" env:"SEED_COUNCILOR_PASSWORD"`
}

// Location resolves the export timezone, falling back to UTC.
func (c ExportConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// MustLoad reads the config from the -config flag, CONFIG_PATH or the
// default local path, in that order.
func MustLoad() *Config {
	return Load(fetchConfigPath())
}

func Load(path string) *Config {
	var config Config
	err := cleanenv.ReadConfig(path, &config)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &config
}

func fetchConfigPath() string {
	var res string

	if !flag.Parsed() {
		flag.StringVar(&res, "config", "", "path to config file")
		flag.Parse()
	}

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}
	if res == "" {
		res = defaultPath
	}
	return res
}
