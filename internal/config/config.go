package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/taoreta-ed/redes2-25-2/internal/entity"
)

const (
	ModeReactor  = "reactor"
	ModeThreaded = "threaded"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Server   Server `yaml:"server"`
	Redis    Redis  `yaml:"redis"`
	Client   Client `yaml:"client"`
}

type Server struct {
	Host         string        `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env:"SERVER_PORT" env-default:"5555"`
	Difficulty   string        `yaml:"difficulty" env:"SERVER_DIFFICULTY" env-default:"principiante"`
	Mode         string        `yaml:"mode" env:"SERVER_MODE" env-default:"reactor"`
	TickInterval time.Duration `yaml:"tick-interval" env:"SERVER_TICK_INTERVAL" env-default:"10ms"`
	Seed         int64         `yaml:"seed" env:"SERVER_SEED" env-default:"0"`
}

type Redis struct {
	Enabled    bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host       string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port       string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	ResultsTTL time.Duration `yaml:"results-ttl" env:"REDIS_RESULTS_TTL" env-default:"168h"`
}

type Client struct {
	HandshakeTimeout time.Duration `yaml:"handshake-timeout" env:"CLIENT_HANDSHAKE_TIMEOUT" env-default:"5s"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

// Load - reads path when it exists, otherwise only the environment.
func Load(path string) (*Config, error) {
	config := &Config{}

	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		err = cleanenv.ReadConfig(path, config)
	} else {
		err = cleanenv.ReadEnv(config)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) Validate() error {
	switch that.Server.Mode {
	case ModeReactor, ModeThreaded:
	default:
		return fmt.Errorf("%w: server mode %q", ErrInvalidConfig, that.Server.Mode)
	}

	if _, err := entity.ParseDifficulty(that.Server.Difficulty); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if _, err := strconv.Atoi(that.Server.Port); err != nil {
		return fmt.Errorf("%w: server port %q", ErrInvalidConfig, that.Server.Port)
	}

	if that.Server.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive", ErrInvalidConfig)
	}

	return nil
}

func (that *Server) Addr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
