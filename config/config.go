package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the configuration of the server and the admin CLI.
type Config struct {
	Port       int              `mapstructure:"port"`
	Env        string           `mapstructure:"env"`
	Pepper     string           `mapstructure:"pepper"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Database   PostgresConfig   `mapstructure:"database"`
	Upload     UploadConfig     `mapstructure:"upload"`
	S3         S3Config         `mapstructure:"s3"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	Log        LogConfig        `mapstructure:"log"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type PostgresConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// UploadConfig selects where avatars go: "local" writes below Dir, "s3" uses the S3 section.
type UploadConfig struct {
	Dir      string `mapstructure:"dir"`
	MaxBytes int64  `mapstructure:"max_bytes"`
	Backend  string `mapstructure:"backend"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	PublicURL string `mapstructure:"public_url"`
}

type PaginationConfig struct {
	DefaultSize int `mapstructure:"default_size"`
	MaxSize     int `mapstructure:"max_size"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

func (pc PostgresConfig) Dialect() string {
	return "postgres"
}

func (pc PostgresConfig) ConnectionInfo() string {
	if pc.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Name)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Password, pc.Name)
}

func DefaultConfig() Config {
	return Config{
		Port:   1111,
		Env:    "dev",
		Pepper: "secret-random-string",
		JWT: JWTConfig{
			Secret: "secret-jwt-key",
			TTL:    7 * 24 * time.Hour,
		},
		Database: DefaultPostgresConfig(),
		Upload: UploadConfig{
			Dir:      "uploads",
			MaxBytes: 5 << 20,
			Backend:  "local",
		},
		S3: S3Config{
			Endpoint: "localhost:9000",
			Bucket:   "avatars",
		},
		Pagination: PaginationConfig{
			DefaultSize: 20,
			MaxSize:     100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:         "localhost",
		Port:         5432,
		User:         "postgres",
		Password:     "",
		Name:         "anime_hub",
		MaxOpenConns: 25,
		MaxIdleConns: 5,
	}
}

// EnvPrefix prefixes the environment variables overriding the file, e.g. ANIMEHUB_DATABASE_HOST.
const EnvPrefix = "ANIMEHUB"

// configPaths are searched in order for config.yml.
var configPaths = []string{".", "./config", "../config", "../../config"}

// LoadConfig reads config.yml from the first of the search paths that has one,
// on top of DefaultConfig, and applies ANIMEHUB_* environment overrides.
// In production a config file is required.
func LoadConfig(isProd bool) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	return load(v, isProd)
}

// LoadFile is LoadConfig for an explicit config file path.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v, true)
}

func load(v *viper.Viper, isProd bool) (Config, error) {
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || isProd {
			return Config{}, errors.WithMessage(err, "read config")
		}
		logrus.Info("[config] no config.yml found, using defaults")
	} else {
		logrus.WithField("file", v.ConfigFileUsed()).Info("[config] loaded")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.WithMessage(err, "decode config")
	}
	if isProd {
		c.Env = "prod"
	}
	return c, nil
}

// setDefaults registers every key of the defaults, so that environment
// variables are picked up for keys missing from the file.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("port", d.Port)
	v.SetDefault("env", d.Env)
	v.SetDefault("pepper", d.Pepper)
	v.SetDefault("jwt.secret", d.JWT.Secret)
	v.SetDefault("jwt.ttl", d.JWT.TTL)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.name", d.Database.Name)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("upload.dir", d.Upload.Dir)
	v.SetDefault("upload.max_bytes", d.Upload.MaxBytes)
	v.SetDefault("upload.backend", d.Upload.Backend)
	v.SetDefault("s3.endpoint", d.S3.Endpoint)
	v.SetDefault("s3.access_key", d.S3.AccessKey)
	v.SetDefault("s3.secret_key", d.S3.SecretKey)
	v.SetDefault("s3.bucket", d.S3.Bucket)
	v.SetDefault("s3.use_ssl", d.S3.UseSSL)
	v.SetDefault("s3.public_url", d.S3.PublicURL)
	v.SetDefault("pagination.default_size", d.Pagination.DefaultSize)
	v.SetDefault("pagination.max_size", d.Pagination.MaxSize)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)
}

// SetupLogging configures the standard logrus logger.
func SetupLogging(c LogConfig) error {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return errors.WithMessage(err, "log level")
	}
	logrus.SetLevel(level)
	if c.JSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
