package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the ordering system
type Config struct {
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Redis    RedisConfig
	Ordering OrderingConfig
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// RabbitMQConfig holds RabbitMQ connection configuration
type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// RedisConfig holds the cart store connection
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// OrderingConfig holds the business constants of the ordering engine
type OrderingConfig struct {
	CouponTTL       time.Duration
	ConfirmETA      time.Duration
	DispatchETA     time.Duration
	PointsPerRupees int
	CartTTL         time.Duration
	SpinSeed        uint64
}

// Default returns the configuration used when a key is absent from the file.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "biryani", Database: "biryani_club"},
		RabbitMQ: RabbitMQConfig{Host: "localhost", Port: 5672, User: "guest", Password: "guest"},
		Redis:    RedisConfig{Host: "localhost", Port: 6379},
		Ordering: OrderingConfig{
			CouponTTL:       72 * time.Hour,
			ConfirmETA:      45 * time.Minute,
			DispatchETA:     15 * time.Minute,
			PointsPerRupees: 10,
			CartTTL:         24 * time.Hour,
		},
	}
}

// Load reads configuration from a YAML file, then applies .env and
// environment overrides.
func Load(filename string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	config := Default()
	doc := fileConfig{
		Database: config.Database,
		RabbitMQ: config.RabbitMQ,
		Redis:    config.Redis,
	}

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.Database = doc.Database
	config.RabbitMQ = doc.RabbitMQ
	config.Redis = doc.Redis
	if err := doc.Ordering.apply(&config.Ordering); err != nil {
		return nil, fmt.Errorf("invalid ordering section: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	return config, nil
}

// fileConfig mirrors config.yaml. Ordering durations are written as whole
// hours or minutes, and absent keys keep their defaults.
type fileConfig struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Redis    RedisConfig    `yaml:"redis"`
	Ordering orderingFile   `yaml:"ordering"`
}

type orderingFile struct {
	CouponTTLHours     *int    `yaml:"coupon_ttl_hours"`
	ConfirmETAMinutes  *int    `yaml:"confirm_eta_minutes"`
	DispatchETAMinutes *int    `yaml:"dispatch_eta_minutes"`
	PointsPerRupees    *int    `yaml:"points_per_rupees"`
	CartTTLHours       *int    `yaml:"cart_ttl_hours"`
	SpinSeed           *uint64 `yaml:"spin_seed"`
}

func (f orderingFile) apply(dst *OrderingConfig) error {
	durations := []struct {
		key  string
		n    *int
		unit time.Duration
		dst  *time.Duration
	}{
		{"coupon_ttl_hours", f.CouponTTLHours, time.Hour, &dst.CouponTTL},
		{"confirm_eta_minutes", f.ConfirmETAMinutes, time.Minute, &dst.ConfirmETA},
		{"dispatch_eta_minutes", f.DispatchETAMinutes, time.Minute, &dst.DispatchETA},
		{"cart_ttl_hours", f.CartTTLHours, time.Hour, &dst.CartTTL},
	}
	for _, d := range durations {
		if d.n == nil {
			continue
		}
		if *d.n <= 0 {
			return fmt.Errorf("%s must be positive", d.key)
		}
		*d.dst = time.Duration(*d.n) * d.unit
	}

	if f.PointsPerRupees != nil {
		if *f.PointsPerRupees <= 0 {
			return fmt.Errorf("points_per_rupees must be positive")
		}
		dst.PointsPerRupees = *f.PointsPerRupees
	}
	if f.SpinSeed != nil {
		dst.SpinSeed = *f.SpinSeed
	}
	return nil
}

// envOverrides maps environment variables onto section keys.
var envOverrides = []struct {
	env     string
	section string
	key     string
}{
	{"DB_HOST", "database", "host"},
	{"DB_PORT", "database", "port"},
	{"DB_USER", "database", "user"},
	{"DB_PASSWORD", "database", "password"},
	{"DB_NAME", "database", "database"},
	{"RABBITMQ_HOST", "rabbitmq", "host"},
	{"RABBITMQ_PORT", "rabbitmq", "port"},
	{"RABBITMQ_USER", "rabbitmq", "user"},
	{"RABBITMQ_PASSWORD", "rabbitmq", "password"},
	{"REDIS_HOST", "redis", "host"},
	{"REDIS_PORT", "redis", "port"},
	{"REDIS_PASSWORD", "redis", "password"},
	{"SPIN_SEED", "ordering", "spin_seed"},
}

func (c *Config) applyEnv() error {
	for _, o := range envOverrides {
		value, ok := os.LookupEnv(o.env)
		if !ok {
			continue
		}
		if err := c.setValue(o.section, o.key, value); err != nil {
			return fmt.Errorf("invalid %s: %w", o.env, err)
		}
	}
	return nil
}

func (c *Config) setValue(section, key, value string) error {
	switch section {
	case "database":
		return c.setDatabaseValue(key, value)
	case "rabbitmq":
		return c.setRabbitMQValue(key, value)
	case "redis":
		return c.setRedisValue(key, value)
	case "ordering":
		return c.setOrderingValue(key, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func (c *Config) setDatabaseValue(key, value string) error {
	switch key {
	case "host":
		c.Database.Host = value
	case "port":
		return parseInt(value, &c.Database.Port)
	case "user":
		c.Database.User = value
	case "password":
		c.Database.Password = value
	case "database":
		c.Database.Database = value
	default:
		return fmt.Errorf("unknown database key: %s", key)
	}
	return nil
}

func (c *Config) setRabbitMQValue(key, value string) error {
	switch key {
	case "host":
		c.RabbitMQ.Host = value
	case "port":
		return parseInt(value, &c.RabbitMQ.Port)
	case "user":
		c.RabbitMQ.User = value
	case "password":
		c.RabbitMQ.Password = value
	default:
		return fmt.Errorf("unknown rabbitmq key: %s", key)
	}
	return nil
}

func (c *Config) setRedisValue(key, value string) error {
	switch key {
	case "host":
		c.Redis.Host = value
	case "port":
		return parseInt(value, &c.Redis.Port)
	case "password":
		c.Redis.Password = value
	case "db":
		return parseInt(value, &c.Redis.DB)
	default:
		return fmt.Errorf("unknown redis key: %s", key)
	}
	return nil
}

func (c *Config) setOrderingValue(key, value string) error {
	switch key {
	case "coupon_ttl_hours":
		return parseDuration(value, time.Hour, &c.Ordering.CouponTTL)
	case "confirm_eta_minutes":
		return parseDuration(value, time.Minute, &c.Ordering.ConfirmETA)
	case "dispatch_eta_minutes":
		return parseDuration(value, time.Minute, &c.Ordering.DispatchETA)
	case "cart_ttl_hours":
		return parseDuration(value, time.Hour, &c.Ordering.CartTTL)
	case "points_per_rupees":
		if err := parseInt(value, &c.Ordering.PointsPerRupees); err != nil {
			return err
		}
		if c.Ordering.PointsPerRupees <= 0 {
			return fmt.Errorf("points_per_rupees must be positive")
		}
	case "spin_seed":
		seed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid spin_seed value: %w", err)
		}
		c.Ordering.SpinSeed = seed
	default:
		return fmt.Errorf("unknown ordering key: %s", key)
	}
	return nil
}

func parseInt(value string, dst *int) error {
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer value: %w", err)
	}
	*dst = n
	return nil
}

func parseDuration(value string, unit time.Duration, dst *time.Duration) error {
	var n int
	if err := parseInt(value, &n); err != nil {
		return err
	}
	if n <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	*dst = time.Duration(n) * unit
	return nil
}

// DatabaseURL returns a PostgreSQL connection URL
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port)),
		Path:     "/" + c.Database.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// RabbitMQURL returns an AMQP connection URL
func (c *Config) RabbitMQURL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.RabbitMQ.User, c.RabbitMQ.Password),
		Host:   net.JoinHostPort(c.RabbitMQ.Host, strconv.Itoa(c.RabbitMQ.Port)),
		Path:   "/",
	}
	return u.String()
}

// RedisAddr returns host:port for the cart store
func (c *Config) RedisAddr() string {
	return net.JoinHostPort(c.Redis.Host, strconv.Itoa(c.Redis.Port))
}
