package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Service     ServiceConfig
	Log         LogConfig
	Server      ServerConfig
	Database    DatabaseConfig
	Eboekhouden EboekhoudenConfig
}

// ServiceConfig identifies the running service
type ServiceConfig struct {
	Name        string
	Environment string
	Version     string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string // debug, info, warn, error
}

// ServerConfig holds HTTP and gRPC listener settings
type ServerConfig struct {
	Port            int
	GRPCPort        int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

// DatabaseConfig holds the sync log database settings
type DatabaseConfig struct {
	Enabled     bool
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	SSLMode     string
	MaxConns    int32
	MinConns    int32
	MaxConnTime time.Duration
	MaxIdleTime time.Duration
}

// EboekhoudenConfig holds credentials and invoice defaults for the remote bookkeeping
type EboekhoudenConfig struct {
	WSDL             string
	Username         string
	SecurityCode1    string
	SecurityCode2    string
	PaymentTerm      int // days
	InvoiceTemplate  string
	EmailFromAddress string
	EmailFromName    string
	Timeout          time.Duration
}

// Errors for configuration validation
var (
	ErrMissingWSDL          = errors.New("config: missing eboekhouden.wsdl")
	ErrInvalidWSDL          = errors.New("config: eboekhouden.wsdl must be an absolute http(s) URL")
	ErrMissingUsername      = errors.New("config: missing eboekhouden.username")
	ErrMissingSecurityCodes = errors.New("config: missing eboekhouden security codes")
	ErrInvalidPaymentTerm   = errors.New("config: eboekhouden.payment_term must not be negative")
)

// DefaultWSDL is the public service description of e-Boekhouden
const DefaultWSDL = "https://soap.e-boekhouden.nl/soap.asmx?WSDL"

// Load loads configuration from a YAML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with EBOEKHOUDEN_ prefix (e.g., EBOEKHOUDEN_DATABASE_PASSWORD)
// 2. config.yaml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/eboekhouden")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return fromViper(v)
}

// LoadFile loads configuration from an explicit file path plus environment
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("EBOEKHOUDEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Service: ServiceConfig{
			Name:        v.GetString("service.name"),
			Environment: v.GetString("service.environment"),
			Version:     v.GetString("service.version"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
		Server: ServerConfig{
			Port:            v.GetInt("server.port"),
			GRPCPort:        v.GetInt("server.grpc_port"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			IdleTimeout:     v.GetDuration("server.idle_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			RequestTimeout:  v.GetDuration("server.request_timeout"),
		},
		Database: DatabaseConfig{
			Enabled:     v.GetBool("database.enabled"),
			Host:        v.GetString("database.host"),
			Port:        v.GetInt("database.port"),
			User:        v.GetString("database.user"),
			Password:    v.GetString("database.password"),
			Database:    v.GetString("database.database"),
			SSLMode:     v.GetString("database.sslmode"),
			MaxConns:    v.GetInt32("database.max_conns"),
			MinConns:    v.GetInt32("database.min_conns"),
			MaxConnTime: v.GetDuration("database.max_conn_time"),
			MaxIdleTime: v.GetDuration("database.max_idle_time"),
		},
		Eboekhouden: EboekhoudenConfig{
			WSDL:             v.GetString("eboekhouden.wsdl"),
			Username:         v.GetString("eboekhouden.username"),
			SecurityCode1:    v.GetString("eboekhouden.security_code1"),
			SecurityCode2:    v.GetString("eboekhouden.security_code2"),
			PaymentTerm:      v.GetInt("eboekhouden.payment_term"),
			InvoiceTemplate:  v.GetString("eboekhouden.invoice_template"),
			EmailFromAddress: v.GetString("eboekhouden.email_from_address"),
			EmailFromName:    v.GetString("eboekhouden.email_from_name"),
			Timeout:          v.GetDuration("eboekhouden.timeout"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = "be-gl-eboekhouden"
	}
	if cfg.Service.Environment == "" {
		cfg.Service.Environment = "development"
	}
	if cfg.Service.Version == "" {
		cfg.Service.Version = "dev"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8086
	}
	if cfg.Server.GRPCPort == 0 {
		cfg.Server.GRPCPort = 9086
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.Database == "" {
		cfg.Database.Database = "eboekhouden"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Database.MinConns == 0 {
		cfg.Database.MinConns = 1
	}
	if cfg.Database.MaxConnTime == 0 {
		cfg.Database.MaxConnTime = time.Hour
	}
	if cfg.Database.MaxIdleTime == 0 {
		cfg.Database.MaxIdleTime = 30 * time.Minute
	}
	if cfg.Eboekhouden.WSDL == "" {
		cfg.Eboekhouden.WSDL = DefaultWSDL
	}
	if cfg.Eboekhouden.PaymentTerm == 0 {
		cfg.Eboekhouden.PaymentTerm = 14
	}
	if cfg.Eboekhouden.Timeout == 0 {
		cfg.Eboekhouden.Timeout = 30 * time.Second
	}
}

// Validate checks that the remote credentials are usable
func (c *Config) Validate() error {
	eb := c.Eboekhouden
	if eb.WSDL == "" {
		return ErrMissingWSDL
	}
	u, err := url.Parse(eb.WSDL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidWSDL
	}
	if eb.Username == "" {
		return ErrMissingUsername
	}
	if eb.SecurityCode1 == "" || eb.SecurityCode2 == "" {
		return ErrMissingSecurityCodes
	}
	if eb.PaymentTerm < 0 {
		return ErrInvalidPaymentTerm
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (d DatabaseConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}
