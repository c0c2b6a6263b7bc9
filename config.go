package authgate

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	// DefaultLoginPath is where unauthenticated navigations are sent.
	DefaultLoginPath = "/login"
	// DefaultNonAdminPath is where signed in non admins are sent.
	DefaultNonAdminPath = "/app/catalog"
	// EnvPrefix prefixes every environment variable read by LoadConfig.
	EnvPrefix = "AUTHGATE_"
)

// Store drivers understood by the CLI.
const (
	StoreDriverNone   = "none"
	StoreDriverMemory = "memory"
	StoreDriverSQLite = "sqlite"
	StoreDriverMongo  = "mongo"
	StoreDriverRedis  = "redis"
)

// Config is the resolved configuration consumed by the package.
type Config struct {
	Provider ProviderConfig `envPrefix:"PROVIDER_"`
	Store    StoreConfig    `envPrefix:"STORE_"`
	HTTP     HTTPConfig     `envPrefix:"HTTP_"`

	// AdminEmails is the raw comma separated admin allow-list.
	AdminEmails    string            `env:"ADMIN_EMAILS"`
	RolePrecedence string            `env:"ROLE_PRECEDENCE" envDefault:"stored"`
	LoginPath      string            `env:"LOGIN_PATH" envDefault:"/login"`
	NonAdminPath   string            `env:"NON_ADMIN_PATH" envDefault:"/app/catalog"`
	Routes         map[string]string `env:"PROTECTED_ROUTES" envSeparator:"," envKeyValSeparator:":"`
}

// StoreConfig selects and configures the profile store.
type StoreConfig struct {
	Driver        string `env:"DRIVER" envDefault:"memory"`
	DSN           string `env:"DSN" envDefault:"file:authgate.db?cache=shared"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"authgate"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"users/"`
}

// HTTPConfig configures the bundled server.
type HTTPConfig struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	SecureCookie    bool          `env:"SECURE_COOKIE"`
}

// LoadConfig reads AUTHGATE_* variables from the environment.
func LoadConfig() (Config, error) {
	return loadConfig(env.Options{Prefix: EnvPrefix})
}

// LoadConfigFrom reads configuration from the given variables instead of
// the process environment.
func LoadConfigFrom(vars map[string]string) (Config, error) {
	return loadConfig(env.Options{Prefix: EnvPrefix, Environment: vars})
}

func loadConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, err
	}

	if len(cfg.Routes) == 0 {
		cfg.Routes = DefaultRoutes()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Store),
		validation.Field(&c.Provider),
		validation.Field(&c.RolePrecedence,
			validation.Required,
			validation.In(string(RolePrecedenceStored), string(RolePrecedenceAllowList)),
		),
		validation.Field(&c.LoginPath, validation.Required, validation.By(isAbsolutePath)),
		validation.Field(&c.NonAdminPath, validation.Required, validation.By(isAbsolutePath)),
		validation.Field(&c.Routes, validation.By(validRoutes)),
	)
}

// Validate checks the store section.
func (c StoreConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver,
			validation.Required,
			validation.In(StoreDriverNone, StoreDriverMemory, StoreDriverSQLite, StoreDriverMongo, StoreDriverRedis),
		),
		validation.Field(&c.DSN, validation.By(requiredWhen(c.Driver == StoreDriverSQLite))),
		validation.Field(&c.MongoURI, validation.By(requiredWhen(c.Driver == StoreDriverMongo))),
		validation.Field(&c.RedisAddr, validation.By(requiredWhen(c.Driver == StoreDriverRedis))),
	)
}

// Validate checks the provider section. An empty section is valid: the
// gate then runs signed out.
func (c ProviderConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Issuer, is.URL),
		validation.Field(&c.JWKSURL, is.URL),
	)
}

// AllowList parses AdminEmails.
func (c Config) AllowList() AllowList {
	return NewAllowListFromString(c.AdminEmails)
}

// RouteTable builds the protected route table.
func (c Config) RouteTable() (RouteTable, error) {
	routes := c.Routes
	if len(routes) == 0 {
		routes = DefaultRoutes()
	}
	return RouteTableFromMap(routes)
}

// GuardConfig builds the guard configuration.
func (c Config) GuardConfig() (GuardConfig, error) {
	table, err := c.RouteTable()
	if err != nil {
		return GuardConfig{}, err
	}
	return GuardConfig{
		Routes:       table,
		LoginPath:    c.LoginPath,
		NonAdminPath: c.NonAdminPath,
	}, nil
}

func isAbsolutePath(value any) error {
	s, _ := value.(string)
	if s != "" && !strings.HasPrefix(s, "/") {
		return errors.New("must start with /")
	}
	return nil
}

func requiredWhen(cond bool) validation.RuleFunc {
	return func(value any) error {
		if !cond {
			return nil
		}
		if s, _ := value.(string); strings.TrimSpace(s) == "" {
			return errors.New("cannot be blank")
		}
		return nil
	}
}

func validRoutes(value any) error {
	routes, _ := value.(map[string]string)
	_, err := RouteTableFromMap(routes)
	return err
}
