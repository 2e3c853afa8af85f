package config

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"

	defaultTokenAlgorithm = "HS256"
	defaultAccessTTL      = 30 * time.Minute
	defaultRefreshTTL     = 7 * 24 * time.Hour

	defaultArgon2Memory      = 64 * 1024
	defaultArgon2Iterations  = 3
	defaultArgon2Parallelism = 4
	defaultArgon2SaltLength  = 16
	defaultArgon2KeyLength   = 32

	defaultHomeRateLimit = 5
	defaultAuthRateLimit = 20
	defaultRateWindow    = time.Minute

	defaultLogMaxSizeMB  = 10
	defaultLogMaxBackups = 5
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Rate limiter backends
const (
	RateLimitBackendLocal = "local"
	RateLimitBackendRedis = "redis"
)

// Hashing algorithms for new credentials
const (
	HashAlgorithmArgon2id = "argon2id"
	HashAlgorithmBcrypt   = "bcrypt"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`

		// TrustedProxies lists CIDR ranges whose X-Forwarded-For header is
		// honoured. When empty the client IP is the socket peer.
		TrustedProxies []string `json:"trustedProxies" yaml:"trustedProxies"`

		Timeouts struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Store StoreConfig `json:"store" yaml:"store"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	Token TokenConfig `json:"token" yaml:"token"`

	Hasher HasherConfig `json:"hasher" yaml:"hasher"`

	RateLimit RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`

	Redis RedisConfig `json:"redis" yaml:"redis"`
}

// StoreConfig selects the user store backend
type StoreConfig struct {
	// Driver is "postgres" or "memory"
	Driver string `json:"driver" yaml:"driver"`

	// AutoMigrate applies embedded migrations on startup
	AutoMigrate bool `json:"autoMigrate" yaml:"autoMigrate"`
}

// TokenConfig defines token signing and lifetimes
type TokenConfig struct {
	Secret     string        `json:"secret" yaml:"secret"`
	Algorithm  string        `json:"algorithm" yaml:"algorithm"`
	AccessTTL  time.Duration `json:"accessTTL" yaml:"accessTTL"`
	RefreshTTL time.Duration `json:"refreshTTL" yaml:"refreshTTL"`
}

// HasherConfig defines password hashing work factors
type HasherConfig struct {
	// Algorithm used for new hashes. Existing hashes of either kind always verify.
	Algorithm  string       `json:"algorithm" yaml:"algorithm"`
	Argon2     Argon2Config `json:"argon2" yaml:"argon2"`
	BcryptCost int          `json:"bcryptCost" yaml:"bcryptCost"`

	// MaxConcurrent caps simultaneous hash computations. Zero means GOMAXPROCS.
	MaxConcurrent int `json:"maxConcurrent" yaml:"maxConcurrent"`
}

type Argon2Config struct {
	Memory      uint32 `json:"memory" yaml:"memory"` // KiB
	Iterations  uint32 `json:"iterations" yaml:"iterations"`
	Parallelism uint8  `json:"parallelism" yaml:"parallelism"`
	SaltLength  uint32 `json:"saltLength" yaml:"saltLength"`
	KeyLength   uint32 `json:"keyLength" yaml:"keyLength"`
}

// RateLimitConfig defines request throttling per client IP
type RateLimitConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Backend string `json:"backend" yaml:"backend"`

	// Home throttles the welcome route
	Home RateLimitRule `json:"home" yaml:"home"`

	// Auth throttles register, login and refresh
	Auth RateLimitRule `json:"auth" yaml:"auth"`
}

type RateLimitRule struct {
	Limit  int           `json:"limit" yaml:"limit"`
	Window time.Duration `json:"window" yaml:"window"`
}

func (r *RateLimitRule) applyDefaults(limit int) {
	if r.Limit == 0 {
		r.Limit = limit
	}
	if r.Window == 0 {
		r.Window = defaultRateWindow
	}
}

type RedisConfig struct {
	URL string `json:"url" yaml:"url"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`

	// Dir enables rotating app.log and error.log files when set
	Dir        string `json:"dir" yaml:"dir"`
	MaxSizeMB  int    `json:"maxSizeMB" yaml:"maxSizeMB"`
	MaxBackups int    `json:"maxBackups" yaml:"maxBackups"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			if filepath.IsAbs(path) {
				searchPaths = append(searchPaths, path)

				continue
			}
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	var configFile string
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate

			break
		}
	}

	if configFile == "" {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: TOKEN_ACCESSTTL -> token.accessTTL (not token.accessttl)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()

	if cfg.Postgres != nil {
		// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, etc.)
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyDefaults fills zero values that have a sensible default.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.HTTP.MaxRequestBodySize) == "" {
		c.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}

	if c.Store.Driver == "" {
		c.Store.Driver = StoreDriverPostgres
	}

	if c.Token.Algorithm == "" {
		c.Token.Algorithm = defaultTokenAlgorithm
	}
	if c.Token.AccessTTL == 0 {
		c.Token.AccessTTL = defaultAccessTTL
	}
	if c.Token.RefreshTTL == 0 {
		c.Token.RefreshTTL = defaultRefreshTTL
	}

	if c.Hasher.Algorithm == "" {
		c.Hasher.Algorithm = HashAlgorithmArgon2id
	}
	argon := &c.Hasher.Argon2
	if argon.Memory == 0 {
		argon.Memory = defaultArgon2Memory
	}
	if argon.Iterations == 0 {
		argon.Iterations = defaultArgon2Iterations
	}
	if argon.Parallelism == 0 {
		argon.Parallelism = defaultArgon2Parallelism
	}
	if argon.SaltLength == 0 {
		argon.SaltLength = defaultArgon2SaltLength
	}
	if argon.KeyLength == 0 {
		argon.KeyLength = defaultArgon2KeyLength
	}

	if c.RateLimit.Backend == "" {
		c.RateLimit.Backend = RateLimitBackendLocal
	}
	c.RateLimit.Home.applyDefaults(defaultHomeRateLimit)
	c.RateLimit.Auth.applyDefaults(defaultAuthRateLimit)

	if c.Env.Log.MaxSizeMB == 0 {
		c.Env.Log.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Env.Log.MaxBackups == 0 {
		c.Env.Log.MaxBackups = defaultLogMaxBackups
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Token.Secret) == "" {
		return errors.New("token.secret must be provided")
	}

	switch c.Token.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return errors.Errorf("token.algorithm %q is not supported", c.Token.Algorithm)
	}

	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}

	for _, cidr := range c.HTTP.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return errors.Wrapf(err, "http.trustedProxies entry %q", cidr)
		}
	}

	switch c.Hasher.Algorithm {
	case HashAlgorithmArgon2id, HashAlgorithmBcrypt:
	default:
		return errors.Errorf("hasher.algorithm %q is not supported", c.Hasher.Algorithm)
	}

	switch c.Store.Driver {
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if c.Postgres == nil {
			return errors.New("postgres section is required for the postgres store driver")
		}
	default:
		return errors.Errorf("store.driver %q is not supported", c.Store.Driver)
	}

	if c.RateLimit.Enabled {
		switch c.RateLimit.Backend {
		case RateLimitBackendLocal:
		case RateLimitBackendRedis:
			if c.Redis.URL == "" {
				return errors.New("redis.url is required for the redis rate limit backend")
			}
		default:
			return errors.Errorf("rateLimit.backend %q is not supported", c.RateLimit.Backend)
		}
	}

	return nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Environment variable format: POSTGRES_REPLICAS_{index}_{field}
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			break
		}

		replicas = append(replicas, postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		})
	}

	return replicas
}
