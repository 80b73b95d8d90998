// Package config carga la configuración del proceso una sola vez al arrancar.
// Defaults embebidos -> config.yaml opcional -> variables PETGUARD_*.
// Después de Load el *Config se trata como inmutable.
package config

import (
	_ "embed"
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
)

//go:embed defaults.yaml
var defaultsYAML []byte

const (
	EnvPrefix      = "PETGUARD_"
	configFileName = "config.yaml"
)

type Config struct {
	Env struct {
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port          int    `json:"port" yaml:"port"`
		PublicBaseURL string `json:"publicBaseURL" yaml:"publicBaseURL"`
		SecureCookies bool   `json:"secureCookies" yaml:"secureCookies"`
		// DevAuthHeader habilita X-Debug-User-ID (solo dev / tests).
		DevAuthHeader bool `json:"devAuthHeader" yaml:"devAuthHeader"`
		Timeouts      struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres struct {
		DSN     string `json:"dsn" yaml:"dsn"`
		Migrate bool   `json:"migrate" yaml:"migrate"`
	} `json:"postgres" yaml:"postgres"`

	Auth AuthConfig `json:"auth" yaml:"auth"`

	Guard GuardConfig `json:"guard" yaml:"guard"`

	ClientGuard struct {
		Timeout time.Duration `json:"timeout" yaml:"timeout"`
	} `json:"clientGuard" yaml:"clientGuard"`

	Pets struct {
		DefaultMaxPets int `json:"defaultMaxPets" yaml:"defaultMaxPets"`
	} `json:"pets" yaml:"pets"`

	// Plans es la fuente remota opcional de cuotas por plan.
	Plans struct {
		BaseURL string `json:"baseURL" yaml:"baseURL"`
		APIKey  string `json:"apiKey" yaml:"apiKey"`
	} `json:"plans" yaml:"plans"`

	Photos PhotosConfig `json:"photos" yaml:"photos"`

	Geocoding GeocodingConfig `json:"geocoding" yaml:"geocoding"`

	Reports struct {
		RatePerMinute int `json:"ratePerMinute" yaml:"ratePerMinute"`
		Burst         int `json:"burst" yaml:"burst"`
	} `json:"reports" yaml:"reports"`

	QRCode struct {
		Size  int    `json:"size" yaml:"size"`
		Level string `json:"level" yaml:"level"`
	} `json:"qrcode" yaml:"qrcode"`
}

type Log struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

type AuthConfig struct {
	// Provider: "local" (JWT propio) o "gotrue" (servicio hospedado).
	Provider       string        `json:"provider" yaml:"provider"`
	ResolveTimeout time.Duration `json:"resolveTimeout" yaml:"resolveTimeout"`

	Local struct {
		AccessSecret  string        `json:"accessSecret" yaml:"accessSecret"`
		RefreshSecret string        `json:"refreshSecret" yaml:"refreshSecret"`
		AccessTTL     time.Duration `json:"accessTTL" yaml:"accessTTL"`
		RefreshTTL    time.Duration `json:"refreshTTL" yaml:"refreshTTL"`
		ReuseInterval time.Duration `json:"reuseInterval" yaml:"reuseInterval"`
		BcryptCost    int           `json:"bcryptCost" yaml:"bcryptCost"`
	} `json:"local" yaml:"local"`

	GoTrue struct {
		URL     string        `json:"url" yaml:"url"`
		AnonKey string        `json:"anonKey" yaml:"anonKey"`
		Timeout time.Duration `json:"timeout" yaml:"timeout"`
	} `json:"gotrue" yaml:"gotrue"`
}

// GuardConfig parametriza el route guard. Los modos son excluyentes.
type GuardConfig struct {
	Mode              string   `json:"mode" yaml:"mode"`
	ProtectedPrefixes []string `json:"protectedPrefixes" yaml:"protectedPrefixes"`
	LoginPath         string   `json:"loginPath" yaml:"loginPath"`
	SignupPath        string   `json:"signupPath" yaml:"signupPath"`
	LandingPath       string   `json:"landingPath" yaml:"landingPath"`
	RedirectSignup    bool     `json:"redirectSignup" yaml:"redirectSignup"`
	Debug             bool     `json:"debug" yaml:"debug"`

	Maintenance struct {
		RetryAfter time.Duration `json:"retryAfter" yaml:"retryAfter"`
	} `json:"maintenance" yaml:"maintenance"`

	Basic struct {
		Username string `json:"username" yaml:"username"`
		Password string `json:"password" yaml:"password"`
		Realm    string `json:"realm" yaml:"realm"`
	} `json:"basic" yaml:"basic"`
}

type PhotosConfig struct {
	BucketURL     string `json:"bucketURL" yaml:"bucketURL"`
	PublicBaseURL string `json:"publicBaseURL" yaml:"publicBaseURL"`
	MaxBytes      int64  `json:"maxBytes" yaml:"maxBytes"`
	MinDim        int    `json:"minDim" yaml:"minDim"`
	MaxDim        int    `json:"maxDim" yaml:"maxDim"`
	Optimize      struct {
		Enabled bool `json:"enabled" yaml:"enabled"`
		MaxDim  int  `json:"maxDim" yaml:"maxDim"`
		Quality int  `json:"quality" yaml:"quality"`
	} `json:"optimize" yaml:"optimize"`
}

type GeocodingConfig struct {
	Enabled   bool          `json:"enabled" yaml:"enabled"`
	BaseURL   string        `json:"baseURL" yaml:"baseURL"`
	UserAgent string        `json:"userAgent" yaml:"userAgent"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`
	CacheSize int           `json:"cacheSize" yaml:"cacheSize"`
	CacheTTL  time.Duration `json:"cacheTTL" yaml:"cacheTTL"`
}

const (
	GuardModeSession     = "session"
	GuardModeMaintenance = "maintenance"
	GuardModeBasic       = "basic"

	AuthProviderLocal  = "local"
	AuthProviderGoTrue = "gotrue"
)

// LoadOptions permite a los tests aislarse del entorno real.
type LoadOptions struct {
	// SearchPaths donde buscar config.yaml. Vacío => ".", "config", "../config".
	SearchPaths []string
	// Environ reemplaza os.Environ.
	Environ func() []string
}

// Load lee defaults, archivo opcional y env, y valida el resultado.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(embedded(defaultsYAML), yaml.Parser()); err != nil {
		return nil, errors.Wrap(err, "load defaults")
	}

	paths := opts.SearchPaths
	if len(paths) == 0 {
		paths = []string{".", "config", filepath.Join("..", "config")}
	}
	for _, p := range paths {
		candidate := filepath.Join(p, configFileName)
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if err := k.Load(file.Provider(candidate), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read %s failed", candidate)
		}
		break
	}

	existing := k.Raw()
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:      EnvPrefix,
		EnvironFunc: environ,
		TransformFunc: func(key, v string) (string, any) {
			// PETGUARD_GUARD_MODE -> guard.mode, PETGUARD_AUTH_GOTRUE_ANON_KEY -> auth.gotrue.anonKey
			key = strings.TrimPrefix(key, EnvPrefix)
			return canonicalizeEnvKey(key, existing), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	cfg := new(Config)
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config failed")
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Guard.Mode = strings.ToLower(strings.TrimSpace(c.Guard.Mode))
	c.Auth.Provider = strings.ToLower(strings.TrimSpace(c.Auth.Provider))
	c.HTTP.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.HTTP.PublicBaseURL), "/")

	prefixes := make([]string, 0, len(c.Guard.ProtectedPrefixes))
	for _, p := range c.Guard.ProtectedPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	c.Guard.ProtectedPrefixes = prefixes
}

// Validate rechaza combinaciones que dejarían al guard en un estado ambiguo.
func (c *Config) Validate() error {
	switch c.Guard.Mode {
	case GuardModeSession:
	case GuardModeMaintenance:
		if c.Guard.Maintenance.RetryAfter <= 0 {
			return errors.New("guard.maintenance.retryAfter must be positive")
		}
	case GuardModeBasic:
		if c.Guard.Basic.Username == "" || c.Guard.Basic.Password == "" {
			return errors.New("guard.basic requires username and password")
		}
	default:
		return errors.Errorf("unknown guard mode: %q", c.Guard.Mode)
	}

	switch c.Auth.Provider {
	case AuthProviderLocal:
		if c.Auth.Local.AccessSecret == "" || c.Auth.Local.RefreshSecret == "" {
			return errors.New("auth.local requires accessSecret and refreshSecret")
		}
	case AuthProviderGoTrue:
		if c.Auth.GoTrue.URL == "" || c.Auth.GoTrue.AnonKey == "" {
			return errors.New("auth.gotrue requires url and anonKey")
		}
	default:
		return errors.Errorf("unknown auth provider: %q", c.Auth.Provider)
	}

	if c.Pets.DefaultMaxPets <= 0 {
		return errors.New("pets.defaultMaxPets must be positive")
	}
	if c.Photos.MinDim <= 0 || c.Photos.MaxDim < c.Photos.MinDim {
		return errors.New("photos dimension bounds are invalid")
	}
	return nil
}

// Addr devuelve la dirección de escucha.
func (c *Config) Addr() string {
	port := c.HTTP.Port
	if port <= 0 {
		port = 8080
	}
	return ":" + strconv.Itoa(port)
}

// embedded adapta bytes en memoria a koanf.Provider.
type embedded []byte

func (e embedded) ReadBytes() ([]byte, error) { return e, nil }

func (e embedded) Read() (map[string]any, error) {
	return nil, errors.New("embedded provider does not support Read()")
}

// canonicalizeEnvKey alinea el nombre de la variable con las keys existentes.
// Un tramo de la key puede ocupar varios segmentos separados por "_"
// (ANON_KEY -> anonKey), se elige el tramo más largo que coincida.
func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := make([]string, 0)
	for _, s := range strings.Split(strings.ToLower(rawKey), "_") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	canonical := make([]string, 0, len(segments))
	current := existing

	for i := 0; i < len(segments); {
		matched, next, width := findExistingSegment(current, segments[i:])
		if width == 0 {
			canonical = append(canonical, segments[i])
			current = nil
			i++
			continue
		}
		canonical = append(canonical, matched)
		current = next
		i += width
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segments []string) (matched string, next map[string]any, width int) {
	if len(current) == 0 {
		return "", nil, 0
	}

	for w := len(segments); w >= 1; w-- {
		needle := normalizeToken(strings.Join(segments[:w], ""))
		for key, value := range current {
			if normalizeToken(key) != needle {
				continue
			}
			child, _ := value.(map[string]any)
			return key, child, w
		}
	}
	return "", nil, 0
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
