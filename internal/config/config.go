// Package config loads application configuration and initializes logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Locality LocalityConfig `yaml:"locality" mapstructure:"locality"`
	Ingest   IngestConfig   `yaml:"ingest" mapstructure:"ingest"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Sources  SourcesConfig  `yaml:"sources" mapstructure:"sources"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// SourcesConfig lists the upstream pages each scraped source walks.
type SourcesConfig struct {
	QldGovPages             []string `yaml:"qld_gov_pages" mapstructure:"qld_gov_pages"`
	CommunityDirectoryPages []string `yaml:"community_directory_pages" mapstructure:"community_directory_pages"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// LocalityConfig scopes the directory to one geographic region. The whole
// system is repointable at a different region through this block alone.
type LocalityConfig struct {
	CanonicalName  string   `yaml:"canonical_name" mapstructure:"canonical_name"`
	Abbreviations  []string `yaml:"abbreviations" mapstructure:"abbreviations"`
	Postcodes      []string `yaml:"postcodes" mapstructure:"postcodes"`
	RegionKeywords []string `yaml:"region_keywords" mapstructure:"region_keywords"`
	DefaultSuburb  string   `yaml:"default_suburb" mapstructure:"default_suburb"`
	DefaultState   string   `yaml:"default_state" mapstructure:"default_state"`
}

// PrimaryPostcode returns the locality's principal postcode, used as the
// default when a candidate has none.
func (l LocalityConfig) PrimaryPostcode() string {
	if len(l.Postcodes) == 0 {
		return ""
	}
	return l.Postcodes[0]
}

// ValidPostcode reports whether pc is one of the locality's postcodes.
func (l LocalityConfig) ValidPostcode(pc string) bool {
	for _, p := range l.Postcodes {
		if p == pc {
			return true
		}
	}
	return false
}

// Validate checks the locality block for programmer errors. Called once at
// job startup so a malformed config fails before any candidate is processed.
func (l LocalityConfig) Validate() error {
	if strings.TrimSpace(l.CanonicalName) == "" {
		return eris.New("config: locality canonical_name is required")
	}
	if len(l.Postcodes) == 0 {
		return eris.New("config: locality needs at least one postcode")
	}
	for _, pc := range l.Postcodes {
		if len(pc) != 4 || strings.Trim(pc, "0123456789") != "" {
			return eris.Errorf("config: invalid locality postcode %q", pc)
		}
	}
	if strings.TrimSpace(l.DefaultSuburb) == "" {
		return eris.New("config: locality default_suburb is required")
	}
	if strings.TrimSpace(l.DefaultState) == "" {
		return eris.New("config: locality default_state is required")
	}
	return nil
}

// IngestConfig configures ingestion batch behavior.
type IngestConfig struct {
	UpsertTimeoutSecs    int     `yaml:"upsert_timeout_secs" mapstructure:"upsert_timeout_secs"`
	RequestsPerSecond    float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	MaxConcurrentSources int     `yaml:"max_concurrent_sources" mapstructure:"max_concurrent_sources"`
}

// FetchConfig configures the page fetcher.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	Retries     int    `yaml:"retries" mapstructure:"retries"`
}

// ServerConfig configures the directory API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MISA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "directory.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("ingest.upsert_timeout_secs", 10)
	v.SetDefault("ingest.requests_per_second", 1.0)
	v.SetDefault("ingest.max_concurrent_sources", 3)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.retries", 2)
	v.SetDefault("fetch.user_agent", "MountIsaDirectoryBot/1.0 (+https://mountisaservices.org.au)")
	v.SetDefault("locality.canonical_name", "Mount Isa")
	v.SetDefault("locality.abbreviations", []string{"mt isa", "the isa"})
	v.SetDefault("locality.postcodes", []string{"4825"})
	v.SetDefault("locality.region_keywords", []string{"north west queensland", "gulf country", "kalkadoon"})
	v.SetDefault("locality.default_suburb", "Mount Isa")
	v.SetDefault("locality.default_state", "QLD")
	v.SetDefault("sources.qld_gov_pages", []string{
		"https://www.qld.gov.au/services/results?location=mount-isa",
	})
	v.SetDefault("sources.community_directory_pages", []string{
		"https://www.mycommunitydirectory.com.au/Queensland/Mount_Isa",
	})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Locality.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
