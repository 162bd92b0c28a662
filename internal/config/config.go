package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/efebarandurmaz/coupler/internal/depgraph"
	"github.com/efebarandurmaz/coupler/internal/qualitygate"
	"github.com/efebarandurmaz/coupler/internal/secrets"
)

// Config holds all application configuration.
type Config struct {
	Analysis AnalysisConfig         `mapstructure:"analysis"`
	Gates    qualitygate.GateConfig `mapstructure:"gates"`
	Graph    GraphConfig            `mapstructure:"graph"`
	Vector   VectorConfig           `mapstructure:"vector"`
	Temporal TemporalConfig         `mapstructure:"temporal"`
	Tracing  TracingConfig          `mapstructure:"tracing"`
	Server   ServerConfig           `mapstructure:"server"`
	Snapshot SnapshotConfig         `mapstructure:"snapshot"`
	Log      LogConfig              `mapstructure:"log"`
	Secrets  secrets.Config         `mapstructure:"secrets"`
}

// AnalysisConfig tunes the coupling analysis.
type AnalysisConfig struct {
	HubPercentile  float64 `mapstructure:"hub_percentile"`
	TopN           int     `mapstructure:"top_n"`
	SampleSize     int     `mapstructure:"sample_size"`
	MetaPrefix     string  `mapstructure:"meta_prefix"`
	DefaultVariant string  `mapstructure:"default_variant"`
}

// Options converts the analysis section into depgraph options.
func (a AnalysisConfig) Options() depgraph.Options {
	return depgraph.Options{
		HubPercentile:  a.HubPercentile,
		TopN:           a.TopN,
		SampleSize:     a.SampleSize,
		MetaNodePrefix: a.MetaPrefix,
	}
}

type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type VectorConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Collection string `mapstructure:"collection"`
}

type TemporalConfig struct {
	Host      string `mapstructure:"host"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type SnapshotConfig struct {
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("analysis.hub_percentile", depgraph.DefaultHubPercentile)
	v.SetDefault("analysis.top_n", depgraph.DefaultTopN)
	v.SetDefault("analysis.sample_size", depgraph.DefaultSampleSize)
	v.SetDefault("analysis.meta_prefix", depgraph.DefaultMetaNodePrefix)
	v.SetDefault("analysis.default_variant", "unknown")

	gates := qualitygate.DefaultConfig()
	v.SetDefault("gates.enabled", gates.Enabled)
	v.SetDefault("gates.max_coupling_score", gates.MaxCouplingScore)
	v.SetDefault("gates.coupling_severity", gates.CouplingSeverity)
	v.SetDefault("gates.max_density", gates.MaxDensity)
	v.SetDefault("gates.density_severity", gates.DensitySeverity)
	v.SetDefault("gates.max_circular_pairs", gates.MaxCircularPairs)
	v.SetDefault("gates.circular_severity", gates.CircularSeverity)
	v.SetDefault("gates.max_hub_count", gates.MaxHubCount)
	v.SetDefault("gates.hub_severity", gates.HubSeverity)
	v.SetDefault("gates.max_degree", gates.MaxDegree)
	v.SetDefault("gates.degree_severity", gates.DegreeSeverity)

	v.SetDefault("graph.uri", "neo4j://localhost:7687")
	v.SetDefault("graph.username", "neo4j")
	v.SetDefault("vector.host", "localhost")
	v.SetDefault("vector.port", 6334)
	v.SetDefault("vector.collection", "coupler_variants")
	v.SetDefault("temporal.host", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "coupler-analysis")
	v.SetDefault("tracing.service_name", "coupler")
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("snapshot.dir", ".coupler")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	sec := secrets.DefaultConfig()
	v.SetDefault("secrets.provider", sec.Provider)
	v.SetDefault("secrets.env_prefix", sec.EnvPrefix)
	v.SetDefault("secrets.file", "")
	v.SetDefault("secrets.vault.address", "")
	v.SetDefault("secrets.vault.token", "")
	v.SetDefault("secrets.vault.mount_path", "secret")
	v.SetDefault("secrets.vault.secret_path", "coupler")
	v.SetDefault("secrets.vault.timeout", "10s")
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if p := c.Analysis.HubPercentile; p <= 0 || p > 1 {
		warnings = append(warnings, fmt.Sprintf("analysis hub_percentile %.2f is outside (0, 1]; using %.2f", p, depgraph.DefaultHubPercentile))
	}
	if c.Analysis.TopN <= 0 {
		warnings = append(warnings, fmt.Sprintf("analysis top_n %d is not positive; using %d", c.Analysis.TopN, depgraph.DefaultTopN))
	}
	if c.Analysis.SampleSize <= 0 {
		warnings = append(warnings, fmt.Sprintf("analysis sample_size %d is not positive; using %d", c.Analysis.SampleSize, depgraph.DefaultSampleSize))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		warnings = append(warnings, fmt.Sprintf("log format %q is not one of text, json", c.Log.Format))
	}
	switch c.Secrets.Provider {
	case "", "env", "file", "vault":
	default:
		warnings = append(warnings, fmt.Sprintf("secrets provider %q is not one of env, file, vault", c.Secrets.Provider))
	}
	warnings = append(warnings, c.Gates.Validate()...)

	return warnings
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg, _ := load(viper.New(), "")
	return cfg
}

// Load reads configuration from file and environment. An empty path or a
// missing file yields defaults overlaid with COUPLER_* environment values.
func Load(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix("COUPLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}
