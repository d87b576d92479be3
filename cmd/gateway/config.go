package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nexusgraph/federation-gateway/internal/operation"
	"github.com/nexusgraph/federation-gateway/internal/server"
	"github.com/nexusgraph/federation-gateway/internal/subgraph"
)

// Config is the gateway's deployment configuration (§6.5): a pre-composed
// supergraph SDL document plus the capability wiring the core schema can't
// express itself (per-subgraph transport, caching, retry budgets,
// complexity and trusted-document policy, telemetry).
type Config struct {
	Schema struct {
		Path string `yaml:"path"`
	} `yaml:"schema"`

	Server struct {
		Addr            string        `yaml:"addr"`
		Pretty          bool          `yaml:"pretty"`
		GraphiQL        *bool         `yaml:"graphiql"`
		Introspection   bool          `yaml:"introspection"`
		Timeout         time.Duration `yaml:"timeout"`
		SubgraphTimeout time.Duration `yaml:"subgraph_timeout"`
		MaxBodyBytes    int64         `yaml:"max_body_bytes"`
		CORS            struct {
			AllowedOrigins []string `yaml:"allowed_origins"`
		} `yaml:"cors"`
	} `yaml:"server"`

	Transport struct {
		H2C             bool          `yaml:"h2c"`
		MaxConnsPerHost int           `yaml:"max_conns_per_host"`
		IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
		RequestTimeout  time.Duration `yaml:"request_timeout"`
	} `yaml:"transport"`

	EntityCaching struct {
		Enabled bool          `yaml:"enabled"`
		TTL     time.Duration `yaml:"ttl"`
		Storage string        `yaml:"storage"` // only "memory" is implemented in-process
	} `yaml:"entity_caching"`

	Subgraphs map[string]SubgraphConfig `yaml:"subgraphs"`

	Retry *RetryConfig `yaml:"retry"`

	ComplexityControl struct {
		Mode          string `yaml:"mode"`
		MaxComplexity int    `yaml:"max_complexity"`
	} `yaml:"complexity_control"`

	TrustedDocuments struct {
		Enabled      bool   `yaml:"enabled"`
		Enforced     bool   `yaml:"enforced"`
		BypassHeader string `yaml:"bypass_header"`
	} `yaml:"trusted_documents"`

	Telemetry struct {
		ServiceName  string `yaml:"service_name"`
		OTLPEndpoint string `yaml:"otlp_endpoint"`
	} `yaml:"telemetry"`
}

// SubgraphConfig overrides/extends one subgraph's composed schema.Subgraph
// entry (§6.5 "subgraphs[name]").
type SubgraphConfig struct {
	URL            string             `yaml:"url"`
	WebsocketURL   string             `yaml:"websocket_url"`
	Headers        []HeaderRuleConfig `yaml:"headers"`
	Timeout        time.Duration      `yaml:"timeout"`
	Retry          *RetryConfig       `yaml:"retry"`
	EntityCacheTTL time.Duration      `yaml:"entity_cache_ttl"`
}

// HeaderRuleConfig is one entry of a subgraph's "headers[]" list.
type HeaderRuleConfig struct {
	Op       string `yaml:"op"` // forward | insert | remove | rename
	Name     string `yaml:"name"`
	RenameTo string `yaml:"rename_to"`
	Value    string `yaml:"value"`
}

// RetryConfig mirrors subgraph.RetryPolicy (§4.5.4).
type RetryConfig struct {
	MinPerSecond   float64       `yaml:"min_per_second"`
	TTL            time.Duration `yaml:"ttl"`
	RetryPercent   float64       `yaml:"retry_percent"`
	RetryMutations bool          `yaml:"retry_mutations"`
}

func (r *RetryConfig) policy() subgraph.RetryPolicy {
	if r == nil {
		return subgraph.RetryPolicy{}
	}
	return subgraph.RetryPolicy{
		MinPerSecond:   r.MinPerSecond,
		TTL:            r.TTL,
		RetryPercent:   r.RetryPercent,
		RetryMutations: r.RetryMutations,
	}
}

func loadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Server.Introspection = true
	cfg.Server.Timeout = 10 * time.Second
	cfg.Server.SubgraphTimeout = 5 * time.Second
	cfg.Transport.MaxConnsPerHost = 64
	cfg.Transport.IdleConnTimeout = 90 * time.Second
	cfg.Transport.RequestTimeout = 10 * time.Second
	cfg.Telemetry.ServiceName = "federation-gateway"
	return cfg
}

func (c *Config) graphiql() bool {
	if c.Server.GraphiQL == nil {
		return true
	}
	return *c.Server.GraphiQL
}

func (c *Config) complexityPolicy() operation.ComplexityPolicy {
	if c.ComplexityControl.Mode == "" {
		return operation.ComplexityPolicy{}
	}
	return operation.ComplexityPolicy{
		Mode:          operation.ComplexityMode(c.ComplexityControl.Mode),
		MaxComplexity: c.ComplexityControl.MaxComplexity,
	}
}

func (c *Config) trustedDocumentsPolicy() server.TrustedDocumentsPolicy {
	return server.TrustedDocumentsPolicy{
		Enabled:      c.TrustedDocuments.Enabled,
		Enforced:     c.TrustedDocuments.Enforced,
		BypassHeader: c.TrustedDocuments.BypassHeader,
	}
}
