package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/nexusgraph/federation-gateway/internal/cache"
	"github.com/nexusgraph/federation-gateway/internal/eventbus"
	"github.com/nexusgraph/federation-gateway/internal/httptp"
	"github.com/nexusgraph/federation-gateway/internal/introspection"
	"github.com/nexusgraph/federation-gateway/internal/language"
	"github.com/nexusgraph/federation-gateway/internal/memcache"
	"github.com/nexusgraph/federation-gateway/internal/operation"
	"github.com/nexusgraph/federation-gateway/internal/otel"
	"github.com/nexusgraph/federation-gateway/internal/schema"
	"github.com/nexusgraph/federation-gateway/internal/server"
	"github.com/nexusgraph/federation-gateway/internal/subgraph"
)

const rootUsage = `gateway — federated GraphQL gateway

USAGE:
  gateway <command> [flags]

COMMANDS:
  serve            Run the HTTP (and graphql-transport-ws) gateway
  dump-schema      Print the composed supergraph SDL and exit
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -config <file>   Path to the gateway's YAML configuration (required)
  -addr <addr>     Override server.addr from the config file
`

const dumpSchemaUsage = `dump-schema FLAGS:
  -config <file>   Path to the gateway's YAML configuration (required)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("gateway", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer))
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd, cmdArgs := remaining[0], remaining[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs)
	case "dump-schema":
		return cmdDumpSchema(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Print(serveUsage)
	case "dump-schema":
		fmt.Print(dumpSchemaUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func cmdDumpSchema(args []string) error {
	fs := flag.NewFlagSet("dump-schema", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	configPath := fs.String("config", "", "path to gateway config")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, dumpSchemaUsage)
		return err
	}
	if *configPath == "" {
		fmt.Fprint(os.Stderr, dumpSchemaUsage)
		return fmt.Errorf("-config is required")
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	sch, err := buildSchema(cfg)
	if err != nil {
		return err
	}
	fmt.Print(schema.Render(sch))
	return nil
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	configPath := fs.String("config", "", "path to gateway config")
	addrOverride := fs.String("addr", "", "override server.addr")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}
	if *configPath == "" {
		fmt.Fprint(os.Stderr, serveUsage)
		return fmt.Errorf("-config is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *addrOverride != "" {
		cfg.Server.Addr = *addrOverride
	}

	sch, err := buildSchema(cfg)
	if err != nil {
		return err
	}
	if err := applySubgraphConfig(sch, cfg.Subgraphs); err != nil {
		return err
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	transport := httptp.New(
		httptp.WithH2C(cfg.Transport.H2C),
		httptp.WithMaxConnsPerHost(cfg.Transport.MaxConnsPerHost),
		httptp.WithIdleConnTimeout(cfg.Transport.IdleConnTimeout),
		httptp.WithRequestTimeout(cfg.Transport.RequestTimeout),
	)
	defer transport.Close()

	// No external cache backend is wired (§6.5 entity_caching.storage /
	// the doc cache backing automatic persisted queries are deployment
	// storage concerns the core leaves opaque); memcache.Store is the
	// in-process default for both.
	store := memcache.New(nil)

	retries, cacheTTLs := retriesAndCacheTTLs(sch, cfg.Subgraphs, cfg.Retry)
	resolver := subgraph.NewResolver(subgraph.Config{
		Schema:      sch,
		Transport:   transport,
		EntityCache: store,
		Retries:     retries,
		CacheTTL:    cacheTTLs,
	})

	var partialCache *cache.PartialCache
	if cfg.EntityCaching.Enabled {
		partialCache = cache.New(store, nil)
	}

	opts := []server.Option{
		server.WithTimeout(cfg.Server.Timeout),
		server.WithSubgraphTimeout(cfg.Server.SubgraphTimeout),
		server.WithIntrospection(cfg.Server.Introspection),
		server.WithGraphiQL(cfg.graphiql()),
		server.WithDocCache(store),
		server.WithOperationCache(operation.NewInMemoryCache()),
		server.WithComplexity(cfg.complexityPolicy()),
		server.WithTrustedDocuments(cfg.trustedDocumentsPolicy()),
	}
	if cfg.Server.Pretty {
		opts = append(opts, server.WithPretty())
	}
	if cfg.Server.MaxBodyBytes > 0 {
		opts = append(opts, server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes))
	}
	if len(cfg.Server.CORS.AllowedOrigins) > 0 {
		opts = append(opts, server.WithCORS(cfg.Server.CORS.AllowedOrigins...))
	}
	if partialCache != nil {
		opts = append(opts, server.WithPartialCache(partialCache))
	}

	h, err := server.New(resolver, sch, opts...)
	if err != nil {
		return fmt.Errorf("server init: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		if isWebsocketUpgrade(r) {
			h.ServeWS(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})

	log.Printf("federation gateway listening on %s", cfg.Server.Addr)
	return http.ListenAndServe(cfg.Server.Addr, mux)
}

func buildSchema(cfg *Config) (*schema.Schema, error) {
	if cfg.Schema.Path == "" {
		return nil, fmt.Errorf("schema.path is required")
	}
	src, err := os.ReadFile(cfg.Schema.Path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	doc, err := language.ParseSchema(cfg.Schema.Path, string(src))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	sch, err := schema.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	// Shape-building needs the introspection meta-types present in sch even
	// when introspection is disabled (server.New's doc comment) — the
	// extension always runs, and IntrospectionEnabled alone governs whether
	// __schema/__type queries are accepted.
	return introspection.ExtendSchema(sch), nil
}

func isWebsocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}
