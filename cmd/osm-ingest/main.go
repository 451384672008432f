package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/klauspost/compress/gzip"

	appingest "github.com/mohammed-shakir/osm-ingest/internal/app/ingest"
	"github.com/mohammed-shakir/osm-ingest/internal/cache/extentstore"
	"github.com/mohammed-shakir/osm-ingest/internal/cache/redisstore"
	"github.com/mohammed-shakir/osm-ingest/internal/core/config"
	"github.com/mohammed-shakir/osm-ingest/internal/core/health"
	"github.com/mohammed-shakir/osm-ingest/internal/core/server"
	"github.com/mohammed-shakir/osm-ingest/internal/extent"
	"github.com/mohammed-shakir/osm-ingest/internal/ingest/jsonl"
	"github.com/mohammed-shakir/osm-ingest/internal/logger"
	h3mapper "github.com/mohammed-shakir/osm-ingest/internal/mapper/h3"
	"github.com/mohammed-shakir/osm-ingest/internal/metrics"
	"github.com/mohammed-shakir/osm-ingest/internal/osm"
	"github.com/mohammed-shakir/osm-ingest/pkg/publish/kafka"
)

var (
	Version   = "dev"
	Revision  = ""
	BuildDate = ""
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()

	file := flag.String("file", "", "JSON-lines input file (.jsonl, .ndjson, optionally .gz); stdin when empty")
	serve := flag.Bool("serve", false, "run the HTTP service instead of a one-shot ingestion")
	flag.StringVar(&cfg.Dataset, "dataset", cfg.Dataset, "dataset name")
	flag.BoolVar(&cfg.TaggedOnly, "tagged-only", cfg.TaggedOnly, "only deliver tagged nodes")
	flag.IntVar(&cfg.H3Res, "res", cfg.H3Res, "H3 resolution of the extent cover (0-15)")
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address with -serve")
	flag.Parse()

	// one-shot mode prints the summary on stdout
	logOut := io.Writer(os.Stderr)
	if *serve {
		logOut = os.Stdout
	}
	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Component: "osm-ingest",
	}, logOut)
	appLog := logger.NewSlog(&zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prov := metrics.Init(metrics.Config{
		Build: metrics.BuildInfo{Version: Version, Revision: Revision, BuildDate: BuildDate},
	})

	opts := appingest.Options{
		Logger:    appLog,
		Mapper:    h3mapper.New(cfg.H3MaxCells),
		Res:       cfg.H3Res,
		IndexSize: cfg.LocationCacheSize,
	}
	var checks []health.Check

	if cfg.ExtentStoreEnabled {
		cli, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Error("redis setup failed", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = cli.Close() }()
		opts.Store = extentstore.NewRedisStore(cli, cfg.ExtentTTL, cfg.CacheOpTimeout)
		checks = append(checks, health.Check{Name: "redis", Probe: cli.Ping})
	}

	pubCfg := kafka.FromEnv()
	if pubCfg.Enabled {
		prod, err := kafka.NewProducer(pubCfg)
		if err != nil {
			appLog.Error("kafka publisher setup failed", "brokers", pubCfg.Brokers, "err", err)
			return 1
		}
		pub := kafka.New(pubCfg, prod, kafka.Options{Logger: appLog, Register: prov.Registerer()})
		defer func() {
			if err := pub.Close(); err != nil {
				appLog.Error("kafka publisher close", "err", err)
			}
		}()
		opts.Sinks = append(opts.Sinks, pub)
	}

	svc := appingest.New(opts)

	appLog.Info("starting osm-ingest",
		"version", Version,
		"serve", *serve,
		"dataset", cfg.Dataset,
		"h3_res", cfg.H3Res,
		"extent_store", cfg.ExtentStoreEnabled,
		"publish", pubCfg.Enabled)

	if *serve {
		if err := server.Run(ctx, cfg, appLog, server.Deps{Service: svc, Metrics: prov.Handler(), Checks: checks}); err != nil {
			appLog.Error("server exited with error", "err", err)
			return 1
		}
		appLog.Info("server stopped")
		return 0
	}

	in, closeIn, err := openInput(*file)
	if err != nil {
		appLog.Error("open input failed", "file", *file, "err", err)
		return 1
	}
	defer closeIn()

	res, err := svc.Ingest(ctx, appingest.Request{Dataset: cfg.Dataset, TaggedOnly: cfg.TaggedOnly}, jsonl.NewReader(in))
	if err != nil {
		appLog.Error("ingest failed", "dataset", cfg.Dataset, "err", err)
		return 1
	}
	if err := printSummary(os.Stdout, res.Summary); err != nil {
		appLog.Error("write summary", "err", err)
		return 1
	}
	return 0
}

// openInput opens path, or stdin for "" and "-", decompressing .gz input.
func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	if f := osm.FormatFromPath(path); f != osm.FormatJSON {
		return nil, nil, fmt.Errorf("%s input is not supported, only JSON lines", f)
	}
	if strings.HasSuffix(strings.ToLower(path), ".bz2") {
		return nil, nil, fmt.Errorf("bzip2 input is not supported")
	}

	fh, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return fh, func() { _ = fh.Close() }, nil
	}
	zr, err := gzip.NewReader(fh)
	if err != nil {
		_ = fh.Close()
		return nil, nil, fmt.Errorf("gzip: %w", err)
	}
	return zr, func() { _ = zr.Close(); _ = fh.Close() }, nil
}

func printSummary(w io.Writer, s extent.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
