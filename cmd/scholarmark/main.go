// Command scholarmark runs the writing backend from the command line: it
// executes a writing pipeline run described by a YAML request file and prints
// the progress events as SSE frames on stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"scholarmark/pkg/config"
	"scholarmark/pkg/llm/factory"
	"scholarmark/pkg/logx"
	"scholarmark/pkg/metrics"
	"scholarmark/pkg/store"
	"scholarmark/pkg/tokens"
	"scholarmark/pkg/writing"
)

// Version information - set by goreleaser via ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	var (
		configFile  = flag.String("config", "scholarmark.yaml", "Path to the config file")
		requestFile = flag.String("request", "", "Path to a YAML writing request file")
		showUsage   = flag.Bool("usage", false, "Print recorded token usage per model and exit")
		showVersion = flag.Bool("version", false, "Show version information")
		debug       = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("scholarmark %s (%s)\n", version, commit)
		os.Exit(0)
	}

	logx.SetDebug(*debug)
	if *showUsage {
		os.Exit(runUsage(*configFile))
	}
	os.Exit(run(*configFile, *requestFile))
}

// runUsage prints aggregated token and cost totals recorded in Prometheus.
func runUsage(configFile string) int {
	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if cfg.Metrics.PrometheusURL == "" {
		fmt.Fprintln(os.Stderr, "metrics.prometheus_url must be set to query usage")
		return 2
	}

	qs, err := metrics.NewQueryService(cfg.Metrics.PrometheusURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create usage query service: %v\n", err)
		return 1
	}

	usage, err := qs.UsageByModel(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to query usage: %v\n", err)
		return 1
	}
	if len(usage) == 0 {
		fmt.Println("No recorded usage.")
		return 0
	}
	for name, summary := range usage {
		fmt.Printf("%s: %d input + %d output tokens, $%.4f\n",
			name, summary.InputTokens, summary.OutputTokens, summary.TotalCost)
	}
	return 0
}

// run contains the main application logic and returns an exit code. This
// allows defers to execute before os.Exit is called.
func run(configFile, requestFile string) int {
	if requestFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: scholarmark -request <request.yaml> [-config <config.yaml>]")
		return 2
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	if err := unlockSecrets(cfg.SecretsFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unlock secrets: %v\n", err)
		return 1
	}

	req, err := loadRequest(requestFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load request: %v\n", err)
		return 1
	}

	model := cfg.Models.Default
	if req.DeepWrite {
		model = cfg.Models.DeepWrite
	}
	client, err := factory.NewClientForModel(cfg, model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create provider client: %v\n", err)
		return 1
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open source store: %v\n", err)
		return 1
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	annotations, err := loadAnnotations(ctx, st, req.AnnotationIDs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load annotations: %v\n", err)
		return 1
	}

	var recorder metrics.Recorder = metrics.NopRecorder{}
	if cfg.Metrics.Enabled {
		recorder = metrics.NewPrometheusRecorder()
	}

	counter, err := tokens.NewCounter(model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: token counter unavailable, using estimates: %v\n", err)
	}

	pipeline := writing.NewPipeline(client, cfg.Models, counter, recorder)
	printer := &eventPrinter{}
	pipeline.Run(ctx, *req, annotations, printer.print)
	if printer.failed {
		return 1
	}
	return 0
}

// unlockSecrets prompts for a password and decrypts the secrets file when one
// is configured and present. A missing file is fine: keys then come from the
// environment.
func unlockSecrets(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	fmt.Fprintf(os.Stderr, "Password for %s: ", path)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	return config.LoadSecretsFile(path, string(password))
}

func loadRequest(path string) (*writing.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}
	req := &writing.Request{}
	if err := yaml.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("parse request file: %w", err)
	}
	if req.Topic == "" {
		return nil, fmt.Errorf("request must set a topic")
	}
	return req, nil
}

// loadAnnotations resolves the request's annotation ids into pipeline sources.
// Unknown ids are skipped; the pipeline handles an empty set.
func loadAnnotations(ctx context.Context, st *store.Store, ids []string) ([]writing.AnnotationSource, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, filenames, err := st.AnnotationsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	sources := make([]writing.AnnotationSource, 0, len(rows))
	for i := range rows {
		src := writing.AnnotationSource{
			ID:               rows[i].ID,
			HighlightedText:  rows[i].HighlightedText,
			Note:             rows[i].Note,
			Category:         rows[i].Category,
			DocumentFilename: filenames[i],
		}
		if rows[i].CitationAuthor != "" || rows[i].CitationTitle != "" {
			src.CitationData = &writing.CitationData{
				Author: rows[i].CitationAuthor,
				Title:  rows[i].CitationTitle,
				Date:   rows[i].CitationDate,
			}
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// eventPrinter writes pipeline events to stdout as SSE frames and remembers
// whether the run terminated with an error, so the process can exit non-zero.
type eventPrinter struct {
	failed bool
}

func (p *eventPrinter) print(ev writing.Event) {
	if ev.Type == writing.EventError {
		p.failed = true
	}
	data, err := json.Marshal(ev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode event: %v\n", err)
		return
	}
	fmt.Printf("event: %s\ndata: %s\n\n", ev.Type, data)
}
