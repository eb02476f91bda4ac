package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/curato/internal/corpus"
	"github.com/ppiankov/curato/internal/model"
	"github.com/ppiankov/curato/internal/ontology"
	"github.com/ppiankov/curato/internal/pipeline"
	"github.com/ppiankov/curato/internal/render"
	"github.com/ppiankov/curato/internal/worker"
)

var (
	outPath     string
	findTimeout time.Duration
	noCache     bool
)

// findCmd represents the find command
var findCmd = &cobra.Command{
	Use:   "find <ontology.yaml> <corpus>",
	Short: "Find statement candidates in one corpus",
	Long: `Find matches ontology lemmas and soft patterns in every sentence of a
corpus and proposes candidate statements.

The corpus is a local .txt (one sentence per line), .jsonl
({"text": ..., "offset": ...} per line) or .html file, or an http(s) URL.

Example:
  curato find go.yaml abstracts.txt
  curato find go.yaml abstracts.jsonl --format md --out candidates.md
  curato find go.yaml https://example.org/paper.html --workers 8`,
	Args: cobra.ExactArgs(2),
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)

	findCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")
	findCmd.Flags().DurationVar(&findTimeout, "timeout", 10*time.Minute, "overall timeout")
	findCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable evidence cache for repeated sentences")
	addRunFlags(findCmd)
}

// addRunFlags registers the flags shared by find and batch
func addRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("format", "json", "output format (json, md)")
	flags.Int("workers", 1, "sentence workers")
	flags.Bool("case-insensitive", false, "ASCII case-insensitive dictionary matching")
	flags.String("extra-pattern", "", "auxiliary regex with named groups")
	flags.Bool("dedupe", false, "collapse candidates with identical statement and evidence")
	flags.Float64("rps", 1, "requests per second per host for URL corpora")
}

// bindRunFlags points the shared config keys at cmd's flags. Both commands
// define the same flags, so binding happens when one of them runs.
func bindRunFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	for key, name := range map[string]string{
		"output.format":               "format",
		"concurrency.workers":         "workers",
		"extraction.case_insensitive": "case-insensitive",
		"extraction.extra_pattern":    "extra-pattern",
		"output.dedupe":               "dedupe",
		"fetch.requests_per_second":   "rps",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}

func runFind(cmd *cobra.Command, args []string) error {
	ontologyPath, source := args[0], args[1]

	if err := bindRunFlags(cmd); err != nil {
		return err
	}
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	logger := newLogger(cfg.Output.Verbose)

	ctx, cancel := context.WithTimeout(cmd.Context(), findTimeout)
	defer cancel()

	finder, err := newFinder(ontologyPath, cfg, logger)
	if err != nil {
		return err
	}

	fetcher, err := corpus.NewFetcher(cfg.Fetch, worker.NewLimiter(cfg.Fetch.RequestsPerSecond, cfg.Fetch.Burst), logger)
	if err != nil {
		return err
	}
	report, err := findSource(ctx, finder, fetcher, source, cfg)
	if err != nil {
		return err
	}

	if outPath != "" {
		if err := render.WriteFile(outPath, cfg.Output.Format, report); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		logger.Info("wrote report", "path", outPath)
	} else if err := render.Write(cmd.OutOrStdout(), cfg.Output.Format, report); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	render.Summary(os.Stderr, report)
	return nil
}

// newFinder loads the ontology and builds a finder from cfg
func newFinder(ontologyPath string, cfg *model.Config, logger *slog.Logger) (*pipeline.Finder, error) {
	onto, err := ontology.Load(ontologyPath)
	if err != nil {
		return nil, err
	}
	finder, err := pipeline.NewFromConfig(onto, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build finder: %w", err)
	}
	return finder, nil
}

// findSource reads one corpus, from disk or over HTTP, and runs finder on it
func findSource(ctx context.Context, finder *pipeline.Finder, fetcher *corpus.Fetcher, source string, cfg *model.Config) (*model.Report, error) {
	var (
		sentences model.Corpus
		err       error
	)
	if isURL(source) {
		sentences, err = fetcher.Corpus(ctx, source)
	} else {
		sentences, err = corpus.Open(source)
	}
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	res, err := finder.Run(ctx, sentences)
	if err != nil {
		return nil, fmt.Errorf("find failed: %w", err)
	}
	return render.NewReport(source, res.Candidates, res.Stats, cfg.Output.Dedupe), nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
