package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/curato/internal/corpus"
	"github.com/ppiankov/curato/internal/model"
	"github.com/ppiankov/curato/internal/render"
	"github.com/ppiankov/curato/internal/worker"
)

var (
	outputDir    string
	batchTimeout time.Duration
	sources      int
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <ontology.yaml> <sources-file>",
	Short: "Find candidates in many corpora in parallel",
	Long: `Batch reads corpus paths or URLs from a file (one per line, # comments
allowed), processes several at once and writes one report per source.

Example:
  curato batch go.yaml sources.txt
  curato batch go.yaml sources.txt --sources 8 --output-dir ./reports --format md`,
	Args: cobra.ExactArgs(2),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./curato-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().IntVar(&sources, "sources", 4, "corpora processed at once")
	_ = viper.BindPFlag("concurrency.sources", batchCmd.Flags().Lookup("sources"))
	addRunFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ontologyPath, file := args[0], args[1]

	if err := bindRunFlags(cmd); err != nil {
		return err
	}
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Output.Verbose)

	list, err := readSources(file)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	finder, err := newFinder(ontologyPath, cfg, logger)
	if err != nil {
		return err
	}
	fetcher, err := corpus.NewFetcher(cfg.Fetch, worker.NewLimiter(cfg.Fetch.RequestsPerSecond, cfg.Fetch.Burst), logger)
	if err != nil {
		return err
	}

	logger.Info("batch started", "sources", len(list), "parallel", cfg.Concurrency.Sources, "output_dir", outputDir)

	var failures atomic.Int32
	var totals batchTotals
	ext := "." + render.FormatJSON
	if cfg.Output.Format == render.FormatMarkdown || cfg.Output.Format == "markdown" {
		ext = "." + render.FormatMarkdown
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency.Sources)
	for i, source := range list {
		g.Go(func() error {
			report, err := findSource(gctx, finder, fetcher, source, cfg)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failures.Add(1)
				logger.Error("source failed", "source", source, "error", err)
				return nil
			}

			path := filepath.Join(outputDir, fmt.Sprintf("%03d-%s%s", i+1, sanitizeFilename(source), ext))
			if err := render.WriteFile(path, cfg.Output.Format, report); err != nil {
				failures.Add(1)
				logger.Error("write report failed", "source", source, "error", err)
				return nil
			}
			totals.add(report.Stats)
			render.Summary(os.Stderr, report)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("batch aborted: %w", err)
	}

	failed := int(failures.Load())
	sum := totals.get()
	logger.Info("batch complete", "total", len(list), "succeeded", len(list)-failed, "failed", failed,
		"sentences", sum.Sentences, "evidences", sum.Evidences, "candidates", sum.Candidates)
	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(list))
	}
	return nil
}

// batchTotals sums the stats of the sources that produced a report
type batchTotals struct {
	mu    sync.Mutex
	stats model.Stats
}

func (b *batchTotals) add(s model.Stats) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.Add(s)
}

func (b *batchTotals) get() model.Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// readSources returns the non-blank, non-comment lines of path
func readSources(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources: %w", err)
	}
	defer func() { _ = f.Close() }()

	var list []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		list = append(list, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}
	return list, nil
}

// sanitizeFilename turns a path or URL into a short file name
func sanitizeFilename(s string) string {
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimSuffix(s, filepath.Ext(s))

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_.")
	if len(out) > 100 {
		out = out[:100]
	}
	if out == "" {
		out = "source"
	}
	return out
}
