package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v2"

	"yashubustudio/bullyscan/report"
	"yashubustudio/bullyscan/screening"
)

type cliOptions struct {
	configPath   string
	inputPath    string
	feedURL      string
	text         string
	outputPath   string
	outputDir    string
	detailedPath string
	reportPath   string
	sortKey      string
	columns      screening.ColumnOptions
	stdout       bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		log.Fatalf("bullyscan-cli: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("bullyscan-cli: %v", err)
	}
}

func parseFlags() (cliOptions, error) {
	var opts cliOptions
	flag.StringVar(&opts.configPath, "config", "", "Path to config.yaml (default: ./config.yaml)")
	flag.StringVar(&opts.inputPath, "input", "", "CSV/TSV/text file containing comments")
	flag.StringVar(&opts.feedURL, "feed", "", "RSS or Atom feed URL to read comments from")
	flag.StringVar(&opts.text, "text", "", "Comments to classify directly, one per line")
	flag.StringVar(&opts.outputPath, "output", "", "CSV file to write results (default uses --output-dir/result_*.csv)")
	flag.StringVar(&opts.outputDir, "output-dir", "csv", "Directory where result CSVs are written when --output is omitted")
	flag.StringVar(&opts.detailedPath, "detailed", "", "Optional CSV file for results with comment metadata")
	flag.StringVar(&opts.reportPath, "report", "", "Optional PDF report path")
	flag.StringVar(&opts.sortKey, "sort", string(screening.SortInput), "Result order: input, confidence, label, author, likes")
	flag.StringVar(&opts.columns.Comment, "comment-column", "", "Column name or #index for the comment text")
	flag.StringVar(&opts.columns.Author, "author-column", "", "Column name or #index for the comment author")
	flag.StringVar(&opts.columns.Timestamp, "timestamp-column", "", "Column name or #index for the comment time")
	flag.StringVar(&opts.columns.Likes, "likes-column", "", "Column name or #index for the like count")
	flag.BoolVar(&opts.stdout, "stdout", false, "Print a result preview to STDOUT")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s (--input FILE | --feed URL | --text TEXT) [options]\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintln(flag.CommandLine.Output(), "Ctrl-C stops classification and saves the finished rows as <output>.partial.csv.")
		fmt.Fprintln(flag.CommandLine.Output())
		flag.PrintDefaults()
	}
	flag.Parse()

	opts.configPath = strings.TrimSpace(opts.configPath)
	opts.inputPath = strings.TrimSpace(opts.inputPath)
	opts.feedURL = strings.TrimSpace(opts.feedURL)
	opts.outputPath = strings.TrimSpace(opts.outputPath)
	opts.outputDir = strings.TrimSpace(opts.outputDir)
	opts.reportPath = strings.TrimSpace(opts.reportPath)

	sources := 0
	for _, v := range []string{opts.inputPath, opts.feedURL, strings.TrimSpace(opts.text)} {
		if v != "" {
			sources++
		}
	}
	if sources != 1 {
		flag.Usage()
		return opts, errors.New("exactly one of --input, --feed or --text is required")
	}
	return opts, nil
}

func run(opts cliOptions) error {
	cfg, err := screening.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := log.New(os.Stderr, "", log.LstdFlags)
	registry := screening.NewRegistry(cfg, logger)
	defer registry.Close()

	source, query := pickSource(opts)
	records, err := source.Fetch(ctx, query)
	if err != nil {
		return fmt.Errorf("read comments: %w", err)
	}
	if len(records) == 0 {
		return errors.New("no comments to classify")
	}

	service, err := registry.Service(ctx)
	if err != nil {
		return fmt.Errorf("load models: %w", err)
	}
	table, err := classify(ctx, service, records)
	if err != nil {
		if errors.Is(err, screening.ErrCancelled) && len(table) > 0 {
			path, werr := savePartial(opts, table)
			if werr != nil {
				logger.Printf("[ERROR] partial results not saved: %v", werr)
			} else {
				fmt.Printf("Partial results (%d of %d comments) saved to %s\n", len(table), len(records), path)
			}
		}
		return fmt.Errorf("classify: %w", err)
	}
	table = table.SortBy(screening.SortKey(opts.sortKey))

	outputPath, err := resolveOutputPath(opts.outputPath, opts.outputDir)
	if err != nil {
		return err
	}
	if err := writeCSV(outputPath, table, screening.WriteResultsCSV); err != nil {
		return err
	}
	fmt.Printf("Results saved to %s\n", outputPath)
	if opts.detailedPath != "" {
		if err := writeCSV(opts.detailedPath, table, screening.WriteDetailedCSV); err != nil {
			return err
		}
		fmt.Printf("Detailed results saved to %s\n", opts.detailedPath)
	}

	if opts.reportPath != "" {
		if err := buildReport(ctx, registry, cfg, logger, table, opts.reportPath); err != nil {
			return err
		}
		fmt.Printf("Report saved to %s\n", opts.reportPath)
	}

	if opts.stdout {
		printSummary(table)
	}
	return nil
}

func pickSource(opts cliOptions) (screening.Source, string) {
	switch {
	case opts.inputPath != "":
		return screening.CSVSource{Columns: opts.columns}, opts.inputPath
	case opts.feedURL != "":
		return screening.NewFeedSource(nil), opts.feedURL
	default:
		return screening.TextSource{}, opts.text
	}
}

// classify runs the batch with a progress bar on stderr.
func classify(ctx context.Context, service *screening.Service, records []screening.CommentRecord) (screening.ResultTable, error) {
	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("classifying"),
		progressbar.OptionSetRenderBlankState(true),
	)
	table, err := service.ClassifyBatch(ctx, records, func(done, _ int) {
		_ = bar.Set(done)
	})
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)
	return table, err
}

func buildReport(ctx context.Context, registry *screening.Registry, cfg screening.Config, logger *log.Logger, table screening.ResultTable, path string) error {
	analyzer, err := registry.Analyzer(ctx)
	if err != nil {
		return fmt.Errorf("load analytics: %w", err)
	}
	summary, err := analyzer.Summarize(ctx, table)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	renderer, err := report.NewPlotRenderer(cfg.Report.MaxCloudWords)
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	builder := &report.Builder{
		Renderer:              renderer,
		Logger:                logger,
		LogoPath:              cfg.Report.LogoPath,
		ModelID:               registry.ModelID(),
		CyberbullyingCloudMin: cfg.Report.CyberbullyingCloudMin,
	}
	if _, err := builder.Build(ctx, table, summary, path); err != nil {
		return fmt.Errorf("build report: %w", err)
	}
	return nil
}

// savePartial writes the rows finished before cancellation next to the
// regular output, with ".partial" before the extension.
func savePartial(opts cliOptions, table screening.ResultTable) (string, error) {
	path, err := resolveOutputPath(opts.outputPath, opts.outputDir)
	if err != nil {
		return "", err
	}
	ext := filepath.Ext(path)
	path = strings.TrimSuffix(path, ext) + ".partial" + ext
	if err := writeCSV(path, table.SortBy(screening.SortKey(opts.sortKey)), screening.WriteResultsCSV); err != nil {
		return "", err
	}
	return path, nil
}

func resolveOutputPath(path, dir string) (string, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return absPath, nil
	}
	if dir == "" {
		dir = "csv"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename := fmt.Sprintf("result_%s.csv", time.Now().Format("20060102150405"))
	return filepath.Join(absDir, filename), nil
}

func writeCSV(path string, table screening.ResultTable, write func(w io.Writer, table screening.ResultTable) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	if err := write(f, table); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close result file: %w", err)
	}
	return nil
}

func printSummary(table screening.ResultTable) {
	fmt.Println()
	fmt.Println("==== Result preview ====")
	for i, row := range table {
		label, conf := row.Flatten()
		fmt.Printf("%d. %s\n", i+1, summarizeRecord(row.Record))
		fmt.Printf("    %s (%.2f%%)\n", label, conf)
	}
	normal, flagged, failed := table.Counts()
	fmt.Printf("\n%d normal, %d cyberbullying, %d errors\n", normal, flagged, failed)
}

func summarizeRecord(rec screening.CommentRecord) string {
	text := strings.TrimSpace(rec.Text)
	if text == "" {
		return "(empty comment)"
	}
	runeText := []rune(text)
	if len(runeText) > 60 {
		text = string(runeText[:60]) + "…"
	}
	if rec.Author != "" {
		return "@" + rec.Author + ": " + text
	}
	return text
}
