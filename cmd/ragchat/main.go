package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ragchat/internal/config"
	"ragchat/internal/service"
	"ragchat/internal/session"
	"ragchat/internal/summarizer"
	"ragchat/internal/telemetry"
	"ragchat/internal/tui"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	exitSetup           = 1
	exitConfigNotFound  = 2
	exitConfigMalformed = 3
)

// exitError carries the process exit code of a failure that was already
// reported to the user.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

type options struct {
	configPath string
	tui        bool
	verbose    bool
}

func main() {
	_ = godotenv.Load()

	err := newRootCmd(os.Stdin, os.Stdout).ExecuteContext(context.Background())
	if err == nil {
		return
	}
	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(exitSetup)
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "ragchat",
		Short:         "Question-answering chatbot over a local knowledge file",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			log.SetFlags(log.LstdFlags | log.Lmsgprefix)
			log.SetPrefix("ragchat: ")
			if opts.verbose {
				log.SetOutput(os.Stderr)
			} else {
				log.SetOutput(io.Discard)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), opts, in, out)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "path to the JSON or YAML config file")
	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "write diagnostic logs to stderr")
	root.Flags().BoolVar(&opts.tui, "tui", false, "use the full-screen chat view")

	chat := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive question-and-answer session (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), opts, in, out)
		},
	}
	chat.Flags().BoolVar(&opts.tui, "tui", false, "use the full-screen chat view")

	index := &cobra.Command{
		Use:   "index",
		Short: "Load and index the knowledge file, then print statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd.Context(), opts, out)
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file to the --config path",
		RunE: func(*cobra.Command, []string) error {
			return runInit(opts.configPath, force, out)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(out, "ragchat %s\n", version)
		},
	}

	root.AddCommand(chat, index, initCmd, versionCmd)
	return root
}

func runChat(ctx context.Context, opts *options, in io.Reader, out io.Writer) error {
	p := session.NewPrinter(out)
	p.Banner()

	cfg, err := loadConfig(opts.configPath, p)
	if err != nil {
		return err
	}
	p.OK("Konfigurasi berhasil dimuat")

	flush := initTelemetry(cfg, opts.verbose)
	defer flush()

	var sum *summarizer.FrequencySummarizer
	if cfg.UI.ShowSummary {
		sum = summarizer.NewFrequencySummarizer()
	}
	bot, err := setup(ctx, cfg, sum, p)
	if err != nil {
		return err
	}
	defer bot.Close()

	if bot.Mode == service.ModeRAG {
		p.OK("RAG system berhasil diinisialisasi")
	} else {
		p.Warning(bot.Warning)
		p.Warning("[Warning] RAG system tidak tersedia, menggunakan LLM saja")
	}
	if bot.Summary != "" {
		fmt.Fprintf(out, "\n%s\n", bot.Summary)
	}

	if opts.tui || cfg.UI.Mode == "tui" {
		status := fmt.Sprintf("mode: %s", bot.Mode)
		m := tui.New(ctx, bot.Answerer, bot.Summary, status)
		if _, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run(); err != nil {
			log.Printf("tui: %v", err)
			return &exitError{code: exitSetup, err: err}
		}
		return nil
	}
	return session.New(in, out, bot.Answerer).Run(ctx)
}

func runIndex(ctx context.Context, opts *options, out io.Writer) error {
	p := session.NewPrinter(out)
	cfg, err := loadConfig(opts.configPath, p)
	if err != nil {
		return err
	}
	flush := initTelemetry(cfg, opts.verbose)
	defer flush()

	bot, err := setup(ctx, cfg, summarizer.NewFrequencySummarizer(), p)
	if err != nil {
		return err
	}
	defer bot.Close()

	if bot.Mode == service.ModePlain {
		p.Warning(bot.Warning)
		return nil
	}
	fmt.Fprintf(out, "knowledge file: %s\n", cfg.Data.KnowledgeFile)
	fmt.Fprintf(out, "splitter:       %s (size %d, overlap %d)\n", cfg.RAG.Splitter, cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	fmt.Fprintf(out, "embedder:       %s\n", cfg.RAG.Embedder)
	fmt.Fprintf(out, "vector store:   %s\n", cfg.RAG.VectorStore)
	fmt.Fprintf(out, "chunks:         %d\n", bot.Chunks)
	fmt.Fprintf(out, "\n%s\n", bot.Summary)
	return nil
}

func runInit(path string, force bool, out io.Writer) error {
	p := session.NewPrinter(out)
	if _, err := os.Stat(path); err == nil && !force {
		err := fmt.Errorf("%s already exists (use --force to overwrite)", path)
		p.Fatal(fmt.Sprintf("[Error]: %s", err))
		return &exitError{code: exitSetup, err: err}
	}
	if err := config.Save(path, config.Starter()); err != nil {
		p.Fatal(fmt.Sprintf("[Error]: %s", err))
		return &exitError{code: exitSetup, err: err}
	}
	p.OK(fmt.Sprintf("%s dibuat; isi openai.api_key atau set OPENAI_API_KEY", path))
	return nil
}

// loadConfig reports configuration failures with their fixed messages and
// exit codes.
func loadConfig(path string, p *session.Printer) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	log.Printf("config: %v", err)
	name := filepath.Base(path)
	var perr *config.ParseError
	var verr *config.ValidationError
	switch {
	case errors.Is(err, config.ErrNotFound):
		p.Fatal(fmt.Sprintf("[Error] %s tidak ditemukan!", name))
		return nil, &exitError{code: exitConfigNotFound, err: err}
	case errors.As(err, &perr):
		p.Fatal(fmt.Sprintf("[Error] Format %s tidak valid!", name))
		return nil, &exitError{code: exitConfigMalformed, err: err}
	case errors.As(err, &verr):
		p.Fatal(fmt.Sprintf("[Error] Format %s tidak valid! (%s)", name, verr.Error()))
		return nil, &exitError{code: exitConfigMalformed, err: err}
	default:
		p.Fatal(fmt.Sprintf("[Error]: %s", err))
		return nil, &exitError{code: exitSetup, err: err}
	}
}

func setup(ctx context.Context, cfg *config.Config, sum *summarizer.FrequencySummarizer, p *session.Printer) (*service.Bot, error) {
	ctx, span := telemetry.StartTransaction(ctx, "setup", "chat.setup")
	bot, err := assemble(ctx, cfg, sum)
	span.End(err)
	if err != nil {
		telemetry.CaptureError(ctx, err)
		p.Fatal(fmt.Sprintf("[Error]: %s", err))
		return nil, &exitError{code: exitSetup, err: err}
	}
	return bot, nil
}

func assemble(ctx context.Context, cfg *config.Config, sum *summarizer.FrequencySummarizer) (*service.Bot, error) {
	comps, err := buildComponents(cfg)
	if err != nil {
		return nil, err
	}
	if sum != nil {
		comps.Summarizer = sum
	}
	bot, err := service.Setup(ctx, cfg, comps)
	if err != nil {
		comps.Index.Close()
		return nil, err
	}
	return bot, nil
}

func initTelemetry(cfg *config.Config, verbose bool) func() {
	flush, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.Telemetry.SentryDSN,
		Environment:      cfg.Telemetry.Environment,
		Release:          "ragchat@" + version,
		TracesSampleRate: cfg.Telemetry.TracesSampleRate,
		Debug:            verbose,
	})
	if err != nil {
		log.Printf("telemetry disabled: %v", err)
		return func() {}
	}
	return flush
}
