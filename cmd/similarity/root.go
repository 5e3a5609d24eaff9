package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"similarity-checker/internal/app"
	"similarity-checker/internal/config"
	"similarity-checker/internal/logger"
	"similarity-checker/internal/queue"
	"similarity-checker/internal/similarity"
)

const missingKeyMessage = "API key is missing.  Make sure to set the OPENAI_API_KEY environment variable."

// comparerFactory returns a comparer and a release func for its resources.
type comparerFactory func(cfg config.Config, remote bool, log *slog.Logger) (similarity.Comparer, func(), error)

type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	loadConfig    func() (config.Config, error)
	buildComparer comparerFactory
}

func newCLI(in io.Reader, out, errOut io.Writer) *cli {
	return &cli{
		in:            in,
		out:           out,
		errOut:        errOut,
		loadConfig:    app.LoadConfig,
		buildComparer: defaultComparer,
	}
}

type options struct {
	style     string
	normalize bool
	model     string
	timeout   time.Duration
	logLevel  string
	remote    bool
	text1     string
	text2     string
}

func newRootCommand(c *cli) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "similarity",
		Short:         "Rank how similar two texts are on a 1-5 scale",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			applyFlags(cmd, &cfg, opts)
			return c.run(cmd.Context(), cfg, opts)
		},
	}
	cmd.SetIn(c.in)
	cmd.SetOut(c.out)
	cmd.SetErr(c.errOut)

	flags := cmd.Flags()
	flags.StringVar(&opts.style, "style", "", "endpoint style: chat or legacy (overrides ENDPOINT_STYLE)")
	flags.BoolVar(&opts.normalize, "normalize", false, "strip punctuation and lower-case inputs (overrides NORMALIZE_TEXT)")
	flags.StringVar(&opts.model, "model", "", "model for the selected endpoint style")
	flags.DurationVar(&opts.timeout, "timeout", 0, "request timeout (overrides REQUEST_TIMEOUT)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")
	flags.BoolVar(&opts.remote, "remote", false, "send the comparison to workers over NATS (QUEUE_URL)")
	flags.StringVar(&opts.text1, "text1", "", "first text; prompts when empty")
	flags.StringVar(&opts.text2, "text2", "", "second text; prompts when empty")
	return cmd
}

func applyFlags(cmd *cobra.Command, cfg *config.Config, opts *options) {
	flags := cmd.Flags()
	if flags.Changed("style") {
		cfg.EndpointStyle = opts.style
	}
	if flags.Changed("normalize") {
		cfg.NormalizeText = opts.normalize
	}
	if flags.Changed("model") {
		if style, err := similarity.ParseEndpointStyle(cfg.EndpointStyle); err == nil && style == similarity.EndpointLegacyCompletion {
			cfg.LegacyModel = opts.model
		} else {
			cfg.LLMModel = opts.model
		}
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = opts.timeout
	}
	cfg.LogLevel = opts.logLevel
}

func (c *cli) run(ctx context.Context, cfg config.Config, opts *options) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			c.printError("Error: an unexpected error occurred.")
			err = fmt.Errorf("unexpected error: %v", rec)
		}
	}()
	if ctx == nil {
		ctx = context.Background()
	}

	if !opts.remote && strings.TrimSpace(cfg.OpenAIKey) == "" {
		fmt.Fprintln(c.out, missingKeyMessage)
		return nil
	}

	log := logger.NewWithWriter(c.errOut, cfg.LogLevel)
	comparer, release, err := c.buildComparer(cfg, opts.remote, log)
	if err != nil {
		c.printError(fmt.Sprintf("Error: %v", err))
		return err
	}
	defer release()

	fmt.Fprintln(c.out, "Text Similarity Checker")
	reader := bufio.NewReader(c.in)
	text1 := opts.text1
	if text1 == "" {
		text1 = c.prompt(reader, "Enter the first text: ")
	}
	text2 := opts.text2
	if text2 == "" {
		text2 = c.prompt(reader, "Enter the second text: ")
	}

	score, err := c.compare(ctx, comparer, text1, text2)
	if err != nil {
		c.printError("Error: Unable to calculate similarity.")
		c.printError(fmt.Sprintf("  %v", err))
		return nil
	}
	fmt.Fprintf(c.out, "Similarity Score: %s\n", formatScore(score))
	return nil
}

// compare range-checks the result; remote replies skip the local client checks.
func (c *cli) compare(ctx context.Context, comparer similarity.Comparer, text1, text2 string) (similarity.Score, error) {
	score, err := comparer.Compare(ctx, text1, text2)
	if err != nil {
		return similarity.FailureScore, err
	}
	return similarity.CheckRange(score)
}

func (c *cli) prompt(reader *bufio.Reader, label string) string {
	fmt.Fprint(c.out, label)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	return strings.TrimRight(line, "\r\n")
}

func (c *cli) printError(msg string) {
	color.New(color.FgRed).Fprintln(c.out, msg)
}

func formatScore(s similarity.Score) string {
	return strconv.FormatFloat(float64(s), 'f', -1, 64)
}

func defaultComparer(cfg config.Config, remote bool, log *slog.Logger) (similarity.Comparer, func(), error) {
	if remote {
		q, err := app.BuildQueue(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return queue.NewRemoteComparer(q), func() {}, nil
	}
	deps, err := app.BuildWith(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return deps.Comparer, func() { _ = deps.Cache.Close() }, nil
}
