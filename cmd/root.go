package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/suman-15/whisper-asr-multilang/internal/board"
	internalhttp "github.com/suman-15/whisper-asr-multilang/internal/http"
	"github.com/suman-15/whisper-asr-multilang/internal/loader"
	"github.com/suman-15/whisper-asr-multilang/internal/render"
	"github.com/suman-15/whisper-asr-multilang/internal/request"
)

const envPrefix = "RESULTS_TABLE"

var (
	csvPath        string
	basePath       string
	pagePath       string
	tbodyID        string
	outPath        string
	outputFormat   string
	headerTemplate string
	serveAddr      string
	timeout        int
	verbose        bool
)

var rootCmd = &cobra.Command{
	Use:   "results-table",
	Short: "Render the evaluation summary CSV as a results table.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// ログレベルの設定
		var programLevel = new(slog.LevelVar)
		switch {
		case verbose:
			programLevel.Set(slog.LevelDebug)
		default:
			programLevel.Set(slog.LevelInfo)
		}
		handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: programLevel})
		logger := slog.New(handler)
		slog.SetDefault(logger)
		// logをslog経由で出力
		log.SetOutput(slog.NewLogLogger(handler, slog.LevelInfo).Writer())

		if outputFormat != "html" && outputFormat != "table" {
			return fmt.Errorf("unknown format %q (expected html or table)", outputFormat)
		}

		factory, err := request.NewFactory(headerTemplate)
		if err != nil {
			return err
		}
		client := internalhttp.NewClient(time.Duration(timeout)*time.Second, logger)
		l := loader.New(client, factory, loader.WithBase(basePath), loader.WithLogger(logger))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if serveAddr != "" {
			return board.NewServer(serveAddr, l, csvPath, newPage, logger).Run(ctx)
		}
		return renderOnce(ctx, l, logger)
	},
}

func newPage() (*render.DOMSink, error) {
	if pagePath == "" {
		return render.NewDOMSink(render.DefaultPage(), tbodyID)
	}
	data, err := os.ReadFile(pagePath)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	return render.NewDOMSink(bytes.NewReader(data), tbodyID)
}

func renderOnce(ctx context.Context, l board.Loader, logger *slog.Logger) error {
	if outPath == "" {
		return renderTo(ctx, os.Stdout, l, logger)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	return writeAndClose(f, func(w io.Writer) error {
		return renderTo(ctx, w, l, logger)
	})
}

// writeAndClose runs write against wc and closes it. A failed close is reported when the
// write itself succeeded, since the output may be truncated.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	if err := write(wc); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

func renderTo(ctx context.Context, w io.Writer, l board.Loader, logger *slog.Logger) error {
	if outputFormat == "table" {
		sink := render.NewTableSink(w)
		state, err := board.Run(ctx, l, sink, csvPath, logger)
		if err != nil {
			return err
		}
		logger.Debug("results rendered", "state", state.String())
		return sink.Render()
	}

	page, err := newPage()
	if err != nil {
		return err
	}
	state, err := board.Run(ctx, l, page, csvPath, logger)
	if err != nil {
		return err
	}
	logger.Debug("results rendered", "state", state.String())
	return page.Render(w)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error(fmt.Sprintf("command execution failed: %v\n", err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&csvPath, "csv", "c", loader.DefaultPath, "Results CSV: URL, s3://bucket/key or file path")
	rootCmd.Flags().StringVar(&basePath, "base", "docs/index.html", "Location of the hosting page; a relative --csv resolves against it")
	rootCmd.Flags().StringVar(&pagePath, "page", "", "Hosting page HTML file (default: built-in page)")
	rootCmd.Flags().StringVar(&tbodyID, "tbody-id", render.DefaultTableBodyID, "Id of the table body element rows are appended to")
	rootCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default: stdout)")
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "html", "Output format: html or table")
	rootCmd.Flags().StringVar(&headerTemplate, "header", "", "Extra request headers, one 'Key: Value' per line")
	rootCmd.Flags().StringVar(&serveAddr, "serve", "", "Serve the page on this address instead of writing it once")
	rootCmd.Flags().IntVarP(&timeout, "timeout", "t", 0, "Request timeout in seconds (0: none)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	bindViper(rootCmd)
}

// bindViper lets RESULTS_TABLE_<FLAG> variables and an optional config file fill flags the
// command line left unset.
func bindViper(cmd *cobra.Command) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	configFile := os.Getenv(envPrefix + "_CONFIG")
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	cobra.OnInitialize(func() {
		cobra.CheckErr(v.BindPFlags(cmd.Flags()))
		if configFile != "" {
			cobra.CheckErr(v.ReadInConfig())
		}
		cobra.CheckErr(applyViper(v, cmd.Flags()))
	})
}

func applyViper(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		val := fmt.Sprintf("%v", v.Get(f.Name))
		if val == "" || val == f.Value.String() {
			return
		}
		if err := f.Value.Set(val); err != nil {
			errs = append(errs, fmt.Errorf("invalid value %q for %s: %w", val, f.Name, err))
		}
	})
	return errors.Join(errs...)
}
