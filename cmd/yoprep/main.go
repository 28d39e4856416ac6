package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/yoprep/internal/llm/prompts"
	"github.com/pavelanni/yoprep/internal/model"
	"github.com/pavelanni/yoprep/internal/parser"
	"github.com/pavelanni/yoprep/internal/schema"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "yoprep",
		Short:        "Matriculation exam question extractor and answer grader",
		SilenceUsage: true,
	}
	root.AddCommand(parseCmd(), importCmd(), gradeCmd(), serveCmd())
	return root
}

func addLogFlags(f *pflag.FlagSet) {
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func addParserFlags(f *pflag.FlagSet) {
	f.String("schema", schema.AbitreenitName, "Markup schema ("+strings.Join(schema.Names(), ", ")+")")
	f.String("encoding", parser.DefaultEncoding, "Character encoding of the exam markup")
}

func addMetaFlags(f *pflag.FlagSet) {
	f.String("exam-code", "", "Exam code (default: input file name without extension)")
	f.String("subject", "", "Exam subject")
	f.Int("year", 0, "Exam year")
	f.Bool("spring", false, "Spring sitting (default autumn)")
}

func addLLMFlags(f *pflag.FlagSet) {
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.String("prompt-variant", string(prompts.PromptStandard), "Grading prompt variant (strict, standard, lenient)")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(cmd.ErrOrStderr(), handlerOpts)
	default:
		logHandler = slog.NewTextHandler(cmd.ErrOrStderr(), handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("YOPREP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("yoprep")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/yoprep")
	v.AddConfigPath("/etc/yoprep")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// newParser builds a parser for the schema named in the config.
func newParser(v *viper.Viper) (*parser.Parser, error) {
	s, err := schema.Lookup(v.GetString("schema"))
	if err != nil {
		return nil, err
	}
	return parser.New(s, parser.WithLogger(slog.Default())), nil
}

// examMeta reads exam metadata from the config. A missing exam code
// defaults to the base name of path.
func examMeta(v *viper.Viper, path string) model.ExamMeta {
	code := v.GetString("exam-code")
	if code == "" {
		code = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return model.ExamMeta{
		ExamCode:     code,
		Subject:      v.GetString("subject"),
		Year:         v.GetInt("year"),
		IsSpringExam: v.GetBool("spring"),
	}
}

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file.html>",
		Short: "Convert exam markup into canonical exam JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runParse,
	}
	f := cmd.Flags()
	addParserFlags(f)
	addMetaFlags(f)
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(f)
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	p, err := newParser(v)
	if err != nil {
		return err
	}
	path := args[0]
	data, err := p.ToJSON(path, v.GetString("encoding"), examMeta(v, path))
	if err != nil {
		return err
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
