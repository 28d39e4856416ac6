package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"

	"github.com/pavelanni/yoprep/internal/handler"
	appI18n "github.com/pavelanni/yoprep/internal/i18n"
	"github.com/pavelanni/yoprep/internal/store"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "yoprep.db", "SQLite database path")
	addParserFlags(f)
	addLLMFlags(f)
	f.Bool("skip-llm-check", false, "Start even if the LLM endpoint does not answer")
	f.StringP("lang", "l", "fi", "Default message language (fi, en)")
	f.StringSlice("cors-origins", []string{"http://localhost:3000"}, "Allowed CORS origins (repeatable)")
	addLogFlags(f)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	p, err := newParser(v)
	if err != nil {
		return err
	}

	llmClient, err := newLLMClient(v)
	if err != nil {
		return err
	}
	if err := llmClient.Ping(context.Background()); err != nil {
		if !v.GetBool("skip-llm-check") {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Warn("LLM endpoint not reachable, grading will fail", "url", v.GetString("llm-url"), "error", err)
	} else {
		slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
	}

	h := handler.New(p, db, llmClient)

	origins := v.GetStringSlice("cors-origins")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"schema", v.GetString("schema"),
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
		"cors_origins", origins,
	)
	return http.ListenAndServe(addr, r)
}
