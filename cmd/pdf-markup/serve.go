// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf-markup/internal/history"
	"github.com/pdiddy/pdf-markup/internal/server"
	"github.com/pdiddy/pdf-markup/internal/submit"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host the interactive editor over WebSocket",
	Long: `Serve starts the editor host. Each browser connection on /ws gets its own
editing session: file selection, tools, page navigation, live previews and
batch submission. /healthz reports liveness and /history lists recent
submissions.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().String("static", "", "directory served at / (overrides server.static_dir)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("server.static_dir", serveCmd.Flags().Lookup("static"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig()

	renderer, err := newRenderer(cfg.Editor)
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.History)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}
	if cfg.Processing.Endpoint == "" {
		fmt.Fprintln(os.Stderr, "warning: processing.endpoint is not set; submissions will fail")
	}

	client := submit.NewClient(cfg.Processing)
	client.Status = os.Stderr
	hub := server.NewHub(server.Config{
		Renderer:          renderer,
		Scale:             cfg.Editor.Scale,
		Submitter:         client,
		History:           store,
		PreviewTransforms: cfg.Editor.PreviewTransforms,
		Status:            os.Stderr,
	})
	go hub.Run()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.NewHandler(hub, cfg.Server.StaticDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-cmd.Context().Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
