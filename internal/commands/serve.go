package commands

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dom/blog-api/internal/api"
	"github.com/dom/blog-api/internal/telemetry"
	"github.com/dom/blog-api/internal/websocket"
	"github.com/spf13/cobra"
)

func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (and the job worker unless --no-worker)",
		RunE: func(cmd *cobra.Command, args []string) error {
			noWorker, _ := cmd.Flags().GetBool("no-worker")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, !noWorker)
		},
	}

	cmd.Flags().Bool("no-worker", false, "do not run the background job worker in this process")
	return cmd
}

func serve(ctx context.Context, runWorker bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	shutdownTracing, err := telemetry.Setup(ctx, a.cfg.OTELEndpoint, a.cfg.OTELServiceName)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("ERROR [commands.serve] tracing shutdown: %v", err)
		}
	}()

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	router := api.NewRouter(a.services(hub), hub, a.cfg)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + a.cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()

	var wg sync.WaitGroup
	if runWorker {
		w := a.worker()
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(workerCtx)
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", a.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			cancelWorker()
			hub.Stop()
			wg.Wait()
			return err
		}
	}

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	hub.Stop()
	cancelWorker()
	wg.Wait()
	if err != nil {
		return err
	}

	log.Println("Server stopped")
	return nil
}
