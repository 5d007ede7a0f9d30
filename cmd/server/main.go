package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arjunbector/OmniSearch/internal/app"
)

const shutdownTimeout = 10 * time.Second

var addr string

var rootCmd = &cobra.Command{
	Use:   "omnisearch-server",
	Short: "Run the OmniSearch API as a local HTTP server",
	Long: `Runs the same handlers as the Lambda function behind a local HTTP
server. Requests are converted to API Gateway proxy events. Prometheus
metrics are served on /metrics.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, addr)
	},
}

func init() {
	rootCmd.Flags().StringVar(&addr, "addr", ":8000", "Address to listen on")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context, addr string) error {
	application := app.NewApp(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           newMux(application),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting local server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down local server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
