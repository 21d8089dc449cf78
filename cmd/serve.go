package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/graphdesk/graphdesk/internal/viewer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a local web viewer for the knowledge base",
	Long: `Starts a local HTTP server with rendered document pages, the graph
view, and the cached chat transcript. Documents are rendered from the
backend content with image links proxied, so no backend credentials are
needed in the browser.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int64("kb", 0, "knowledge base id (overrides config)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides config)")
	serveCmd.Flags().Bool("allow-all-origins", false, "allow all CORS origins")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	client, err := requireAuthClient(cfg, store)
	if err != nil {
		return err
	}

	kbFlag, _ := cmd.Flags().GetInt64("kb")
	kbID, err := resolveKB(cfg, kbFlag)
	if err != nil {
		return err
	}

	port := cfg.Viewer.Port
	if p, _ := cmd.Flags().GetInt("port"); p != 0 {
		port = p
	}
	allowAll, _ := cmd.Flags().GetBool("allow-all-origins")

	srv := viewer.New(viewer.Config{
		Port:            port,
		KnowledgeBaseID: kbID,
		AllowAll:        allowAll,
	}, client, store)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("viewer server: %w", err)
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
