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

	"github.com/KaramelBytes/serpdiff/internal/dataset"
	"github.com/KaramelBytes/serpdiff/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	serveAddr    string
	serveDataset string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP comparison viewer",
	Long: `Start the HTTP viewer. Upload an export to /upload (form field csvFile),
then query /api/records with filter parameters and page with /api/records/next.
An initial dataset can be preloaded with --dataset or the dataset config key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := decodeOptions()
		if err != nil {
			return err
		}
		store := dataset.NewStore()
		path := serveDataset
		if path == "" && cfg != nil {
			path = cfg.Dataset
		}
		if path != "" {
			if _, err := loadInto(store, path); err != nil {
				return err
			}
		}

		addr := serveAddr
		if addr == "" && cfg != nil {
			addr = cfg.Addr
		}
		if addr == "" {
			addr = ":8080"
		}
		var maxUpload int64
		if cfg != nil {
			maxUpload = cfg.MaxUploadBytes()
		}
		srv, err := server.New(store, server.Options{
			PageSize:       pageSize(),
			MaxUploadBytes: maxUpload,
			Decode:         opt,
		}, logger)
		if err != nil {
			return err
		}

		httpSrv := &http.Server{
			Addr:              addr,
			Handler:           srv,
			ReadHeaderTimeout: 10 * time.Second,
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info().Str("addr", addr).Msg("listening")
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			logger.Info().Msg("shutting down")
			return httpSrv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&serveDataset, "dataset", "", "export file to preload")
	addLoadFlags(serveCmd)
}
