package main

import (
	"alcyxob/dating-app/internal/app"
	"alcyxob/dating-app/internal/config"
	"alcyxob/dating-app/internal/domain"
	"alcyxob/dating-app/internal/health"
	"alcyxob/dating-app/internal/logger"
	"alcyxob/dating-app/internal/service"
	"alcyxob/dating-app/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type options struct {
	configDir string
	verbose   bool
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "photoctl",
		Short:         "Inspect photo storage and upload profile photos",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configDir, "config", ".", "directory containing config.yaml")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(newHealthCommand(opts), newUploadCommand(opts))
	return root
}

func (o *options) load() (config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(o.configDir)
	if err != nil {
		return config.Config{}, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if !o.verbose {
		return cfg, zerolog.Nop(), nil
	}
	return cfg, logger.New(cfg.Log), nil
}

func newHealthCommand(opts *options) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe the configured bucket and print the result as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			store, err := storage.New(cmd.Context(), cfg.Storage, log)
			if err != nil {
				return err
			}
			if owner == "" {
				owner = cfg.Health.Owner
			}
			h, _ := health.NewProber(store, owner, health.WithLogger(log)).Check(cmd.Context(), owner)
			if err := writeJSON(cmd.OutOrStdout(), h); err != nil {
				return err
			}
			if !h.CanWrite {
				return errors.New("storage is not writable")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "key prefix for the write check (default health.owner)")
	return cmd
}

func newUploadCommand(opts *options) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "upload --owner ID FILE...",
		Short: "Upload files to an owner's profile and print per-file outcomes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			a.Prober.Check(cmd.Context(), owner)
			return runUpload(cmd.Context(), a.Photos, owner, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner (user) ID")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func runUpload(ctx context.Context, photos service.PhotoService, owner string, paths []string, out, progress io.Writer) error {
	files := make([]domain.UploadFile, 0, len(paths))
	for _, p := range paths {
		f, err := readUploadFile(p)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	var mu sync.Mutex
	result, err := photos.UploadPhotos(ctx, owner, files, func(index int, state domain.UploadState) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(progress, "%s: %s\n", files[index].Name, state)
	})
	if result != nil {
		if werr := writeJSON(out, result); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", result.Failed, len(files))
	}
	return nil
}

func readUploadFile(path string) (domain.UploadFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.UploadFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	return domain.UploadFile{
		Name:        filepath.Base(path),
		ContentType: mimetype.Detect(data).String(),
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
