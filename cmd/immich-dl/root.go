package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"immich-dl/internal/downloader"
	"immich-dl/pkg/albumsync"
	"immich-dl/pkg/config"
	"immich-dl/pkg/immich"
	"immich-dl/pkg/logger"
	"immich-dl/pkg/storage"
	"immich-dl/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// rootOptions holds the values of the root command flags
type rootOptions struct {
	configFile string
	outputDir  string
	albums     string
	concurrent int
	logLevel   string
	logFormat  string
}

// flags returns the options that were set, keyed the way config.Load expects
func (o *rootOptions) flags() map[string]interface{} {
	flags := make(map[string]interface{})
	if o.outputDir != "" {
		flags["output"] = o.outputDir
	}
	if o.albums != "" {
		flags["albums"] = o.albums
	}
	if o.concurrent > 0 {
		flags["concurrent"] = o.concurrent
	}
	if o.logLevel != "" {
		flags["log-level"] = o.logLevel
	}
	if o.logFormat != "" {
		flags["log-format"] = o.logFormat
	}
	return flags
}

// newRootCmd builds the immich-dl command tree writing to stdout and stderr
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "immich-dl",
		Short: "Download every original file of one or more Immich albums",
		Long: `immich-dl downloads the original files of Immich albums into local folders.

Each album is saved to <output>/<album name>/ and every asset keeps its
original file name. Albums are processed one after another; up to 10
downloads run at the same time unless --concurrent or IMMICH_DL_CONCURRENCY
sets another limit.

Settings are read from (highest priority first):
  - Command line flags
  - Environment variables (IMMICH_URL, IMMICH_TOKEN, IMMICH_ALBUMS, DOWNLOAD_DEST)
  - A .env file in the working directory
  - Configuration file
  - Default values`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd.Context(), opts, stdout)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default is ./.immich-dl.yaml or $HOME/.config/immich-dl/config.yaml)")
	cmd.PersistentFlags().StringVarP(&opts.outputDir, "output", "o", "", "output directory (overrides DOWNLOAD_DEST)")
	cmd.PersistentFlags().StringVar(&opts.albums, "albums", "", "comma separated album IDs (overrides IMMICH_ALBUMS)")
	cmd.PersistentFlags().IntVar(&opts.concurrent, "concurrent", 0, "maximum concurrent downloads (default 10)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (console, json)")

	cmd.SetVersionTemplate(`immich-dl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.AddCommand(newConfigCmd(opts, stdout))

	return cmd
}

// run executes the command line and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		if errors.Is(err, config.ErrMissingSettings) {
			fmt.Fprintln(stderr, err.Error())
			return 1
		}
		ui.NewPrinter(stderr).PrintFatal(err)
		return 1
	}
	return 0
}

// runDownload wires the components together and downloads every album
func runDownload(ctx context.Context, opts *rootOptions, stdout io.Writer) error {
	cfg, err := config.Load(opts.configFile, opts.flags())
	if err != nil {
		return err
	}

	log, err := logger.Initialize(&cfg.Logging, stdout)
	if err != nil {
		return err
	}
	defer logger.Close()

	log.DebugWithFields("configuration loaded", map[string]interface{}{
		"server":     cfg.Immich.URL,
		"albums":     len(cfg.AlbumIDs()),
		"output":     cfg.Output.BaseDirectory,
		"concurrent": cfg.Download.ConcurrentDownloads,
		"timeout":    cfg.Download.Timeout,
		"version":    version,
	})

	store, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		return err
	}

	client := immich.NewClient(cfg.Immich.URL, cfg.Immich.Token, cfg.Download.Timeout, log)
	pool := downloader.NewPool(cfg.Download.ConcurrentDownloads, client, store, log)

	return albumsync.New(cfg.AlbumIDs(), client, store, pool, log).Run(ctx)
}
