package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"holonet.gg/v1/encounter-builder/src/build"
	"holonet.gg/v1/encounter-builder/src/csrf"
	"holonet.gg/v1/encounter-builder/src/devserver"
	"holonet.gg/v1/encounter-builder/src/encounters"
	"holonet.gg/v1/encounter-builder/src/page"
	"holonet.gg/v1/encounter-builder/src/request"
)

const (
	userAgent = "encounter-builder"
	logFile   = "encounter-builder.log"
)

var (
	configFile    string
	verbose       bool
	pages         []string
	notifications bool
	mode          string
	watchFlag     bool
	forceFlag     bool

	config Config
	logger = zap.NewNop()
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E0A526"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FC97F"))
)

var rootCmd = &cobra.Command{
	Use:   "encounter-builder",
	Short: "Star Wars RPG encounter builder and front-end build tooling",
	Long: `Builds encounters against the encounters API from the terminal, and
plans, watches and serves the per-page front-end bundles.

Run without arguments to open the encounter builder.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		config, err = readConfig(configFile)
		if err != nil {
			return fmt.Errorf("read config %s: %w", configFile, err)
		}

		// The builder owns the terminal, so its logs go to a file.
		output := ""
		if !cmd.HasParent() || cmd == builderCmd {
			output = logFile
		}
		logger, err = newLogger(verbose, output)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runBuilder,
}

var builderCmd = &cobra.Command{
	Use:   "builder",
	Short: "Open the encounter builder",
	Args:  cobra.NoArgs,
	RunE:  runBuilder,
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Print the bundle plan for the selected pages",
	Example: `  encounter-builder build
  encounter-builder build --page encounters__builder --mode development`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the script and style trees and plan rebuilds of changed apps",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the build output under the static url",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "encounters.json", "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	for _, cmd := range []*cobra.Command{buildCmd, watchCmd, serveCmd} {
		cmd.Flags().StringArrayVarP(&pages, "page", "p", nil, "Limit the build to app__page (repeatable; app alone builds every page of app)")
		cmd.Flags().StringVar(&mode, "mode", string(build.Production), "Build mode: development or production")
	}
	watchCmd.Flags().BoolVar(&notifications, "notifications", false, "Report each completed rebuild")
	serveCmd.Flags().BoolVar(&notifications, "notifications", false, "Report each completed rebuild")
	serveCmd.Flags().BoolVar(&watchFlag, "watch", false, "Watch sources while serving")
	initCmd.Flags().BoolVar(&forceFlag, "force", false, "Overwrite an existing config file")

	rootCmd.AddCommand(builderCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
}

func newLogger(verbose bool, output string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if output != "" {
		cfg.OutputPaths = []string{output}
		cfg.ErrorOutputPaths = []string{output}
	}
	return cfg.Build()
}

func buildOptions() (build.Options, error) {
	m, err := build.ParseMode(mode)
	if err != nil {
		return build.Options{}, err
	}
	return build.Options{
		SourceDir:     config.SourceDir,
		StyleDir:      config.StyleDir,
		BuildDir:      config.BuildDir,
		PublicPath:    config.StaticURL + build.BuildPath,
		Mode:          m,
		Pages:         pages,
		Notifications: notifications,
	}, nil
}

func runBuilder(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	pageURL := strings.TrimSuffix(config.BaseURL, "/") + config.BuilderPath
	doc, err := page.Fetch(ctx, pageURL, userAgent)
	if err != nil {
		// Reads still work without the hosted page; only creating needs its token.
		logger.Warn("hosted page unavailable", zap.String("url", pageURL), zap.Error(err))
	}

	var location string
	session := request.NewSession(request.Config{
		Origin:    config.BaseURL,
		Tokens:    csrf.NewTokenSource(doc),
		UserAgent: userAgent,
		Logger:    logger,
		Navigator: request.NavigatorFunc(func(to string) {
			logger.Info("navigating away", zap.String("location", to))
			location = to
			cancel()
		}),
	})
	api := encounters.NewAPI(session, encounters.APIConfig{
		Origin:         config.BaseURL,
		StarshipsPath:  config.StarshipsPath,
		EncountersPath: config.EncountersPath,
		Logger:         logger,
	})

	root := encounters.Page(api, encounters.Options{
		Context:    ctx,
		DraftFile:  config.DraftFile,
		SearchWait: time.Duration(config.SearchDebounceMs) * time.Millisecond,
		Logger:     logger,
	})
	route := page.Route{Path: config.BuilderPath, Title: encounters.DefaultTitle, Document: doc}

	_, err = page.Mount(ctx, root, route, tea.WithAltScreen())
	if location != "" {
		fmt.Fprintln(cmd.OutOrStdout(), "Redirected to "+location)
		return nil
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions()
	if err != nil {
		return err
	}
	plan, err := build.NewPlan(opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d bundles (%s)", len(plan.Entries), plan.Mode)))
	fmt.Fprintln(out, plan.Table().Terminal())
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("styles: %s • split chunks: %t • source maps: %t • minimize: %t",
		strings.Join(plan.Styles, ", "), plan.SplitChunks, plan.SourceMaps, plan.Minimize)))
	return nil
}

func newWatcher(cmd *cobra.Command) (*build.Watcher, error) {
	opts, err := buildOptions()
	if err != nil {
		return nil, err
	}
	out := cmd.OutOrStdout()
	return build.NewWatcher(opts, 0, logger, func(r build.Rebuild) {
		fmt.Fprintln(out, successStyle.Render("rebuild: "+strings.Join(r.Apps, ", ")))
		for _, style := range r.Styles {
			fmt.Fprintln(out, mutedStyle.Render("  style "+style))
		}
		for _, name := range slices.Sorted(maps.Keys(r.Entries)) {
			fmt.Fprintln(out, mutedStyle.Render("  entry "+name))
		}
	})
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := newWatcher(cmd)
	if err != nil {
		return err
	}
	defer w.Close()
	return w.Run(ctx)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := devserver.New(devserver.Options{
		BuildDir:  config.BuildDir,
		StaticURL: config.StaticURL,
		Pages:     build.GetPagesFromArguments(pages),
		Logger:    logger,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Listen(config.ServeAddr)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if watchFlag {
		w, err := newWatcher(cmd)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		defer w.Close()
		g.Go(func() error {
			return w.Run(ctx)
		})
	}
	return g.Wait()
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configFile); err == nil && !forceFlag {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configFile)
	}
	if err := saveConfig(configFile, config); err != nil {
		return fmt.Errorf("write %s: %w", configFile, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("wrote "+configFile))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
