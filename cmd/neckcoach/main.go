// Package main provides the CLI entrypoint for neckcoach.
package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/neckcoach/internal/app"
	"github.com/ayusman/neckcoach/internal/config"
	"github.com/ayusman/neckcoach/internal/logging"
	"github.com/ayusman/neckcoach/internal/store"
	"github.com/ayusman/neckcoach/internal/tray"
)

var version = "dev"

var (
	header  = color.New(color.Bold)
	done    = color.New(color.FgGreen)
	pending = color.New(color.FgYellow)
)

var (
	configPath string

	serveAddr     string
	serveExercise string
	serveTray     bool

	historyLimit int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "neckcoach",
		Short:        "Camera-guided neck and shoulder exercise coach",
		SilenceUsage: true,
		RunE:         runServeCmd,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file (.yaml or .toml)")
	addServeFlags(rootCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the camera pipeline and dashboard",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	addServeFlags(serveCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newExercisesCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&serveExercise, "exercise", "", "exercise to start immediately (default: last one run)")
	cmd.Flags().BoolVar(&serveTray, "tray", false, "show the system tray menu")
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer st.Close()

	application := app.New(app.Options{Config: cfg, Store: st, Logger: logger})
	if err := application.Start(); err != nil {
		return err
	}
	defer application.Stop()

	name := serveExercise
	if name == "" {
		name, _ = application.LastExercise()
	}
	if name != "" {
		if err := application.StartExercise(name); err != nil {
			return fmt.Errorf("failed to start %q: %w", name, err)
		}
		logger.Info("exercise started", zap.String("exercise", name))
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir(cfg.Data.Dir)
	}
	if staticDir != "" {
		logger.Info("serving static files", zap.String("dir", staticDir))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := application.Server(staticDir)
	color.New(color.FgCyan).Fprintf(cmd.ErrOrStderr(), "neckcoach %s: dashboard at %s\n", version, dashboardURL(addr))
	logger.Info("starting server", zap.String("addr", addr))

	if !serveTray {
		return serveErr(srv.ListenAndServe(ctx, addr))
	}

	t := tray.New()
	t.SetPaused(application.Paused())
	application.AddListener(t)
	t.OnPause(application.SetPaused)
	t.OnDashboard(func() { openBrowser(dashboardURL(addr), logger) })
	t.OnQuit(stop)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, addr)
		t.Quit()
	}()

	// systray needs the main goroutine.
	t.Run()
	stop()
	return serveErr(<-errCh)
}

func serveErr(err error) error {
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("server failed: %w", err)
}

func newExercisesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exercises",
		Short: "List exercises with their effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			list, err := cfg.ExerciseList()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			header.Fprintln(w, "NAME\tTITLE\tTHRESHOLD\tHOLD\tREPS/SIDE\tSIDES")
			for _, ex := range list {
				fmt.Fprintf(w, "%s\t%s\t%g\t%s\t%d\t%d\n",
					ex.Name, ex.Title, ex.AngleThreshold, ex.HoldDuration, ex.TargetRepsPerSide, ex.Sides)
			}
			return w.Flush()
		},
	}
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			st, err := store.New(cfg.DBPath())
			if err != nil {
				return fmt.Errorf("failed to open db: %w", err)
			}
			defer st.Close()

			sessions, err := st.Sessions().List(historyLimit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no sessions yet")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			header.Fprintln(w, "STARTED\tEXERCISE\tLEFT\tRIGHT\tTARGET\tDONE")
			for _, s := range sessions {
				status := pending.Sprint("no")
				if s.Completed {
					status = done.Sprint("yes")
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
					s.StartedAt.Local().Format("2006-01-02 15:04"), s.Exercise,
					s.RepsLeft, s.RepsRight, s.TargetPerSide, status)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&historyLimit, "limit", 20, "number of sessions to show")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "neckcoach %s\n", version)
		},
	}
}

// findWebDir searches for the dashboard in "web", "../web" and <dataDir>/web.
func findWebDir(dataDir string) string {
	candidates := []string{"web", filepath.Join("..", "web"), filepath.Join(dataDir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func dashboardURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string, logger *zap.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Warn("failed to open dashboard", zap.String("url", url), zap.Error(err))
		return
	}
	go func() { _ = cmd.Wait() }()
}
