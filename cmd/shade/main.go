// Command shade manages the terminal color theme. Run without arguments for
// the interactive settings TUI; use the subcommands for scripting and for the
// shared SSH surface.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"shade-terminal/internal/config"
	"shade-terminal/internal/coordinator"
	"shade-terminal/internal/prefstore"
	"shade-terminal/internal/router"
	"shade-terminal/internal/server"
	"shade-terminal/internal/system"
	"shade-terminal/internal/theme"
	"shade-terminal/internal/tui"
	"shade-terminal/internal/watch"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "shade",
	Short: "Terminal theme coordinator",
	Long: `shade keeps a light/dark theme preference for your terminal tools.

The effective theme follows a fixed precedence: an explicitly saved
preference wins, then the terminal's ambient dark-mode signal, then the
built-in default. Preferences are stored in a plain file, so concurrent
shade processes and other tools converge on the same theme.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the effective theme",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCoordinator(func(coord *coordinator.Coordinator, cfg config.Config) error {
			fmt.Println(coord.Effective())
			return nil
		})
	},
}

var setCmd = &cobra.Command{
	Use:       "set <light|dark>",
	Short:     "Persist a theme preference",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"light", "dark"},
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := theme.Parse(args[0])
		if err != nil {
			return err
		}
		return withCoordinator(func(coord *coordinator.Coordinator, cfg config.Config) error {
			coord.Set(t)
			fmt.Println(coord.Effective())
			return nil
		})
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Switch to the opposite theme and persist it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCoordinator(func(coord *coordinator.Coordinator, cfg config.Config) error {
			coord.Toggle()
			fmt.Println(coord.Effective())
			return nil
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the saved preference and follow the system signal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCoordinator(func(coord *coordinator.Coordinator, cfg config.Config) error {
			coord.FollowSystem()
			fmt.Println(coord.Effective())
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the effective theme and where it came from",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store := prefstore.New(cfg.PreferencePath)
		persisted, hasPersisted, loadErr := store.Load()
		signal := system.NewTerminalSource().Preference()

		effective := cfg.DefaultTheme
		origin := "default"
		switch {
		case hasPersisted:
			effective = persisted
			origin = "preference"
		case signal != system.Unknown:
			effective = signal.Theme(cfg.DefaultTheme)
			origin = "system"
		}

		fmt.Printf("effective: %s (%s)\n", effective, origin)
		if hasPersisted {
			fmt.Printf("persisted: %s\n", persisted)
		} else {
			fmt.Println("persisted: none")
		}
		fmt.Printf("system:    %s\n", signal)
		fmt.Printf("file:      %s\n", store.Path())
		if loadErr != nil {
			fmt.Printf("warning:   preference unreadable: %v\n", loadErr)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the settings TUI over SSH",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		runtime, err := server.New(cfg, router.DefaultChain(cfg.RateLimitPerMinute, cfg.RateLimitBurst))
		if err != nil {
			return fmt.Errorf("build ssh server: %w", err)
		}
		return runtime.Run(cmd.Context())
	},
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// withCoordinator runs fn against a short-lived coordinator for one-shot
// commands. No watcher or polling; the command reads, acts, and exits.
func withCoordinator(fn func(*coordinator.Coordinator, config.Config) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := coordinator.Options{
		Store:       prefstore.New(cfg.PreferencePath),
		System:      system.NewTerminalSource(),
		Default:     cfg.DefaultTheme,
		AnnounceTTL: cfg.AnnounceTTL,
	}
	if cfg.ChromeTint {
		opts.ApplyChrome = system.ApplyChromeTint
	}

	coord, err := coordinator.New(opts)
	if err != nil {
		return err
	}
	defer coord.Close()

	return fn(coord, cfg)
}

func runTUI() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := prefstore.New(cfg.PreferencePath)

	opts := coordinator.Options{
		Store:              store,
		System:             system.NewTerminalSource(),
		Default:            cfg.DefaultTheme,
		AnnounceTTL:        cfg.AnnounceTTL,
		SystemPollInterval: cfg.SystemPollInterval,
	}
	if cfg.ChromeTint {
		opts.ApplyChrome = system.ApplyChromeTint
	}
	if cfg.WatchPreference {
		watcher, err := watch.NewFileWatcher(store.Path())
		if err != nil {
			log.Warn("preference watch unavailable", "path", store.Path(), "err", err)
		} else {
			opts.Watcher = watcher
		}
	}

	coord, err := coordinator.New(opts)
	if err != nil {
		return err
	}
	defer coord.Close()

	model := tui.New(coord, tui.Options{
		Term:    os.Getenv("TERM"),
		OnClose: coord.Close,
	})
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default: XDG search)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(getCmd, setCmd, toggleCmd, clearCmd, statusCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
