package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/metorial/machineinfo/internal/app"
	"github.com/metorial/machineinfo/internal/cli"
	"github.com/metorial/machineinfo/internal/config"
	"github.com/metorial/machineinfo/internal/log"
	"github.com/metorial/machineinfo/internal/paths"
)

var (
	configPath string
	modeFlag   string
	outputJSON bool

	cfg config.Config
)

func main() {
	err := rootCmd.Execute()
	log.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "machineinfo",
	Short: "Report hardware information and manage saved window state",
	Long: `machineinfo samples the processor, memory and first disk of this machine
and manages the small settings database kept alongside the application.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if modeFlag != "" {
			loaded.Mode = config.Mode(modeFlag)
			if err := loaded.Validate(); err != nil {
				return err
			}
		}
		if err := log.Setup(loaded.Log.Level, loaded.Log.File); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// withApp opens the application, collectors included, for the duration of fn.
func withApp(fn func(a *app.App) error) error {
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// withSettings opens only the database for the duration of fn.
func withSettings(fn func(a *app.App) error) error {
	a, err := app.OpenSettings(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print processor, memory and storage information",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		settle, _ := cmd.Flags().GetDuration("settle")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(func(a *app.App) error {
			snap, err := a.SnapshotAfter(ctx, settle)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			if err := printSnapshot(snap); err != nil {
				return err
			}
			if interval <= 0 {
				return nil
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}

				snap, err := a.Snapshot()
				if err != nil {
					return err
				}
				if err := printSnapshot(snap); err != nil {
					return err
				}
			}
		})
	},
}

func printSnapshot(snap app.Snapshot) error {
	if outputJSON {
		return cli.FormatJSON(os.Stdout, snap)
	}
	fmt.Printf("Snapshot at %s\n", snap.TakenAt.Format("2006-01-02 15:04:05"))
	return cli.FormatSnapshotTable(os.Stdout, snap)
}

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Read or replace the saved note",
}

var noteGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the saved note",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSettings(func(a *app.App) error {
			note := a.Note()
			if outputJSON {
				return cli.FormatJSON(os.Stdout, map[string]string{"note": note})
			}
			fmt.Println(note)
			return nil
		})
	},
}

var noteSetCmd = &cobra.Command{
	Use:   "set [text]",
	Short: "Replace the saved note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSettings(func(a *app.App) error {
			return a.SaveNote(args[0])
		})
	},
}

var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Inspect and update saved window geometry",
}

var windowShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the geometry restored at startup",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSettings(func(a *app.App) error {
			wi := a.RestoreWindow()
			if outputJSON {
				return cli.FormatJSON(os.Stdout, wi)
			}
			return cli.FormatWindowTable(os.Stdout, wi)
		})
	},
}

var windowSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save window geometry; unset flags keep their current value",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()

		return withSettings(func(a *app.App) error {
			wi := a.RestoreWindow()

			if flags.Changed("x") {
				wi.X, _ = flags.GetInt32("x")
			}
			if flags.Changed("y") {
				wi.Y, _ = flags.GetInt32("y")
			}
			if flags.Changed("width") {
				wi.Width, _ = flags.GetUint32("width")
			}
			if flags.Changed("height") {
				wi.Height, _ = flags.GetUint32("height")
			}
			if flags.Changed("maximized") {
				wi.Maximized, _ = flags.GetBool("maximized")
			}
			if flags.Changed("fullscreen") {
				wi.Fullscreen, _ = flags.GetBool("fullscreen")
			}

			if wi.Width == 0 || wi.Height == 0 {
				return fmt.Errorf("invalid window size %dx%d", wi.Width, wi.Height)
			}
			return a.SaveWindow(wi)
		})
	},
}

var windowSizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Print the window size kept in the settings table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSettings(func(a *app.App) error {
			dim := a.WindowSize()
			if outputJSON {
				return cli.FormatJSON(os.Stdout, dim)
			}
			return cli.FormatDimension(os.Stdout, dim)
		})
	},
}

var windowSizeSetCmd = &cobra.Command{
	Use:   "set [width] [height]",
	Short: "Replace the window size kept in the settings table",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		width, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("parse width: %w", err)
		}
		height, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("parse height: %w", err)
		}

		return withSettings(func(a *app.App) error {
			return a.SaveWindowSize(width, height)
		})
	},
}

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the database location for the current mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := paths.NewResolver(cfg).Resolve()
		if err != nil {
			return err
		}
		if outputJSON {
			return cli.FormatJSON(os.Stdout, map[string]string{"mode": string(cfg.Mode), "path": p})
		}
		fmt.Println(p)
		return nil
	},
}

func init() {
	defaultConfig := os.Getenv(config.ConfigEnv)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfig, "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&modeFlag, "mode", "m", "", "Build mode override (development or production)")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "Output in JSON format")

	snapshotCmd.Flags().DurationP("interval", "i", 0, "Repeat every interval until interrupted")
	snapshotCmd.Flags().Duration("settle", 500*time.Millisecond, "Wait before the first sample so CPU usage covers a real interval")

	windowSaveCmd.Flags().Int32("x", 0, "Left edge")
	windowSaveCmd.Flags().Int32("y", 0, "Top edge")
	windowSaveCmd.Flags().Uint32("width", 0, "Width in pixels")
	windowSaveCmd.Flags().Uint32("height", 0, "Height in pixels")
	windowSaveCmd.Flags().Bool("maximized", false, "Window is maximized")
	windowSaveCmd.Flags().Bool("fullscreen", false, "Window is fullscreen")

	noteCmd.AddCommand(noteGetCmd)
	noteCmd.AddCommand(noteSetCmd)

	windowSizeCmd.AddCommand(windowSizeSetCmd)
	windowCmd.AddCommand(windowShowCmd)
	windowCmd.AddCommand(windowSaveCmd)
	windowCmd.AddCommand(windowSizeCmd)

	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(windowCmd)
	rootCmd.AddCommand(pathCmd)
}
