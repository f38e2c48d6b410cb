// microdrop toggles microphone transcription. The first invocation records;
// the second one signals the recorder to stop, transcribe, and deliver the
// text. No daemon stays behind.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"microdrop/audio"
	"microdrop/config"
	"microdrop/log"
	"microdrop/output"
	"microdrop/session"
	"microdrop/shutdown"
	"microdrop/transcribe"
)

var version = "0.4.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "microdrop: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps classified failures onto the documented exit codes: 2 for
// model/inference/preprocess, 3 for audio devices, 1 for everything else.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var tf *transcribe.Failure
	if errors.As(err, &tf) {
		return 2
	}
	var de *audio.DeviceError
	if errors.As(err, &de) {
		return 3
	}
	return 1
}

type toggleFlags struct {
	device     string
	model      string
	quantized  string
	language   string
	duration   time.Duration
	paste      bool
	noClip     bool
	notify     bool
	appendFile string
	timestamps string
}

func newRootCmd() *cobra.Command {
	var (
		verbose    bool
		configPath string
		flags      toggleFlags
	)

	root := &cobra.Command{
		Use:           "microdrop",
		Short:         "Push-to-talk transcription without a daemon",
		Long:          "Run once to start recording, run again to stop, transcribe and deliver the text.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Init(verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(configPath, flags)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path")

	addToggleFlags(root, &flags)

	toggle := &cobra.Command{
		Use:   "toggle",
		Short: "Start or stop a recording session (same as running with no subcommand)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(configPath, flags)
		},
	}
	addToggleFlags(toggle, &flags)

	root.AddCommand(toggle, newDevicesCmd(), newConfigCmd(), &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	return root
}

func addToggleFlags(cmd *cobra.Command, f *toggleFlags) {
	cmd.Flags().StringVar(&f.device, "device", "", "capture device name")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "speech model file")
	cmd.Flags().StringVar(&f.quantized, "quantized", "", "quantization variant suffix, e.g. q5_1")
	cmd.Flags().StringVarP(&f.language, "language", "l", "", "language hint for the engine")
	cmd.Flags().DurationVar(&f.duration, "duration", 0, "maximum recording duration")
	cmd.Flags().BoolVar(&f.paste, "paste", false, "paste the transcript into the focused window")
	cmd.Flags().BoolVar(&f.noClip, "no-clipboard", false, "skip the clipboard copy")
	cmd.Flags().BoolVar(&f.notify, "notify", false, "show a desktop notification")
	cmd.Flags().StringVar(&f.appendFile, "append", "", "append the transcript to this notes file")
	cmd.Flags().StringVar(&f.timestamps, "timestamps", "", "clipboard/notes format: none, simple or detailed")
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// runToggle assembles the production controller and runs it.
func runToggle(configPath string, f toggleFlags) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	applyToggleFlags(&cfg, f)

	lockPath, err := session.DefaultPath()
	if err != nil {
		return err
	}

	stop := make(chan string, 4)
	sigCh := make(chan os.Signal, 4)
	shutdown.Notify(sigCh)
	shutdown.NotifyStop(sigCh)
	go func() {
		for sig := range sigCh {
			select {
			case stop <- sig.String():
			default:
			}
		}
	}()
	watchStdin(os.Stdin, stop)

	c := &controller{
		cfg:         cfg,
		lockPath:    lockPath,
		newAudioCtx: audio.NewContext,
		newEngine: func() (transcribe.Engine, error) {
			modelPath, err := transcribe.ResolveModel(f.model, cfg.Model.ModelPath, cfg.Model.QuantizationVariant)
			if err != nil {
				return nil, err
			}
			return transcribe.NewWhisperCLI(modelPath, cfg.Model.Language)
		},
		disp: output.NewDispatcher(os.Stdout, output.SystemClipboard{}, output.KeyPaster{}, output.DesktopNotifier{}),
		opts: output.Options{
			Clipboard:  cfg.Output.EnableClipboard,
			Paste:      cfg.Output.EnablePaste,
			NotesFile:  cfg.Output.NotesFile,
			Notify:     cfg.Output.Notify,
			Timestamps: cfg.Output.TimestampFormat,
		},
		stop:    stop,
		maxDur:  resolveMaxDuration(cfg.Audio.MaxDuration, f.duration),
		request: audio.CaptureConfig{SampleRate: 48000, Channels: 1},
		phase:   phaseIdle,
	}
	return c.run(context.Background())
}

// applyToggleFlags folds CLI flags over the loaded config. Flags win.
func applyToggleFlags(cfg *config.Config, f toggleFlags) {
	if f.device != "" {
		cfg.Audio.Device = f.device
	}
	if f.quantized != "" {
		cfg.Model.QuantizationVariant = f.quantized
	}
	if f.language != "" {
		cfg.Model.Language = f.language
	}
	if f.paste {
		cfg.Output.EnablePaste = true
	}
	if f.noClip {
		cfg.Output.EnableClipboard = false
	}
	if f.notify {
		cfg.Output.Notify = true
	}
	if f.appendFile != "" {
		cfg.Output.NotesFile = f.appendFile
	}
	if f.timestamps != "" {
		cfg.Output.TimestampFormat = f.timestamps
	}
}

// resolveMaxDuration picks the recording cap. The flag wins and keeps its
// full resolution; sub-second values must not round down to unlimited.
func resolveMaxDuration(configSeconds int, flag time.Duration) time.Duration {
	if flag > 0 {
		return flag
	}
	return time.Duration(configSeconds) * time.Second
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := audio.NewContext()
			if err != nil {
				return err
			}
			defer ctx.Close()

			devices, err := ctx.Devices()
			if err != nil {
				return err
			}
			for _, d := range devices {
				fmt.Fprintln(cmd.OutOrStdout(), d.Name)
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and manage the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Path()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	var force bool
	writeDefault := &cobra.Command{
		Use:   "write-default",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteDefault(force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	writeDefault.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	cmd.AddCommand(writeDefault)
	return cmd
}
