package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/leonardotrapani/voicescribe/internal/audio"
	"github.com/leonardotrapani/voicescribe/internal/bus"
	"github.com/leonardotrapani/voicescribe/internal/config"
	"github.com/leonardotrapani/voicescribe/internal/daemon"
	"github.com/leonardotrapani/voicescribe/internal/decode"
	"github.com/leonardotrapani/voicescribe/internal/deps"
	"github.com/leonardotrapani/voicescribe/internal/transcriber"
	"github.com/leonardotrapani/voicescribe/internal/tui"
	"github.com/leonardotrapani/voicescribe/internal/wavenc"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "voicescribe",
	Short: "Record your voice and get it transcribed",
}

func init() {
	rootCmd.AddCommand(
		serveCmd(),
		toggleCmd(),
		statusCmd(),
		transcriptionCmd(),
		versionCmd(),
		stopCmd(),
		configureCmd(),
		encodeCmd(),
		transcribeCmd(),
		doctorCmd(),
	)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := config.NewManager()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if missing := deps.Missing(deps.CheckAll(cmd.Context())); len(missing) > 0 {
				fmt.Fprintf(os.Stderr, "warning: missing %s, recording will fail\n", strings.Join(missing, ", "))
			}
			d, err := daemon.New(mgr, daemon.BuildPipeline)
			if err != nil {
				return fmt.Errorf("failed to create daemon: %w", err)
			}
			return d.Run()
		},
	}
}

func toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Start or stop recording",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdToggle)
			if err != nil {
				return fmt.Errorf("failed to toggle recording: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the recorder state and the last transcription",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdStatus)
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			if raw {
				fmt.Print(resp)
				return nil
			}
			r := tui.NewRenderer(os.Stdout, tui.DefaultTheme())
			fmt.Println(r.RenderPanel(tui.ViewFromReply(resp)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the daemon reply unformatted")
	return cmd
}

func transcriptionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transcription",
		Short: "Print the last transcription",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdTranscription)
			if err != nil {
				return fmt.Errorf("failed to get transcription: %w", err)
			}
			text, ok := bus.Field(resp, "text")
			if !ok {
				return fmt.Errorf("unexpected reply: %s", strings.TrimSpace(resp))
			}
			fmt.Println(text)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Get protocol version",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdVersion)
			if err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdQuit)
			if err != nil {
				return fmt.Errorf("failed to stop daemon: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration form for voicescribe.
This will guide you through setting up:
- The transcription endpoint or OpenAI backend
- Recording parameters
- Notifications, playback and metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.RunConfigure(cfg, tui.DefaultTheme())
	if err != nil {
		return fmt.Errorf("configuration form error: %w", err)
	}
	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := config.Save(result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("Configuration saved successfully!")
	showNextSteps()
	return nil
}

func showNextSteps() {
	serviceRunning := false
	if err := exec.Command("systemctl", "--user", "is-active", "--quiet", "voicescribe.service").Run(); err == nil {
		serviceRunning = true
	}

	fmt.Println()
	fmt.Println("Next Steps:")
	if serviceRunning {
		fmt.Println("1. The running daemon picks up the new settings once it is idle")
	} else {
		fmt.Println("1. Start the daemon: voicescribe serve (or systemctl --user start voicescribe.service)")
	}
	fmt.Println("2. Record: voicescribe toggle, speak, voicescribe toggle")
	fmt.Println("3. Read the result: voicescribe status")
	fmt.Println()

	configPath, _ := config.GetConfigPath()
	fmt.Printf("Config file location: %s\n", configPath)
}

type rawFlags struct {
	rate     int
	channels int
}

func (f *rawFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.rate, "rate", 16000, "Sample rate of raw .pcm input")
	cmd.Flags().IntVar(&f.channels, "channels", 1, "Channel count of raw .pcm input")
}

// readBlob loads an audio file and labels it by extension. Unknown
// extensions are left to content sniffing.
func readBlob(path string, raw rawFlags) (audio.Blob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return audio.Blob{}, err
	}

	var mimeType string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		mimeType = audio.MIMETypeWAV
	case ".aif", ".aiff", ".aifc":
		mimeType = audio.MIMETypeAIFF
	case ".pcm", ".raw", ".l16":
		mimeType = decode.L16Type(raw.rate, raw.channels)
	}
	return audio.Blob{Data: data, MIMEType: mimeType}, nil
}

func encodeCmd() *cobra.Command {
	var raw rawFlags

	cmd := &cobra.Command{
		Use:   "encode <input> <output.wav>",
		Short: "Convert an audio file to 16-bit PCM WAV",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := readBlob(args[0], raw)
			if err != nil {
				return err
			}
			buf, err := decode.Decode(blob)
			if err != nil {
				return err
			}
			wav, err := wavenc.Encode(buf)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], wav, 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s (%d channels, %d Hz, %v)\n", args[1], buf.NumChannels(), buf.SampleRate, buf.Duration())
			return nil
		},
	}

	raw.register(cmd)
	return cmd
}

func transcribeCmd() *cobra.Command {
	var raw rawFlags

	cmd := &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Transcribe an audio file once, without the daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			tr, err := transcriber.New(cfg.ToTranscriberConfig())
			if err != nil {
				return err
			}

			blob, err := readBlob(args[0], raw)
			if err != nil {
				return err
			}
			buf, err := decode.Decode(blob)
			if err != nil {
				return err
			}
			wav, err := wavenc.Encode(buf)
			if err != nil {
				return err
			}

			text, err := tr.Transcribe(context.Background(), wav)
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}

	raw.register(cmd)
	return cmd
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the external tools the daemon needs are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := deps.CheckAll(cmd.Context())
			out := cmd.OutOrStdout()
			for _, s := range statuses {
				switch {
				case s.Installed && s.Version != "":
					fmt.Fprintf(out, "ok       %-12s %s (%s)\n", s.Name, s.Path, s.Version)
				case s.Installed:
					fmt.Fprintf(out, "ok       %-12s %s\n", s.Name, s.Path)
				case s.Required:
					fmt.Fprintf(out, "missing  %-12s required\n", s.Name)
				default:
					fmt.Fprintf(out, "missing  %-12s optional\n", s.Name)
				}
			}
			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
			}
			return nil
		},
	}
}
