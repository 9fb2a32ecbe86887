package recording

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

// PipeWireSource captures from the default (or configured) PipeWire input
// through pw-record.
type PipeWireSource struct {
	config Config
}

func NewPipeWireSource(config Config) *PipeWireSource {
	return &PipeWireSource{config: config}
}

func (s *PipeWireSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := CheckPipeWireAvailable(ctx); err != nil {
		return nil, fmt.Errorf("PipeWire not available: %w", err)
	}

	// The capture outlives the request that opened it; Close ends it.
	captureCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	cmd := exec.CommandContext(captureCtx, "pw-record", s.buildPwRecordArgs()...)
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = 2 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start pw-record: %w", err)
	}

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			log.Printf("Recording stderr: %s", scanner.Text())
		}
	}()

	return &pwInput{cmd: cmd, stdout: stdout, cancel: cancel}, nil
}

func (s *PipeWireSource) buildPwRecordArgs() []string {
	args := []string{
		"--format", s.config.Format,
		"--rate", strconv.Itoa(s.config.SampleRate),
		"--channels", strconv.Itoa(s.config.Channels),
	}
	if s.config.Device != "" {
		args = append(args, "--target", s.config.Device)
	}
	return append(args, "-") // stdout
}

type pwInput struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	cancel context.CancelFunc

	waitOnce sync.Once
}

// Read returns captured PCM until pw-record exits, then reaps the process.
func (in *pwInput) Read(p []byte) (int, error) {
	n, err := in.stdout.Read(p)
	if err == io.EOF {
		in.wait()
	}
	return n, err
}

// Close interrupts pw-record. Output it already wrote stays readable until
// EOF.
func (in *pwInput) Close() error {
	in.cancel()
	return nil
}

func (in *pwInput) wait() {
	in.waitOnce.Do(func() {
		if err := in.cmd.Wait(); err != nil {
			log.Printf("Recording: pw-record exited: %v", err)
		}
	})
}

func CheckPipeWireAvailable(ctx context.Context) error {
	if _, err := exec.LookPath("pw-record"); err != nil {
		return fmt.Errorf("pw-record not found: %w (install pipewire-tools)", err)
	}
	// Use a short timeout to avoid hangs on misconfigured systems.
	if ctx == nil {
		ctx = context.Background()
	}
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	cmd := exec.CommandContext(checkCtx, "pw-cli", "info")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("PipeWire not running or accessible: %w", err)
	}
	return nil
}
