package capture

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
)

// Microphone streams raw signed 16-bit little-endian PCM from an ALSA
// capture device via arecord.
type Microphone struct {
	device     string
	sampleRate int

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

// NewMicrophone creates a microphone bound to an ALSA device name.
func NewMicrophone(device string, sampleRate int) *Microphone {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &Microphone{device: device, sampleRate: sampleRate}
}

func (m *Microphone) Kind() Kind {
	return KindMicrophone
}

// Open starts the arecord pipe.
func (m *Microphone) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cmd != nil {
		return nil
	}

	cmd := exec.CommandContext(ctx, "arecord",
		"-D", m.device,
		"-c", "1",
		"-r", strconv.Itoa(m.sampleRate),
		"-f", "S16_LE",
		"-t", "raw",
		"-q",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("microphone pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start arecord: %w", err)
	}

	m.cmd = cmd
	m.stdout = stdout
	return nil
}

// Reader returns the live PCM stream. Valid only between Open and Close.
func (m *Microphone) Reader() io.Reader {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stdout
}

// Close kills the recorder process and releases the device.
func (m *Microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cmd == nil {
		return nil
	}
	cmd := m.cmd
	m.cmd = nil
	m.stdout = nil

	if cmd.Process != nil {
		if err := cmd.Process.Kill(); err != nil {
			return fmt.Errorf("stop arecord: %w", err)
		}
	}
	cmd.Wait()
	return nil
}
