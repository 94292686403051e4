package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"

	"golang.org/x/image/draw"
)

// Frame dimensions fed to the embedding collaborator.
const (
	frameWidth  = 640
	frameHeight = 480
)

// Camera grabs single JPEG frames from a video4linux device via ffmpeg.
type Camera struct {
	device string
}

// NewCamera creates a camera bound to a v4l2 device node such as /dev/video0.
func NewCamera(device string) *Camera {
	return &Camera{device: device}
}

func (c *Camera) Kind() Kind {
	return KindCamera
}

// Open verifies the device node exists. Acquisition failures surface as
// ErrDeviceUnavailable through the session manager.
func (c *Camera) Open(ctx context.Context) error {
	if _, err := os.Stat(c.device); err != nil {
		return fmt.Errorf("stat %s: %w", c.device, err)
	}
	return nil
}

func (c *Camera) Close() error {
	return nil
}

// Grab captures one frame and returns it as a 640x480 JPEG.
func (c *Camera) Grab(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-loglevel", "error",
		"-f", "v4l2",
		"-i", c.device,
		"-frames:v", "1",
		"-f", "image2",
		"-",
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("grab frame from %s: %w", c.device, err)
	}
	return DownscaleJPEG(out, frameWidth, frameHeight)
}

// DownscaleJPEG re-encodes a JPEG at the given size. Frames already at or
// below the target size are returned unchanged.
func DownscaleJPEG(data []byte, width, height int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= width && bounds.Dy() <= height {
		return data, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
