package player

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
)

// processDecoder runs one external player process for the lifetime of a
// single track or stream. Adapted from
// arung-agamani-denpa-radio/internal/ffmpeg.Encoder's exec.CommandContext +
// background stderr-draining goroutine idiom, generalized from "always
// ffmpeg, always a byte stream out" to "run whatever command line the
// caller builds, and close Done when the process exits."
type processDecoder struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	cancel context.CancelFunc
	done   chan struct{}
}

// newFileDecoder spawns a decoder appropriate for path's extension. MP3
// files use mpg123 (grounded on the `.mp3` dispatch branch in fileplayer.py);
// every other extension is played by running ffplay directly on the file
// (no display, exit at end of file), mirroring the `MPVMusicPlayer`
// fallback path.
func newFileDecoder(path string, volume int) *processDecoder {
	var name string
	var args []string
	switch extOf(path) {
	case ".mp3":
		name = "mpg123"
		args = []string{"-q", "-f", volumeToMpg123Scale(volume), path}
	default:
		name = "ffplay"
		args = []string{"-nodisp", "-autoexit", "-vn", "-sn", "-volume", strconv.Itoa(volume), "-loglevel", "warning", path}
	}
	return newProcessDecoder(name, args)
}

// newStreamDecoder spawns ffplay against a network URL, matching
// original_source/pijuv2/player/streamplayer.py:play exactly (same flags,
// same -nodisp/-vn/-sn/-loglevel warning incantation).
func newStreamDecoder(url string, volume int) *processDecoder {
	args := []string{"-nodisp", "-vn", "-sn", "-volume", strconv.Itoa(volume), "-loglevel", "warning", url}
	return newProcessDecoder("ffplay", args)
}

func newProcessDecoder(name string, args []string) *processDecoder {
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, name, args...)
	return &processDecoder{cmd: cmd, cancel: cancel, done: make(chan struct{})}
}

func (d *processDecoder) Start() error {
	stderr, err := d.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("creating decoder stderr pipe: %w", err)
	}
	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("starting decoder %s: %w", d.cmd.Path, err)
	}

	go func() {
		buf := make([]byte, 1024)
		for {
			n, err := stderr.Read(buf)
			if n > 0 {
				slog.Debug("decoder output", "output", string(buf[:n]))
			}
			if err != nil {
				return
			}
		}
	}()

	go func() {
		_ = d.cmd.Wait()
		close(d.done)
	}()

	return nil
}

func (d *processDecoder) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancel()
	if d.cmd.Process != nil {
		<-d.done
	}
}

// SetVolume is a no-op after start: the external processes this decoder
// wraps don't expose a live volume control, matching the Python original
// (volume changes only take effect on the next play/resume).
func (d *processDecoder) SetVolume(v int) {}

func (d *processDecoder) Done() <-chan struct{} { return d.done }

func extOf(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return toLower(path[i:])
		}
	}
	return ""
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func volumeToMpg123Scale(volume int) string {
	// mpg123 -f takes a linear scale factor out of 32768; map the 0-100
	// percent volume range onto it.
	scale := (volume * 32768) / 100
	return strconv.Itoa(scale)
}
