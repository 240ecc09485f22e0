package fetch

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/muesli/cancelreader"
)

// source yields the byte stream for one pass. Close releases whatever
// the pass held, for commands that includes reaping the process.
// abort unblocks a read in flight so an abandoned pass cannot wedge
// shutdown.
type source interface {
	io.Reader
	io.Closer
	abort()
}

// open produces the pass input: the configured command's stdout, or
// the fallback reader (stdin by default) when no command is set.
func (o Options) open() (source, error) {
	if len(o.Command) > 0 {
		return startCommand(strings.Join(o.Command, " "))
	}
	in := o.Stdin
	if in == nil {
		in = os.Stdin
	}
	if cr, err := cancelreader.NewReader(in); err == nil {
		return readerSource{Reader: cr, cr: cr}, nil
	}
	return readerSource{Reader: in}, nil
}

// readerSource reads the fallback input through a cancelable wrapper
// when one can be built, so abort can interrupt a blocked read. Close
// releases the wrapper only, the input itself stays open for the
// next pass.
type readerSource struct {
	io.Reader
	cr cancelreader.CancelReader
}

func (s readerSource) Close() error {
	if s.cr != nil {
		return s.cr.Close()
	}
	return nil
}

func (s readerSource) abort() {
	if s.cr != nil {
		s.cr.Cancel()
	}
}

// cmdSource runs one shell command per pass and reads its stdout.
// Stderr is captured so a failing command can explain itself in the
// pass error instead of scribbling over the UI.
type cmdSource struct {
	cmd    *exec.Cmd
	out    io.ReadCloser
	stderr bytes.Buffer

	once sync.Once
	werr error
}

func startCommand(command string) (*cmdSource, error) {
	s := &cmdSource{cmd: shellCommand(command)}
	s.cmd.Stderr = &s.stderr

	out, err := s.cmd.StdoutPipe()
	if err != nil {
		return nil, &TransportError{Op: "pipe", Err: err}
	}
	s.out = out

	if err := s.cmd.Start(); err != nil {
		return nil, &TransportError{Op: "start", Err: err}
	}
	return s, nil
}

func (s *cmdSource) Read(p []byte) (int, error) {
	return s.out.Read(p)
}

// abort kills the command and cuts the pipe. Closing the read end
// also evicts a Read already parked on it, which matters when the
// killed shell leaves a grandchild holding the write end.
func (s *cmdSource) abort() {
	_ = s.cmd.Process.Kill()
	_ = s.out.Close()
}

// Close reaps the command. A close before EOF cuts the pipe, which
// ends a still-running command. A nonzero exit becomes a transport
// error carrying the command's last stderr line.
func (s *cmdSource) Close() error {
	s.once.Do(func() {
		s.out.Close()
		err := s.cmd.Wait()
		if err == nil {
			return
		}
		if msg := lastLine(s.stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		s.werr = &TransportError{Op: "command", Err: err}
	})
	return s.werr
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
