package launch

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/term"
)

// Capabilities describe what the parent process can hand to a child.
type Capabilities struct {
	// StdinTerminal reports whether stdin is an interactive terminal that
	// the child may inherit.
	StdinTerminal bool
}

// DetectCapabilities inspects the parent process once.
var DetectCapabilities = sync.OnceValue(func() Capabilities {
	return Capabilities{
		StdinTerminal: term.IsTerminal(int(os.Stdin.Fd())),
	}
})

// outputFile returns w if it can be handed to a child directly.
func outputFile(w io.Writer) (*os.File, bool) {
	f, ok := w.(*os.File)
	return f, ok
}

// relayBufferSize bounds a single write to w. Longer lines are relayed in
// pieces of this size.
const relayBufferSize = 64 * 1024

// relay copies r to w line by line until r is drained and closes done. After
// a write error the rest of r is discarded so the child never blocks on a
// full pipe.
func relay(logger *slog.Logger, r io.ReadCloser, w io.Writer, done chan<- struct{}) {
	defer close(done)
	defer r.Close()
	br := bufio.NewReaderSize(r, relayBufferSize)
	for {
		chunk, err := br.ReadSlice('\n')
		if len(chunk) > 0 {
			if _, werr := w.Write(chunk); werr != nil {
				logger.Warn("unable to relay process output, discarding the rest", "error", werr)
				_, _ = io.Copy(io.Discard, br)
				return
			}
		}
		switch {
		case err == nil, errors.Is(err, bufio.ErrBufferFull):
		case errors.Is(err, io.EOF), errors.Is(err, os.ErrClosed):
			return
		default:
			logger.Warn("unable to read process output", "error", err)
			return
		}
	}
}
