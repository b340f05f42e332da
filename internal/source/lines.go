package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hejijunhao/khmerid/internal/model"
)

const maxLineSize = 1024 * 1024

// Lines reads one frame of recognized text per line. A line may start with a
// timestamp token: "@<millis>" (offset from the first frame's clock reading)
// or an RFC 3339 time. Blank lines are skipped.
type Lines struct {
	r    io.Reader
	name string
	opts options

	mu  sync.Mutex
	err error
}

// NewLines creates a line source reading from r. name labels the frames.
func NewLines(r io.Reader, name string, opts ...Option) *Lines {
	return &Lines{r: r, name: name, opts: buildOptions(opts)}
}

func (l *Lines) Frames(ctx context.Context) (<-chan model.Frame, error) {
	ch := make(chan model.Frame, l.opts.buffer)
	go func() {
		defer close(ch)
		l.setErr(l.run(ctx, ch))
	}()
	return ch, nil
}

func (l *Lines) run(ctx context.Context, ch chan<- model.Frame) error {
	done := make(chan struct{})
	defer close(done)
	lines, scanErr := l.scan(done)

	var (
		id    uint64
		epoch time.Time
	)
	for {
		var raw string
		select {
		case <-ctx.Done():
			if c, ok := l.r.(io.Closer); ok {
				c.Close()
			}
			return ctx.Err()
		case s, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return fmt.Errorf("lines source %s: %w", l.name, err)
				}
				return nil
			}
			raw = s
		}

		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if err := l.opts.admit(ctx); err != nil {
			return err
		}

		now := l.opts.clock()
		if epoch.IsZero() {
			epoch = now
		}
		at, text := splitTimestamp(line, epoch, now)

		id++
		f := model.NewFrame(id, at, l.name, nil)
		f.Text = text
		if !send(ctx, ch, f) {
			return ctx.Err()
		}
	}
}

// scan reads lines from l.r until EOF, a read error, or done is closed. A
// read blocked on an idle reader that is not an io.Closer outlives run until
// the reader returns.
func (l *Lines) scan(done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(l.r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		errc <- sc.Err()
	}()
	return lines, errc
}

// Err returns the error that ended the stream, or nil once the input was
// fully consumed. Cancellation is not reported as an error.
func (l *Lines) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *Lines) setErr(err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
}

// splitTimestamp peels an optional leading timestamp token off line. A token
// that looks like a timestamp but does not parse is kept as text, and the
// line is stamped now.
func splitTimestamp(line string, epoch, now time.Time) (time.Time, string) {
	token, rest, _ := strings.Cut(line, " ")
	switch {
	case strings.HasPrefix(token, "@"):
		if ms, err := strconv.ParseInt(token[1:], 10, 64); err == nil {
			return epoch.Add(time.Duration(ms) * time.Millisecond), rest
		}
	case len(token) >= len("2006-01-02T15:04:05Z") && token[4] == '-' && token[10] == 'T':
		if at, err := time.Parse(time.RFC3339Nano, token); err == nil {
			return at, rest
		}
	}
	return now, line
}
