package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hejijunhao/khmerid/internal/model"
)

// imagePool recycles the buffers that hold frame images between release and
// the next read.
var imagePool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// Dir emits one frame per regular file in a directory, in lexical order.
// ".txt" files become text frames; anything else is treated as an image.
type Dir struct {
	path string
	opts options

	unreadable atomic.Int64

	mu  sync.Mutex
	err error
}

// NewDir creates a directory source.
func NewDir(path string, opts ...Option) *Dir {
	return &Dir{path: path, opts: buildOptions(opts)}
}

func (d *Dir) Frames(ctx context.Context) (<-chan model.Frame, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("dir source: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	ch := make(chan model.Frame, d.opts.buffer)
	go func() {
		defer close(ch)
		for i, name := range names {
			if err := d.opts.admit(ctx); err != nil {
				d.setErr(err)
				return
			}
			f, err := d.read(uint64(i+1), name)
			if err != nil {
				slog.Warn("dir source: skipping file", "file", name, "error", err)
				d.unreadable.Add(1)
				continue
			}
			if !send(ctx, ch, f) {
				return
			}
		}
	}()
	return ch, nil
}

func (d *Dir) read(id uint64, name string) (model.Frame, error) {
	full := filepath.Join(d.path, name)
	fh, err := os.Open(full)
	if err != nil {
		return model.Frame{}, err
	}
	defer fh.Close()

	buf := imagePool.Get().(*bytes.Buffer)
	buf.Reset()
	if _, err := io.Copy(buf, fh); err != nil {
		imagePool.Put(buf)
		return model.Frame{}, fmt.Errorf("read %s: %w", full, err)
	}

	if strings.EqualFold(filepath.Ext(name), ".txt") {
		f := model.NewFrame(id, d.opts.clock(), name, nil)
		f.Text = buf.String()
		imagePool.Put(buf)
		return f, nil
	}

	f := model.NewFrame(id, d.opts.clock(), name, func() { imagePool.Put(buf) })
	f.Image = buf.Bytes()
	return f, nil
}

// Err returns the error that ended the stream early, or nil. Unreadable
// files are skipped and counted by Unreadable instead.
func (d *Dir) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Unreadable returns how many files could not be read and were skipped.
func (d *Dir) Unreadable() int64 {
	return d.unreadable.Load()
}

func (d *Dir) setErr(err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
}
