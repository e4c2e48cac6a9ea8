package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// generationPlaceholder marks the generation index in a fixed window pattern
const generationPlaceholder = "{}"

// roller moves the active log file out of the way once it exceeds its size limit
type roller interface {
	roll(filename string) error
}

// deleteRoller discards the active file on rollover
type deleteRoller struct{}

func (deleteRoller) roll(filename string) error {
	if err := os.Remove(filename); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// fixedWindowRoller keeps at most count generations named by pattern.
// Generation 0 is the active file; rolling shifts i to i+1 and drops the oldest.
// The index goes where the last placeholder is, so "{}" elsewhere in the
// path is kept literally.
type fixedWindowRoller struct {
	prefix string
	suffix string
	count  int
}

func newFixedWindowRoller(pattern string, count int) (*fixedWindowRoller, error) {
	if !strings.Contains(pattern, generationPlaceholder) {
		return nil, fmt.Errorf("pattern %q has no %s placeholder", pattern, generationPlaceholder)
	}
	if count <= 0 {
		return nil, fmt.Errorf("generation count must be positive, got %d", count)
	}
	at := strings.LastIndex(pattern, generationPlaceholder)
	return &fixedWindowRoller{
		prefix: pattern[:at],
		suffix: pattern[at+len(generationPlaceholder):],
		count:  count,
	}, nil
}

func (f *fixedWindowRoller) generation(i int) string {
	return f.prefix + strconv.Itoa(i) + f.suffix
}

func (f *fixedWindowRoller) roll(filename string) error {
	oldest := f.generation(f.count - 1)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		return err
	}
	for i := f.count - 2; i >= 1; i-- {
		src := f.generation(i)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := os.Rename(src, f.generation(i+1)); err != nil {
			return err
		}
	}
	if f.count == 1 {
		return deleteRoller{}.roll(filename)
	}
	return os.Rename(filename, f.generation(1))
}

type rollingFile struct {
	filename string
	maxSize  int64
	roller   roller
	mu       sync.Mutex
	file     *os.File
	size     int64
}

// newRollingFile opens filename eagerly so open failures surface to the caller.
func newRollingFile(filename string, maxSize int64, r roller) (*rollingFile, error) {
	rf := &rollingFile{
		filename: filename,
		maxSize:  maxSize,
		roller:   r,
	}
	if err := rf.open(); err != nil {
		return nil, err
	}
	return rf, nil
}

// Write appends p and rolls the file once it grows past maxSize.
func (r *rollingFile) Write(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.open(); err != nil {
			return 0, err
		}
	}

	n, err = r.file.Write(p)
	r.size += int64(n)
	if err != nil {
		return n, err
	}

	if r.maxSize > 0 && r.size > r.maxSize {
		if rerr := r.rotate(); rerr != nil {
			fmt.Fprintf(os.Stderr, "log rotation failed for %s: %v\n", r.filename, rerr)
		}
	}
	return n, nil
}

func (r *rollingFile) open() error {
	dir := filepath.Dir(r.filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log dir %s: %w", dir, err)
	}
	file, err := os.OpenFile(r.filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", r.filename, err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat log file %s: %w", r.filename, err)
	}
	r.file = file
	r.size = stat.Size()
	return nil
}

// rotate closes the active file, hands it to the roller and reopens an empty one.
// The caller must hold the mutex.
func (r *rollingFile) rotate() error {
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}
	rollErr := r.roller.roll(r.filename)
	if err := r.open(); err != nil {
		return err
	}
	return rollErr
}

func (r *rollingFile) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		return r.file.Sync()
	}
	return nil
}

func (r *rollingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
