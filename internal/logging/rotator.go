package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// RotatingFile is an io.Writer over a log file that is rotated when it
// would exceed the configured size or when the day changes.
type RotatingFile struct {
	path       string
	maxBytes   int64
	maxBackups int
	maxAge     time.Duration
	compress   bool

	mu     sync.Mutex
	file   *os.File
	size   int64
	opened time.Time
	now    func() time.Time
}

// OpenRotatingFile opens cfg.FilePath for appending, creating its directory.
func OpenRotatingFile(cfg *Config) (*RotatingFile, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	r := &RotatingFile{
		path:       cfg.FilePath,
		maxBytes:   cfg.MaxSize * 1024 * 1024,
		maxBackups: cfg.MaxBackups,
		maxAge:     time.Duration(cfg.MaxAge) * 24 * time.Hour,
		compress:   cfg.Compress,
		now:        time.Now,
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RotatingFile) open() error {
	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	r.file = file
	r.size = info.Size()
	r.opened = r.now()
	return nil
}

// Write implements io.Writer.
func (r *RotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.open(); err != nil {
			return 0, err
		}
	}

	if r.due(int64(len(p))) {
		if err := r.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log: %w", err)
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *RotatingFile) due(n int64) bool {
	if r.size == 0 {
		return false
	}
	if r.maxBytes > 0 && r.size+n > r.maxBytes {
		return true
	}
	y1, m1, d1 := r.opened.Date()
	y2, m2, d2 := r.now().Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}

func (r *RotatingFile) rotate() error {
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("close current log: %w", err)
	}
	r.file = nil

	name, ext := r.stem()
	rotated := filepath.Join(filepath.Dir(r.path),
		fmt.Sprintf("%s-%s%s", name, r.now().Format("20060102-150405.000"), ext))

	if err := os.Rename(r.path, rotated); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rename log file: %w", err)
	}
	if r.compress {
		if err := gzipFile(rotated); err != nil {
			return err
		}
	}

	if err := r.open(); err != nil {
		return err
	}
	r.prune()
	return nil
}

func (r *RotatingFile) stem() (string, string) {
	base := filepath.Base(r.path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext), ext
}

// gzipFile replaces path with path.gz.
func gzipFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open rotated log: %w", err)
	}
	defer in.Close()

	out, err := os.Create(path + ".gz")
	if err != nil {
		return fmt.Errorf("create compressed log: %w", err)
	}

	gz := gzip.NewWriter(out)
	gz.Name = filepath.Base(path)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		out.Close()
		os.Remove(path + ".gz")
		return fmt.Errorf("compress log: %w", err)
	}
	if err := gz.Close(); err != nil {
		out.Close()
		os.Remove(path + ".gz")
		return fmt.Errorf("compress log: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close compressed log: %w", err)
	}
	return os.Remove(path)
}

// prune removes backups beyond the count and age limits, oldest first.
func (r *RotatingFile) prune() {
	backups := r.backups()
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].mod.Before(backups[j].mod)
	})

	if r.maxBackups > 0 && len(backups) > r.maxBackups {
		for _, b := range backups[:len(backups)-r.maxBackups] {
			os.Remove(b.path)
		}
		backups = backups[len(backups)-r.maxBackups:]
	}

	if r.maxAge > 0 {
		cutoff := r.now().Add(-r.maxAge)
		for _, b := range backups {
			if b.mod.Before(cutoff) {
				os.Remove(b.path)
			}
		}
	}
}

type backup struct {
	path string
	mod  time.Time
}

func (r *RotatingFile) backups() []backup {
	name, ext := r.stem()
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(r.path), name+"-*"+ext+"*"))
	if err != nil {
		return nil
	}
	out := make([]backup, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		out = append(out, backup{path: m, mod: info.ModTime()})
	}
	return out
}

// Files returns the current log file followed by its rotated backups.
func (r *RotatingFile) Files() []string {
	files := []string{r.path}
	for _, b := range r.backups() {
		files = append(files, b.path)
	}
	return files
}

// Close closes the underlying file.
func (r *RotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}

// Sync flushes the underlying file.
func (r *RotatingFile) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		return r.file.Sync()
	}
	return nil
}
