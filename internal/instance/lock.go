// Package instance keeps a single interactive relay running per user.
//
// Two front ends capturing keys at once would interleave their queues on the
// same device and fight over the remembered selection, so the TUI and the
// window both hold an exclusive lock on a file in the data directory.
package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("another kderelay session is running")

// Lock is a held instance lock.
type Lock struct {
	path string
	file *os.File
}

// Acquire takes the lock at path without blocking. The holder's pid is
// written into the file for diagnostics.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := tryLock(f); err != nil {
		f.Close()
		if errors.Is(err, errWouldBlock) {
			if pid := Holder(path); pid > 0 {
				return nil, fmt.Errorf("%w (pid %d)", ErrLocked, pid)
			}
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	l := &Lock{path: path, file: f}
	if err := l.writePID(); err != nil {
		l.Release()
		return nil, fmt.Errorf("record pid in %s: %w", path, err)
	}
	return l, nil
}

func (l *Lock) writePID() error {
	if err := l.file.Truncate(0); err != nil {
		return err
	}
	_, err := l.file.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	return err
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release drops the lock. The file is left in place.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := unlock(l.file)
	if cerr := l.file.Close(); err == nil {
		err = cerr
	}
	l.file = nil
	return err
}

// Holder returns the pid recorded in the lock file, or 0.
func Holder(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}
