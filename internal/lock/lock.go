package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const fileName = "LOCK"

// HeldError is returned when another daemon owns the profile directory.
type HeldError struct {
	PID  int
	Path string
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("profile lock held by PID %d (%s)", e.PID, e.Path)
}

// Info is the content of a lock file.
type Info struct {
	PID      int
	Profile  string
	Acquired time.Time
}

// Lock is an acquired profile lock file.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes an exclusive flock on dir/LOCK and records the owner.
func Acquire(dir, profile string) (*Lock, error) {
	lockPath := filepath.Join(dir, fileName)

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		info, _ := Inspect(dir)
		_ = f.Close()
		return nil, &HeldError{PID: info.PID, Path: lockPath}
	}

	if err := f.Truncate(0); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, 0); err != nil {
		_ = f.Close()
		return nil, err
	}
	content := fmt.Sprintf("pid=%d\nprofile=%s\ntime=%s\n", os.Getpid(), profile, time.Now().UTC().Format(time.RFC3339))
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return nil, err
	}

	return &Lock{file: f, path: lockPath}, nil
}

// Inspect reads the lock file in dir without taking the lock.
func Inspect(dir string) (Info, error) {
	data, err := os.ReadFile(filepath.Join(dir, fileName))
	if err != nil {
		return Info{}, err
	}
	return parse(string(data)), nil
}

// IsHeld reports whether another process currently owns the lock in dir.
func IsHeld(dir string) bool {
	f, err := os.OpenFile(filepath.Join(dir, fileName), os.O_RDWR, 0600)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()
	err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err == nil {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		return false
	}
	return errors.Is(err, syscall.EWOULDBLOCK)
}

// Release releases the lock. Safe to call on nil receiver.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = os.Remove(l.path)
	err := l.file.Close()
	l.file = nil
	return err
}

func parse(content string) Info {
	var info Info
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			info.PID, _ = strconv.Atoi(value)
		case "profile":
			info.Profile = value
		case "time":
			info.Acquired, _ = time.Parse(time.RFC3339, value)
		}
	}
	return info
}
