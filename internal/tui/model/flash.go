package model

import (
	"sync"
	"time"
)

// FlashLevel is the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

// TTL returns how long a message of this level stays visible.
func (l FlashLevel) TTL() time.Duration {
	switch l {
	case FlashWarn:
		return 8 * time.Second
	case FlashErr:
		return 10 * time.Second
	default:
		return 5 * time.Second
	}
}

// FlashMessage is a transient notification.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
}

// Flash holds the current transient notification.
type Flash struct {
	mu      sync.RWMutex
	current FlashMessage
	now     func() time.Time
	watchCh chan FlashMessage
}

// NewFlash creates an empty flash model.
func NewFlash() *Flash {
	return &Flash{now: time.Now, watchCh: make(chan FlashMessage, 8)}
}

// Info shows an informational message.
func (f *Flash) Info(msg string) { f.Set(msg, FlashInfo) }

// Warn shows a warning.
func (f *Flash) Warn(msg string) { f.Set(msg, FlashWarn) }

// Err shows an error.
func (f *Flash) Err(err error) {
	if err == nil {
		return
	}
	f.Set(err.Error(), FlashErr)
}

// Set shows msg at the given level for the level's TTL.
func (f *Flash) Set(msg string, level FlashLevel) {
	fm := FlashMessage{Text: msg, Level: level, Expires: f.now().Add(level.TTL())}
	f.mu.Lock()
	f.current = fm
	f.mu.Unlock()
	select {
	case f.watchCh <- fm:
	default:
	}
}

// Message returns the current message, or nil once it has expired.
func (f *Flash) Message() *FlashMessage {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current.Text == "" || f.now().After(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}

// Watch delivers every message as it is set. Sends never block; a slow
// reader misses intermediate messages.
func (f *Flash) Watch() <-chan FlashMessage {
	return f.watchCh
}
