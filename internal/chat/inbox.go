package chat

// signal is one transport callback waiting to be applied.
type signal struct {
	frame   string
	isFrame bool
	up      bool
}

// Inbox queues transport callbacks for the controller's event goroutine.
// It implements transport.Handler. Enqueueing blocks when the queue is
// full, so no frame is ever dropped.
type Inbox struct {
	ch chan signal
}

// NewInbox creates an inbox with the given buffer size.
func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = 256
	}
	return &Inbox{ch: make(chan signal, size)}
}

// HandleFrame queues a text frame.
func (in *Inbox) HandleFrame(text string) {
	in.ch <- signal{frame: text, isFrame: true}
}

// HandleConnectivity queues a connectivity change.
func (in *Inbox) HandleConnectivity(up bool) {
	in.ch <- signal{up: up}
}
