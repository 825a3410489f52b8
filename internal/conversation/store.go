package conversation

import (
	"sort"
	"sync"
	"time"
)

// Store is the in-memory model of the conversation list and the transcript
// of the one active conversation. All mutations hold the write lock; reads
// return copies.
type Store struct {
	mu          sync.RWMutex
	summaries   []Summary
	active      string
	transcript  []Message
	generation  uint64
	strictOrder bool
	now         func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for messages that carry no timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithStrictStatusOrder makes ApplyStatusUpdate ignore regressions
// (read -> delivered, delivered -> sent).
func WithStrictStatusOrder() Option {
	return func(s *Store) { s.strictOrder = true }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Applied describes what ApplyIncomingMessage changed.
type Applied struct {
	ConversationID string
	Appended       bool
	Created        bool
}

// LoadSummaries replaces the summary collection. When no conversation is
// active and the list is non-empty, the first entry becomes active and the
// returned ticket must be used to load its transcript.
func (s *Store) LoadSummaries(list []Summary) (LoadTicket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summaries = make([]Summary, len(list))
	copy(s.summaries, list)

	if s.active != "" || len(s.summaries) == 0 {
		return LoadTicket{}, false
	}
	return s.selectLocked(s.summaries[0].ID), true
}

// SelectActive makes id the active conversation, clears the transcript and
// resets the conversation's unread counter.
func (s *Store) SelectActive(id string) LoadTicket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(id)
}

func (s *Store) selectLocked(id string) LoadTicket {
	s.active = id
	s.transcript = nil
	s.generation++
	if i := s.indexLocked(id); i >= 0 {
		s.summaries[i].Unread = 0
	}
	return LoadTicket{ConversationID: id, generation: s.generation}
}

// ApplyTranscript installs a loaded transcript if the ticket still matches
// the current selection. Results of superseded loads are dropped. Entries
// appended while the load was in flight (live messages, optimistic sends)
// are kept unless the loaded history already holds their id, in which case
// the loaded copy wins but keeps the further-advanced status.
func (s *Store) ApplyTranscript(t LoadTicket, msgs []Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !t.Valid() || t.ConversationID != s.active || t.generation != s.generation {
		return false
	}

	loaded := make(map[string]int, len(msgs))
	merged := make([]Message, 0, len(msgs)+len(s.transcript))
	for _, m := range msgs {
		if !m.ID.IsProvisional() {
			loaded[m.ID.String()] = len(merged)
		}
		merged = append(merged, m.clone())
	}
	for _, m := range s.transcript {
		if !m.ID.IsProvisional() {
			if i, ok := loaded[m.ID.String()]; ok {
				if m.Status.rank() > merged[i].Status.rank() {
					merged[i].Status = m.Status
				}
				continue
			}
		}
		merged = append(merged, m)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	s.transcript = merged
	return true
}

// ApplyIncomingMessage records a message that arrived from the event source.
// An empty conversationID addresses the active conversation. A message
// without a timestamp is stamped with the arrival time.
func (s *Store) ApplyIncomingMessage(msg Message, conversationID string) Applied {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	if conversationID == "" {
		conversationID = s.active
	}
	if conversationID == "" {
		return Applied{}
	}

	res := Applied{ConversationID: conversationID}
	i := s.indexLocked(conversationID)
	if i < 0 {
		s.summaries = append(s.summaries, Summary{ID: conversationID})
		i = len(s.summaries) - 1
		res.Created = true
	}

	s.summaries[i].Preview = PreviewText(msg)
	s.summaries[i].PreviewAt = msg.Timestamp

	if conversationID == s.active {
		s.insertLocked(msg.clone())
		res.Appended = true
	} else {
		s.summaries[i].Unread++
	}
	s.touchLocked(i)
	return res
}

// Describe fills in the counterpart details of a summary that lacks them.
func (s *Store) Describe(conversationID, name, address, avatar string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(conversationID)
	if i < 0 {
		return false
	}
	sum := &s.summaries[i]
	if sum.Name == "" {
		sum.Name = name
	}
	if sum.Address == "" {
		sum.Address = address
	}
	if sum.Avatar == "" {
		sum.Avatar = avatar
	}
	return true
}

// ApplyStatusUpdate overwrites the status of a confirmed message in the
// active transcript. Unknown ids are ignored.
func (s *Store) ApplyStatusUpdate(messageID string, status Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.transcript {
		m := &s.transcript[i]
		if m.ID.IsProvisional() || m.ID.String() != messageID {
			continue
		}
		if s.strictOrder && status.rank() < m.Status.rank() {
			return false
		}
		m.Status = status
		return true
	}
	return false
}

// AppendOptimistic appends a provisional message to the transcript of
// conversationID. It is a no-op when that conversation is not active.
func (s *Store) AppendOptimistic(conversationID string, msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conversationID == "" || conversationID != s.active {
		return false
	}
	s.transcript = append(s.transcript, msg.clone())
	return true
}

// Reconcile resolves a provisional message: on success it is replaced in
// place by the confirmed id and status, on failure it is removed.
func (s *Store) Reconcile(provisionalID MessageID, out Outcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.transcript {
		m := &s.transcript[i]
		if !m.ID.IsProvisional() || m.ID != provisionalID {
			continue
		}
		if !out.OK() {
			s.transcript = append(s.transcript[:i], s.transcript[i+1:]...)
			return true
		}
		m.ID = Confirmed(out.ConfirmedID)
		m.Status = out.Status
		if m.Status == "" {
			m.Status = StatusSent
		}
		return true
	}
	return false
}

// UpdatePreview refreshes a summary after a local send was confirmed.
func (s *Store) UpdatePreview(conversationID, text string, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(conversationID)
	if i < 0 {
		return false
	}
	s.summaries[i].Preview = text
	s.summaries[i].PreviewAt = at
	s.touchLocked(i)
	return true
}

// ActiveID returns the active conversation id, or empty.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Summary returns a copy of one summary.
func (s *Store) Summary(id string) (Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return Summary{}, false
	}
	return s.summaries[i], true
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		ActiveID:   s.active,
		Summaries:  make([]Summary, len(s.summaries)),
		Transcript: make([]Message, len(s.transcript)),
	}
	copy(v.Summaries, s.summaries)
	for i, m := range s.transcript {
		v.Transcript[i] = m.clone()
	}
	return v
}

func (s *Store) indexLocked(id string) int {
	for i := range s.summaries {
		if s.summaries[i].ID == id {
			return i
		}
	}
	return -1
}

// touchLocked moves summary i to the front of the list.
func (s *Store) touchLocked(i int) {
	if i <= 0 {
		return
	}
	sum := s.summaries[i]
	copy(s.summaries[1:i+1], s.summaries[:i])
	s.summaries[0] = sum
}

// insertLocked appends msg, or inserts it after every message with a
// timestamp not later than its own when it arrives out of order.
func (s *Store) insertLocked(msg Message) {
	n := len(s.transcript)
	if n == 0 || !msg.Timestamp.Before(s.transcript[n-1].Timestamp) {
		s.transcript = append(s.transcript, msg)
		return
	}
	pos := sort.Search(n, func(i int) bool {
		return s.transcript[i].Timestamp.After(msg.Timestamp)
	})
	s.transcript = append(s.transcript, Message{})
	copy(s.transcript[pos+1:], s.transcript[pos:n])
	s.transcript[pos] = msg
}

// PreviewText is the summary preview for m.
func PreviewText(m Message) string {
	if m.Body == "" && m.Kind == KindTemplate {
		return "Template: " + m.TemplateName
	}
	return m.Body
}
