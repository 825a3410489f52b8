package conversation

// MessageID identifies a message either by a locally assigned provisional id
// or by the id the backend confirmed on delivery.
type MessageID struct {
	value       string
	provisional bool
}

// Provisional returns a locally assigned id for an optimistic message.
func Provisional(localID string) MessageID {
	return MessageID{value: localID, provisional: true}
}

// Confirmed returns a backend-assigned id.
func Confirmed(serverID string) MessageID {
	return MessageID{value: serverID}
}

// IsProvisional reports whether the id has not been confirmed yet.
func (id MessageID) IsProvisional() bool { return id.provisional }

// IsZero reports whether the id is unset.
func (id MessageID) IsZero() bool { return id.value == "" }

// String returns the raw id value.
func (id MessageID) String() string { return id.value }
