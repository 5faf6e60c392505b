package commons

import (
	"github.com/google/uuid"
)

// Message represents the message sent over the wire.
type Message struct {
	Username string `json:"username"`

	// Text carries join announcements and the list of active users.
	Text string `json:"text"`

	// Type represents the message type.
	Type MessageType `json:"type"`

	// ID represents the sender's UUID, set by the hub.
	ID uuid.UUID `json:"ID"`

	// Operation is the payload of applyContent and contentChanged messages.
	Operation Operation `json:"operation"`

	// Documents maps editor names to their latest html. Only docSync carries it.
	Documents map[string]string `json:"documents,omitempty"`
}

// MessageType represents the type of the message.
type MessageType string

// richpad supports 6 message types:
// - join (for joining messages)
// - users (for the list of active users)
// - applyContent (host command, fanned out to every editor)
// - contentChanged (an editor's committed html)
// - docSync (snapshot of every editor's stream)
// - docReq (for requesting a docSync)

const (
	JoinMessage           MessageType = "join"
	UsersMessage          MessageType = "users"
	ApplyContentMessage   MessageType = "applyContent"
	ContentChangedMessage MessageType = "contentChanged"
	DocSyncMessage        MessageType = "docSync"
	DocReqMessage         MessageType = "docReq"
)
