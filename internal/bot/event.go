package bot

import "github.com/mconcas/pantrybot-backend/internal/session"

// Kind discriminates inbound events at the transport boundary.
type Kind string

const (
	KindCommand  Kind = "command"
	KindCallback Kind = "callback"
	KindText     Kind = "text"
	KindScan     Kind = "scan"
)

// ChatType mirrors the transport's chat classification; anything that is
// not private is treated as a group for ownership purposes.
const ChatTypePrivate = "private"

// Event is one normalized inbound interaction. The transport adapter fills
// exactly the fields its kind uses: Command/Args for commands, Token for
// callbacks, Text for free text, ScanData for scanner payloads.
type Event struct {
	Kind     Kind
	ChatID   int64
	UserID   int64
	ChatType string
	UserName string

	Command  string
	Args     []string
	Token    string
	Text     string
	ScanData []byte
}

// SessionKey scopes scratch state per user within a chat.
func (e Event) SessionKey() session.Key {
	return session.Key{ChatID: e.ChatID, UserID: e.UserID}
}

// OwnerID partitions inventory: the chat owns it in groups, the user in
// private chats. Deep-link overrides are applied on top by the scan flow.
func (e Event) OwnerID() int64 {
	if e.ChatType != "" && e.ChatType != ChatTypePrivate {
		return e.ChatID
	}
	return e.UserID
}
