// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/pitchlab/eartrainer/session"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// Notifier delivers server pushes. Match events go to the owning session;
// snapshot updates fan out to every session of the user so a second tab
// sees the same recovery slot.
type Notifier interface {
	SendToSession(sessionID string, msgID uint16, data []byte) error
	SendToUser(userID int64, msgID uint16, data []byte) error
}

// SessionNotifier routes pushes through the session manager.
type SessionNotifier struct {
	sessions *session.Manager
}

func NewSessionNotifier(sessions *session.Manager) *SessionNotifier {
	return &SessionNotifier{sessions: sessions}
}

func (n *SessionNotifier) SendToSession(sessionID string, msgID uint16, data []byte) error {
	sess, exists := n.sessions.Get(sessionID)
	if !exists {
		return ErrSessionNotFound
	}
	return sess.Send(msgID, data)
}

func (n *SessionNotifier) SendToUser(userID int64, msgID uint16, data []byte) error {
	for _, sess := range n.sessions.GetByUserID(userID) {
		if err := sess.Send(msgID, data); err != nil {
			// Keep delivering to the user's other sessions.
			continue
		}
	}
	return nil
}
