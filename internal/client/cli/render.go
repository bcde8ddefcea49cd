package cli

import (
	"fmt"

	"github.com/dmitrijs2005/ttychat/internal/chat"
)

var urgentDecoyMessages = []string{
	"SYSTEM ALERT: High-frequency data burst detected.",
	"COMPILING KERNEL MODULE...",
	"WARNING: Unrecognized peer signature.",
	"ENCRYPTION LAYER RE-KEYING...",
	"RUNNING DIAGNOSTICS... PLEASE WAIT.",
	"PEER CONNECTION UNSTABLE. ATTEMPTING TO RE-ESTABLISH.",
	"*** REMOTE PROCESS EXCEEDED CPU QUOTA ***",
	"FLUSHING MEMORY CACHE TO DISK...",
	"SECURITY AUDIT IN PROGRESS...",
	"NETWORK LATENCY SPIKE DETECTED. ANALYZING...",
}

const (
	ownPrefix  = "root@root:$~ "
	peerPrefix = "sudo@root:$~ "
)

// urgentDecoy picks a stable alert for an urgent entry so every client
// shows the same line for the same id.
func urgentDecoy(id string) string {
	sum := 0
	for _, r := range id {
		sum += int(r)
	}
	return urgentDecoyMessages[sum%len(urgentDecoyMessages)]
}

// renderMessage returns the terminal line for m, or false when the entry
// is not shown on this side.
func renderMessage(m chat.Message, sessionID string) (string, bool) {
	own := m.SessionID == sessionID

	switch m.Text {
	case chat.EmergencyText:
		return m.Text, true
	case chat.UrgentText:
		if own {
			return "", false
		}
		return urgentDecoy(m.ID), true
	}

	if m.Type == chat.TypeImage || m.Type == chat.TypeVideo {
		name := m.Filename
		if name == "" {
			name = string(m.Type) + ".file"
		}
		switch {
		case own:
			return fmt.Sprintf("%sSent %s: %s", ownPrefix, m.Type, name), true
		case m.LocalPath != "":
			return fmt.Sprintf("%sReceived %s: %s (%s)", peerPrefix, m.Type, name, m.LocalPath), true
		default:
			return fmt.Sprintf("%sReceiving %s: %s...", peerPrefix, m.Type, name), true
		}
	}

	if own {
		return ownPrefix + m.Text, true
	}
	return peerPrefix + m.Text, true
}

// renderer turns successive chat snapshots into the lines that a
// scrolling terminal has not shown yet. A message is printed again only
// when its rendering changes, as when a pending file arrives.
type renderer struct {
	sessionID string
	shown     map[string]string
}

func newRenderer(sessionID string) *renderer {
	return &renderer{sessionID: sessionID, shown: make(map[string]string)}
}

func (r *renderer) update(msgs []chat.Message) []string {
	if len(msgs) == 0 {
		r.shown = make(map[string]string)
		return nil
	}

	var out []string
	present := make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		present[m.ID] = struct{}{}
		line, ok := renderMessage(m, r.sessionID)
		if !ok || r.shown[m.ID] == line {
			continue
		}
		r.shown[m.ID] = line
		out = append(out, line)
	}
	for id := range r.shown {
		if _, ok := present[id]; !ok {
			delete(r.shown, id)
		}
	}
	return out
}
