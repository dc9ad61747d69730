// Package ws implements the duplex event channel: connections
// authenticate, subscribe to a single task, receive a full snapshot
// and then the live event stream for that task.
package ws

// inboundMessage is the envelope for client-to-server frames. Type is
// "auth" or "subscribe"; the remaining fields apply per type.
type inboundMessage struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	Token    string `json:"token,omitempty"`
	TaskID   string `json:"taskId,omitempty"`
}

// authSuccessMessage acknowledges a successful auth frame.
type authSuccessMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

// errorMessage reports a rejected auth or subscribe frame back to the
// client. The message is already client-safe; the connection stays
// open.
type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
