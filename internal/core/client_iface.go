package core

// Frame is a raw encoded payload bound for one client.
type Frame []byte

// SessionID identifies one client's connection to the gateway transport.
// It lives exactly as long as that transport connection.
type SessionID string

// ClientConn abstracts the client-side messaging transport.
// Owned by the adapter; the adapter must Close() it.
type ClientConn interface {
	TrySend(Frame) error
	Close()
}
