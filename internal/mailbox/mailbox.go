// Package mailbox is the IMAP transport collaborator: one session per
// detection or refresh operation, blocking calls, no retries. Connection
// and authentication failures carry distinct types so callers can present
// an actionable message.
package mailbox

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// ConnectionError reports a failure to reach the IMAP server.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthError reports rejected credentials, distinguished from transport
// failures so configuration UIs can show a specific message.
type AuthError struct {
	User string
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.User, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsAuth reports whether err is (or wraps) an authentication failure.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// Client is one open, authenticated IMAP session.
type Client struct {
	c      *client.Client
	folder string
}

// Connect dials the server over TLS, logs in, and returns a session bound
// to the given folder (INBOX when empty).
func Connect(server string, port int, user, password, folder string) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", server, port)

	log.Printf("Connecting to IMAP server %s...", addr)

	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}

	if err := c.Login(user, password); err != nil {
		c.Logout()
		return nil, &AuthError{User: user, Err: err}
	}

	if folder == "" {
		folder = "INBOX"
	}
	return &Client{c: c, folder: folder}, nil
}

// ListMessageIDs selects the folder and returns every message sequence
// number, oldest to newest.
func (m *Client) ListMessageIDs() ([]uint32, error) {
	mbox, err := m.c.Select(m.folder, true)
	if err != nil {
		return nil, fmt.Errorf("failed to select mailbox %s: %w", m.folder, err)
	}

	ids := make([]uint32, 0, mbox.Messages)
	for i := uint32(1); i <= mbox.Messages; i++ {
		ids = append(ids, i)
	}
	return ids, nil
}

// FetchRaw returns the full RFC822 bytes of one message without marking it
// as read.
func (m *Client) FetchRaw(id uint32) ([]byte, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(id)

	section := &imap.BodySectionName{Peek: true}
	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- m.c.Fetch(seqSet, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	var raw []byte
	for msg := range messages {
		if r := msg.GetBody(section); r != nil {
			raw, _ = io.ReadAll(r)
		}
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch message %d: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("message %d has no body", id)
	}
	return raw, nil
}

// Close logs out and ends the session.
func (m *Client) Close() error {
	return m.c.Logout()
}
