package game

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// systemSender is the from-line used for engine-originated mail such as
// victory announcements.
const systemSender = "GALACTIC COUNCIL"

// Message is one piece of commander mail. Saved messages survive inbox
// eviction by moving to the archive.
type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read,omitempty"`
}

func newMessage(from, subject, body string, cfg *Config, now time.Time) Message {
	return Message{
		ID:        uuid.NewString()[:8],
		From:      strings.TrimSpace(from),
		Subject:   sanitizeInput(strings.TrimSpace(subject)),
		Body:      normalizeMailBody(body, cfg),
		CreatedAt: now.UTC(),
	}
}

func normalizeMailBody(body string, cfg *Config) string {
	cleaned := sanitizeInput(strings.TrimSpace(body))
	limit := cfg.MailBodyLimit
	if limit > 0 && len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}
	return cleaned
}

// deliverMail appends to the inbox, evicting the oldest message once the
// cap is reached.
func (c *Commander) deliverMail(msg Message, cfg *Config) {
	c.Inbox = append(c.Inbox, msg)
	limit := cfg.MailInboxLimit
	if limit > 0 && len(c.Inbox) > limit {
		c.Inbox = append(c.Inbox[:0:0], c.Inbox[len(c.Inbox)-limit:]...)
	}
}

func (c *Commander) findInbox(id string) (int, bool) {
	for i := range c.Inbox {
		if c.Inbox[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func (c *Commander) findArchive(id string) (int, bool) {
	for i := range c.Archive {
		if c.Archive[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// readMail marks a message read and returns it.
func (c *Commander) readMail(id string) (Message, bool) {
	if i, ok := c.findInbox(id); ok {
		c.Inbox[i].Read = true
		return c.Inbox[i], true
	}
	if i, ok := c.findArchive(id); ok {
		c.Archive[i].Read = true
		return c.Archive[i], true
	}
	return Message{}, false
}

// archiveMail moves an inbox message to the archive, bounded by the
// archive cap.
func (c *Commander) archiveMail(id string, cfg *Config) error {
	i, ok := c.findInbox(id)
	if !ok {
		return reject(RejectInvalidTarget, "no message %s in inbox", id)
	}
	limit := cfg.MailArchiveLimit
	if limit > 0 && len(c.Archive) >= limit {
		return reject(RejectCapacityExceeded, "archive full (%d messages)", limit)
	}
	msg := c.Inbox[i]
	c.Inbox = append(c.Inbox[:i], c.Inbox[i+1:]...)
	c.Archive = append(c.Archive, msg)
	return nil
}

// deleteMail removes a message from either box.
func (c *Commander) deleteMail(id string) error {
	if i, ok := c.findInbox(id); ok {
		c.Inbox = append(c.Inbox[:i], c.Inbox[i+1:]...)
		return nil
	}
	if i, ok := c.findArchive(id); ok {
		c.Archive = append(c.Archive[:i], c.Archive[i+1:]...)
		return nil
	}
	return reject(RejectInvalidTarget, "no message %s", id)
}
