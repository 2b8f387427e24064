package game

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestSendMailDelivery(t *testing.T) {
	w := newTestWorld(t)
	sender := seedTestCommander(t, w, "Halsey")
	recipient := seedTestCommander(t, w, "Nimitz")

	data, err := w.SendMail(sender.Name, recipient.Name, "Rendezvous", "Meet me at Drift Anchorage.")
	if err != nil {
		t.Fatalf("SendMail returned error: %v", err)
	}
	id, _ := data["id"].(string)
	if id == "" {
		t.Fatalf("SendMail returned no message id")
	}

	inbox, _, err := w.Mailbox(recipient.Name)
	if err != nil {
		t.Fatalf("Mailbox returned error: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("inbox has %d messages, want 1", len(inbox))
	}
	if inbox[0].From != "Halsey" || inbox[0].Read {
		t.Fatalf("delivered message = %+v, want unread from Halsey", inbox[0])
	}

	msg, err := w.ReadMail(recipient.Name, id)
	if err != nil {
		t.Fatalf("ReadMail returned error: %v", err)
	}
	if !msg.Read {
		t.Fatalf("ReadMail did not mark the message read")
	}
}

func TestSendMailRequiresBody(t *testing.T) {
	w := newTestWorld(t)
	sender := seedTestCommander(t, w, "Spruance")
	recipient := seedTestCommander(t, w, "Fletcher")

	_, err := w.SendMail(sender.Name, recipient.Name, "empty", "   ")
	if RejectionCode(err) != RejectInvalidRequest {
		t.Fatalf("bodyless mail error = %v, want INVALID_REQUEST", err)
	}
}

func TestInboxEvictsOldestAtCap(t *testing.T) {
	w := newTestWorld(t)
	c := seedTestCommander(t, w, "Burke")

	for i := 0; i < w.cfg.MailInboxLimit+3; i++ {
		msg := newMessage(systemSender, fmt.Sprintf("notice %d", i), "body", &w.cfg, w.now())
		c.deliverMail(msg, &w.cfg)
	}
	if len(c.Inbox) != w.cfg.MailInboxLimit {
		t.Fatalf("inbox length = %d, want %d", len(c.Inbox), w.cfg.MailInboxLimit)
	}
	if c.Inbox[0].Subject != "notice 3" {
		t.Fatalf("oldest surviving subject = %q, want notice 3", c.Inbox[0].Subject)
	}
}

func TestArchiveRefusesWhenFull(t *testing.T) {
	w := newTestWorld(t)
	c := seedTestCommander(t, w, "Mitscher")

	for i := 0; i < w.cfg.MailArchiveLimit; i++ {
		c.Archive = append(c.Archive, newMessage(systemSender, "old", "body", &w.cfg, w.now()))
	}
	msg := newMessage(systemSender, "new", "body", &w.cfg, w.now())
	c.deliverMail(msg, &w.cfg)

	err := w.ArchiveMail(c.Name, msg.ID)
	if RejectionCode(err) != RejectCapacityExceeded {
		t.Fatalf("archive over cap error = %v, want CAPACITY_EXCEEDED", err)
	}
	if len(c.Inbox) != 1 {
		t.Fatalf("message left the inbox on rejected archive")
	}
}

func TestArchiveAndDeleteMail(t *testing.T) {
	w := newTestWorld(t)
	c := seedTestCommander(t, w, "Kinkaid")
	msg := newMessage(systemSender, "keep", "body", &w.cfg, w.now())
	c.deliverMail(msg, &w.cfg)

	if err := w.ArchiveMail(c.Name, msg.ID); err != nil {
		t.Fatalf("ArchiveMail returned error: %v", err)
	}
	inbox, archive, err := w.Mailbox(c.Name)
	if err != nil {
		t.Fatalf("Mailbox returned error: %v", err)
	}
	if len(inbox) != 0 || len(archive) != 1 {
		t.Fatalf("boxes after archive = %d/%d, want 0/1", len(inbox), len(archive))
	}

	if err := w.DeleteMail(c.Name, msg.ID); err != nil {
		t.Fatalf("DeleteMail returned error: %v", err)
	}
	if err := w.DeleteMail(c.Name, msg.ID); RejectionCode(err) != RejectInvalidTarget {
		t.Fatalf("double delete error = %v, want INVALID_TARGET", err)
	}
}

func TestMailBodyTruncatedToLimit(t *testing.T) {
	cfg := DefaultConfig()
	body := strings.Repeat("a", cfg.MailBodyLimit+100)
	msg := newMessage("someone", "long", body, &cfg, time.Now())
	if len(msg.Body) != cfg.MailBodyLimit {
		t.Fatalf("body length = %d, want %d", len(msg.Body), cfg.MailBodyLimit)
	}
}
