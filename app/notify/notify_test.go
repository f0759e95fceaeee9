package notify

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/lysyi3m/rss-watch/app/database"
	"github.com/wneessen/go-mail"
)

func testSettings() database.Settings {
	return database.Settings{
		MailFrom:     "watch@example.com",
		MailTo:       "me@example.com",
		SMTPServer:   "127.0.0.1",
		SMTPPort:     587,
		SMTPUsername: "watch",
		SMTPPassword: "secret",
	}
}

func TestHitMessage(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.Local)
	subject, body := HitMessage("Sony announces PS5 restock", "PS5", "https://x/1", at)

	if subject != "RSS match: PS5" {
		t.Errorf("Expected subject 'RSS match: PS5', got '%s'", subject)
	}

	want := "Title: Sony announces PS5 restock\n" +
		"Keyword: PS5\n" +
		"Link: https://x/1\n" +
		"Date: 2024-03-01 10:30:00\n"
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("Body mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildMessage(t *testing.T) {
	msg, err := buildMessage(testSettings(), "RSS match: PS5", "Title: x\n")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if got := msg.GetGenHeader(mail.HeaderSubject); len(got) != 1 || got[0] != "RSS match: PS5" {
		t.Errorf("Expected subject header 'RSS match: PS5', got %v", got)
	}

	recipients, err := msg.GetRecipients()
	if err != nil {
		t.Fatalf("Expected recipients, got error: %v", err)
	}
	if diff := cmp.Diff([]string{"me@example.com"}, recipients); diff != "" {
		t.Errorf("Recipients mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildMessage_MissingAddresses(t *testing.T) {
	noFrom := testSettings()
	noFrom.MailFrom = ""

	noTo := testSettings()
	noTo.MailTo = ""

	badTo := testSettings()
	badTo.MailTo = "not an address"

	for name, settings := range map[string]database.Settings{
		"missing sender":    noFrom,
		"missing recipient": noTo,
		"invalid recipient": badTo,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := buildMessage(settings, "s", "b"); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestMailer_SendConfigErrorIsMailError(t *testing.T) {
	settings := testSettings()
	settings.MailTo = ""

	err := NewMailer(time.Second).Send(context.Background(), settings, "s", "b")
	var mailErr *MailError
	if !errors.As(err, &mailErr) {
		t.Fatalf("Expected *MailError, got: %v", err)
	}
}

func TestMailer_SendUnreachableServer(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	settings := testSettings()
	settings.SMTPPort = port

	err = NewMailer(2*time.Second).Send(context.Background(), settings, "s", "b")
	var mailErr *MailError
	if !errors.As(err, &mailErr) {
		t.Fatalf("Expected *MailError, got: %v", err)
	}
	if !strings.Contains(mailErr.Server, strconv.Itoa(port)) {
		t.Errorf("Expected server to mention port %d, got %s", port, mailErr.Server)
	}
}
