package messaging

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rbertolino-dev/flow-sub011/internal/contracts"
	"github.com/rbertolino-dev/flow-sub011/pkg/logging"
)

type fakeEmailSender struct {
	sent []string
	err  error
}

func (f *fakeEmailSender) SendContractEmail(ctx context.Context, to, clientName, contractNumber, signingURL string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

func testContract() *contracts.Contract {
	return &contracts.Contract{
		ID:          "c1",
		Number:      "CT-2026-001",
		ClientName:  "Maria Souza",
		ClientEmail: "maria@example.com",
		ClientPhone: "11998765432",
	}
}

func TestNotifierContractReady_BothChannels(t *testing.T) {
	sender := &fakeSender{}
	email := &fakeEmailSender{}
	notifier, err := NewNotifier(sender, nil, email, "", logging.Default())
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	channels, err := notifier.ContractReady(context.Background(), testContract(), "https://flow.example.com/sign/tok-1")
	if err != nil {
		t.Fatalf("contract ready: %v", err)
	}
	if len(channels) != 2 || channels[0] != "whatsapp" || channels[1] != "email" {
		t.Fatalf("unexpected channels %v", channels)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one whatsapp send, got %d", len(sender.sent))
	}
	if sender.sent[0].Number != "02111998765432" {
		t.Errorf("expected dialable prefix form, got %s", sender.sent[0].Number)
	}
	if !strings.Contains(sender.sent[0].Text, "CT-2026-001") || !strings.Contains(sender.sent[0].Text, "https://flow.example.com/sign/tok-1") {
		t.Errorf("expected contract number and link in message, got %s", sender.sent[0].Text)
	}
	if len(email.sent) != 1 || email.sent[0] != "maria@example.com" {
		t.Fatalf("unexpected email recipients %v", email.sent)
	}
}

func TestNotifierContractReady_EmailFallback(t *testing.T) {
	sender := &fakeSender{sendErr: errors.New("gateway down")}
	email := &fakeEmailSender{}
	notifier, err := NewNotifier(sender, nil, email, "", logging.Default())
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	channels, err := notifier.ContractReady(context.Background(), testContract(), "https://flow.example.com/sign/tok-1")
	if err != nil {
		t.Fatalf("contract ready: %v", err)
	}
	if len(channels) != 1 || channels[0] != "email" {
		t.Fatalf("expected email only, got %v", channels)
	}
}

func TestNotifierContractReady_NoChannelFails(t *testing.T) {
	sender := &fakeSender{sendErr: errors.New("gateway down")}
	email := &fakeEmailSender{err: errors.New("smtp down")}
	notifier, err := NewNotifier(sender, nil, email, "", logging.Default())
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	if _, err := notifier.ContractReady(context.Background(), testContract(), "https://flow.example.com/sign/tok-1"); err == nil {
		t.Fatalf("expected error when no channel succeeds")
	}
}

func TestNewNotifierRejectsTemplateWithoutRequiredVariables(t *testing.T) {
	if _, err := NewNotifier(&fakeSender{}, nil, nil, "Ola {{nome}}, tudo bem?", logging.Default()); err == nil {
		t.Fatalf("expected template validation error")
	}
}
