package chatwoot

import (
	"context"
	"fmt"
	"sync"

	"github.com/rbertolino-dev/flow-sub011/pkg/logging"
)

// Mirror copies inbound WhatsApp messages into the Chatwoot inbox so agents
// see the full conversation. Mirroring is best-effort; failures are logged
// and never block message processing.
type Mirror struct {
	client *Client
	logger *logging.Logger

	mu            sync.Mutex
	conversations map[string]int
}

// NewMirror creates a mirror. Returns nil when the client is nil so callers
// can treat mirroring as optional.
func NewMirror(client *Client, logger *logging.Logger) *Mirror {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Mirror{
		client:        client,
		logger:        logger,
		conversations: make(map[string]int),
	}
}

// MirrorInbound forwards one inbound message to the support inbox.
func (m *Mirror) MirrorInbound(ctx context.Context, number, senderName, text string) error {
	conversationID, err := m.conversationFor(ctx, number, senderName)
	if err != nil {
		return err
	}
	if err := m.client.CreateMessage(ctx, conversationID, text); err != nil {
		// The cached conversation may have been deleted by an agent. Retry
		// once with a fresh conversation before giving up.
		m.forget(number)
		conversationID, retryErr := m.conversationFor(ctx, number, senderName)
		if retryErr != nil {
			return err
		}
		return m.client.CreateMessage(ctx, conversationID, text)
	}
	return nil
}

func (m *Mirror) conversationFor(ctx context.Context, number, senderName string) (int, error) {
	m.mu.Lock()
	id, ok := m.conversations[number]
	m.mu.Unlock()
	if ok {
		return id, nil
	}

	contact, err := m.client.CreateContact(ctx, senderName, "+"+number)
	if err != nil {
		return 0, fmt.Errorf("chatwoot: create contact: %w", err)
	}
	conversation, err := m.client.CreateConversation(ctx, contact.ID)
	if err != nil {
		return 0, fmt.Errorf("chatwoot: create conversation: %w", err)
	}

	m.mu.Lock()
	m.conversations[number] = conversation.ID
	m.mu.Unlock()
	return conversation.ID, nil
}

func (m *Mirror) forget(number string) {
	m.mu.Lock()
	delete(m.conversations, number)
	m.mu.Unlock()
}
