package chatwoot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config controls how the Chatwoot client behaves.
type Config struct {
	BaseURL    string
	Token      string
	AccountID  int
	InboxID    int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client wraps the Chatwoot application API endpoints used to mirror
// WhatsApp traffic into the support inbox.
type Client struct {
	baseURL    string
	token      string
	accountID  int
	inboxID    int
	httpClient *http.Client
}

// New creates a configured Client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("chatwoot: base URL is required")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("chatwoot: access token is required")
	}
	if cfg.AccountID <= 0 {
		return nil, errors.New("chatwoot: account id is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:      cfg.Token,
		accountID:  cfg.AccountID,
		inboxID:    cfg.InboxID,
		httpClient: httpClient,
	}, nil
}

// Contact is a Chatwoot contact record.
type Contact struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

// Conversation is a Chatwoot conversation record.
type Conversation struct {
	ID int `json:"id"`
}

// CreateContact registers a contact in the configured inbox.
func (c *Client) CreateContact(ctx context.Context, name, phoneE164 string) (*Contact, error) {
	if strings.TrimSpace(phoneE164) == "" {
		return nil, errors.New("chatwoot: phone number required")
	}
	if strings.TrimSpace(name) == "" {
		name = phoneE164
	}
	body := map[string]any{
		"inbox_id":     c.inboxID,
		"name":         name,
		"phone_number": phoneE164,
	}
	var wrapper struct {
		Payload struct {
			Contact Contact `json:"contact"`
		} `json:"payload"`
	}
	path := fmt.Sprintf("/api/v1/accounts/%d/contacts", c.accountID)
	if err := c.invoke(ctx, http.MethodPost, path, body, &wrapper); err != nil {
		return nil, err
	}
	return &wrapper.Payload.Contact, nil
}

// CreateConversation opens a conversation for a contact in the inbox.
func (c *Client) CreateConversation(ctx context.Context, contactID int) (*Conversation, error) {
	if contactID <= 0 {
		return nil, errors.New("chatwoot: contact id required")
	}
	body := map[string]any{
		"inbox_id":   c.inboxID,
		"contact_id": contactID,
	}
	var conv Conversation
	path := fmt.Sprintf("/api/v1/accounts/%d/conversations", c.accountID)
	if err := c.invoke(ctx, http.MethodPost, path, body, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// CreateMessage appends an incoming message to a conversation.
func (c *Client) CreateMessage(ctx context.Context, conversationID int, content string) error {
	if conversationID <= 0 {
		return errors.New("chatwoot: conversation id required")
	}
	if strings.TrimSpace(content) == "" {
		return errors.New("chatwoot: message content required")
	}
	body := map[string]any{
		"content":      content,
		"message_type": "incoming",
	}
	path := fmt.Sprintf("/api/v1/accounts/%d/conversations/%d/messages", c.accountID, conversationID)
	return c.invoke(ctx, http.MethodPost, path, body, nil)
}

func (c *Client) invoke(ctx context.Context, method, path string, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("chatwoot: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("chatwoot: build request: %w", err)
	}
	req.Header.Set("api_access_token", c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chatwoot: http error: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("chatwoot: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("chatwoot: http status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("chatwoot: decode response: %w", err)
	}
	return nil
}
