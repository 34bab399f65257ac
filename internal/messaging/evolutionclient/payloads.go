package evolutionclient

import (
	"encoding/json"
	"errors"
	"strings"
)

// SendTextRequest describes an outbound WhatsApp text payload.
type SendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
	Delay  int    `json:"delay,omitempty"`
}

func (r SendTextRequest) validate() error {
	if strings.TrimSpace(r.Number) == "" {
		return errors.New("evolutionclient: destination number required")
	}
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("evolutionclient: message text required")
	}
	return nil
}

// SendTextResponse mirrors the Evolution API send response.
type SendTextResponse struct {
	Key struct {
		RemoteJID string `json:"remoteJid"`
		FromMe    bool   `json:"fromMe"`
		ID        string `json:"id"`
	} `json:"key"`
	Status           string      `json:"status"`
	MessageTimestamp json.Number `json:"messageTimestamp,omitempty"`
}
