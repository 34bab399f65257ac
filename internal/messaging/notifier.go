package messaging

import (
	"context"
	"fmt"
	"strings"

	"github.com/rbertolino-dev/flow-sub011/internal/contracts"
	"github.com/rbertolino-dev/flow-sub011/internal/messaging/evolutionclient"
	"github.com/rbertolino-dev/flow-sub011/internal/phone"
	"github.com/rbertolino-dev/flow-sub011/internal/templates"
	"github.com/rbertolino-dev/flow-sub011/pkg/logging"
)

const defaultSigningTemplate = "Ola {{nome}}! Seu contrato {{numero_contrato}} esta pronto para assinatura: {{link_assinatura}}"

// EmailSender delivers the signing link over email.
type EmailSender interface {
	SendContractEmail(ctx context.Context, to, clientName, contractNumber, signingURL string) error
}

// Notifier delivers signing links over WhatsApp and email. It reports which
// channels succeeded; delivery fails only when no channel goes through.
type Notifier struct {
	sender   Sender
	store    *Store
	email    EmailSender
	template string
	logger   *logging.Logger
}

// NewNotifier creates a notifier. sender, store and email may each be nil;
// an empty template falls back to the default signing message.
func NewNotifier(sender Sender, store *Store, email EmailSender, template string, logger *logging.Logger) (*Notifier, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(template) == "" {
		template = defaultSigningTemplate
	}
	validation := templates.ValidateRequiredVariables(template, templates.DefaultRequiredVariables)
	if !validation.Valid {
		return nil, fmt.Errorf("messaging: signing template missing variables %v", validation.Missing)
	}
	return &Notifier{
		sender:   sender,
		store:    store,
		email:    email,
		template: template,
		logger:   logger,
	}, nil
}

// ContractReady sends the signing link to the contract's client.
func (n *Notifier) ContractReady(ctx context.Context, contract *contracts.Contract, signingURL string) ([]string, error) {
	var channels []string

	if n.sender != nil && contract.ClientPhone != "" {
		text := templates.Substitute(n.template, templates.Vars{}.
			Set("nome", contract.ClientName).
			Set("numero_contrato", contract.Number).
			Set("link_assinatura", signingURL))
		resp, err := n.sender.SendText(ctx, evolutionclient.SendTextRequest{
			Number: phone.DialablePrefixForm(contract.ClientPhone),
			Text:   text,
		})
		if err != nil {
			n.logger.Error("failed to deliver signing link over whatsapp", "error", err, "contract_id", contract.ID)
		} else {
			channels = append(channels, "whatsapp")
			if n.store != nil {
				if _, err := n.store.InsertMessage(ctx, MessageRecord{
					Number:            phone.Normalize(contract.ClientPhone),
					Direction:         DirectionOutbound,
					Body:              text,
					ProviderMessageID: resp.Key.ID,
					ProviderStatus:    resp.Status,
				}); err != nil {
					n.logger.Error("failed to persist signing message", "error", err, "contract_id", contract.ID)
				}
			}
		}
	}

	if n.email != nil && contract.ClientEmail != "" {
		if err := n.email.SendContractEmail(ctx, contract.ClientEmail, contract.ClientName, contract.Number, signingURL); err != nil {
			n.logger.Error("failed to deliver signing link over email", "error", err, "contract_id", contract.ID)
		} else {
			channels = append(channels, "email")
		}
	}

	if len(channels) == 0 {
		return nil, fmt.Errorf("messaging: no delivery channel succeeded for contract %s", contract.ID)
	}
	return channels, nil
}
