package notify

import (
	"context"
	"fmt"

	"github.com/rbertolino-dev/flow-sub011/pkg/logging"
)

// Service composes transactional emails for the CRM flows.
type Service struct {
	email       EmailSender
	companyName string
	logger      *logging.Logger
}

// NewService creates a notification service. email may be nil, in which
// case every send reports a configuration error.
func NewService(email EmailSender, companyName string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if companyName == "" {
		companyName = "Flow CRM"
	}
	return &Service{
		email:       email,
		companyName: companyName,
		logger:      logger,
	}
}

// SendContractEmail delivers the signing link for a contract.
func (s *Service) SendContractEmail(ctx context.Context, to, clientName, contractNumber, signingURL string) error {
	if s.email == nil {
		return fmt.Errorf("notify: email sender not configured")
	}

	subject := fmt.Sprintf("Contrato %s pronto para assinatura", contractNumber)
	body := fmt.Sprintf(`Ola %s,

Seu contrato %s esta pronto para assinatura.

Acesse o link abaixo para revisar e assinar:
%s

Qualquer duvida, responda este email.

— %s`, clientName, contractNumber, signingURL, s.companyName)

	html := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2>Contrato pronto para assinatura</h2>
<p>Ola <strong>%s</strong>,</p>
<p>Seu contrato <strong>%s</strong> esta pronto para assinatura.</p>
<p style="margin: 24px 0;">
  <a href="%s" style="background: #2563eb; color: #fff; padding: 12px 24px; border-radius: 8px; text-decoration: none;">Revisar e assinar</a>
</p>
<p style="color: #6b7280; font-size: 12px;">Se o botao nao funcionar, copie este link: %s</p>
<p style="color: #6b7280; font-size: 12px; margin-top: 20px;">— %s</p>
</div>`, clientName, contractNumber, signingURL, signingURL, s.companyName)

	msg := EmailMessage{
		To:      to,
		ToName:  clientName,
		Subject: subject,
		Body:    body,
		HTML:    html,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return err
	}
	s.logger.Info("contract email sent", "to", to, "contract_number", contractNumber)
	return nil
}

// SendBudgetEmail delivers a quote summary to the lead.
func (s *Service) SendBudgetEmail(ctx context.Context, to, clientName, budgetNumber string, totalCents int64) error {
	if s.email == nil {
		return fmt.Errorf("notify: email sender not configured")
	}

	total := fmt.Sprintf("R$ %d,%02d", totalCents/100, totalCents%100)
	subject := fmt.Sprintf("Orcamento %s", budgetNumber)
	body := fmt.Sprintf(`Ola %s,

Segue o orcamento %s no valor total de %s.

— %s`, clientName, budgetNumber, total, s.companyName)

	msg := EmailMessage{
		To:      to,
		ToName:  clientName,
		Subject: subject,
		Body:    body,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return err
	}
	s.logger.Info("budget email sent", "to", to, "budget_number", budgetNumber)
	return nil
}
