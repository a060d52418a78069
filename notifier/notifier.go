package notifier

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger/logger"
	"wallet-ledger/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Notifier tells a user that one of their transactions reached a terminal state.
type Notifier interface {
	TransactionSettled(ctx context.Context, user *models.User, t *models.WalletTransaction) error
}

// Nop drops every notification.
type Nop struct{}

func (Nop) TransactionSettled(context.Context, *models.User, *models.WalletTransaction) error {
	return nil
}

// SendGrid delivers notifications as HTML email.
type SendGrid struct {
	client     *sendgrid.Client
	senderName string
	sender     string
	log        *zap.Logger
}

func NewSendGrid(apiKey, sender string) *SendGrid {
	return &SendGrid{
		client:     sendgrid.NewSendClient(apiKey),
		senderName: "Wallet",
		sender:     sender,
		log:        logger.Named("notifier"),
	}
}

func (s *SendGrid) TransactionSettled(ctx context.Context, user *models.User, t *models.WalletTransaction) error {
	if user == nil || user.Email == "" {
		return nil
	}
	subject, html := settledEmail(user.Name, t)

	from := mail.NewEmail(s.senderName, s.sender)
	to := mail.NewEmail(user.Name, user.Email)
	msg := mail.NewSingleEmail(from, subject, to, subject, html)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	s.log.Debug("notification sent",
		zap.String("reference", t.Reference),
		zap.String("status", string(t.Status)),
	)
	return nil
}
