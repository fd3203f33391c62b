package bots_monitor

import (
	"context"
	"fmt"
	"strings"

	"hot-claimer/internal/features/claim"
	"hot-claimer/internal/infra/log"
	"hot-claimer/internal/infra/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// MessageSender is the part of *tgbotapi.BotAPI the notifier needs
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ClaimNotifier reports every claim attempt to one Telegram chat
type ClaimNotifier struct {
	sender      MessageSender
	chatID      int64
	enabled     bool
	explorerURL string
}

func NewClaimNotifier(sender MessageSender, chatID int64, enabled bool, explorerURL string) *ClaimNotifier {
	return &ClaimNotifier{
		sender:      sender,
		chatID:      chatID,
		enabled:     enabled && sender != nil,
		explorerURL: explorerURL,
	}
}

func (n *ClaimNotifier) Enabled() bool {
	return n.enabled
}

// Notify sends the result; failures are logged and dropped
func (n *ClaimNotifier) Notify(ctx context.Context, r claim.Result) {
	if !n.enabled {
		return
	}

	var text string
	if r.Success {
		text = FormatClaimMessage(r, n.explorerURL)
	} else {
		text = FormatFailureMessage(r)
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := n.sender.Send(msg); err != nil {
		metrics.NotificationsTotal.WithLabelValues("error").Inc()
		log.LogError("Failed to send claim notification",
			zap.Error(err),
			zap.String("account", r.AccountID),
			zap.Int64("chatID", n.chatID))
		return
	}

	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	log.LogInfo("Claim notification sent",
		zap.String("account", r.AccountID),
		zap.Bool("success", r.Success),
		zap.Int64("chatID", n.chatID))
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// FormatClaimMessage renders a successful claim
func FormatClaimMessage(r claim.Result, explorerURL string) string {
	var message strings.Builder
	message.WriteString(fmt.Sprintf("*Claimed HOT* for %s 🔥\n\n", escape(r.AccountID)))

	message.WriteString("*Amount*:\n")
	message.WriteString(fmt.Sprintf("- %s HOT (for user)\n", r.UserAmount()))
	message.WriteString(fmt.Sprintf("- %s HOT (for village)\n", r.VillageAmount()))
	for _, other := range r.OtherAmounts() {
		message.WriteString(fmt.Sprintf("- %s HOT (for %s)\n", other.Amount, escape(other.OwnerID)))
	}

	if r.TotalBalance != "" {
		message.WriteString(fmt.Sprintf("\n*Total HOT balance*: %s HOT\n", r.TotalBalance))
	}

	if r.TransactionHash != "" {
		message.WriteString(fmt.Sprintf("\n*Tx*: %s", TxLink(explorerURL, r.TransactionHash)))
	}

	return strings.TrimRight(message.String(), "\n")
}

// FormatFailureMessage renders a failed attempt
func FormatFailureMessage(r claim.Result) string {
	errText := r.Error
	if errText == "" {
		errText = "unknown error"
	}
	return fmt.Sprintf("*Claim failed* for %s ❌\n\n*Error*: %s", escape(r.AccountID), escape(errText))
}

// TxLink joins the explorer base and the transaction hash
func TxLink(explorerURL, hash string) string {
	if explorerURL == "" {
		return hash
	}
	return strings.TrimRight(explorerURL, "/") + "/" + hash
}
