package bots_monitor

// Telegram commands answered while the claim loop runs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hot-claimer/internal/features/claim"
	"hot-claimer/internal/features/scheduler"
	"hot-claimer/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// UpdateSource is the polling side of *tgbotapi.BotAPI
type UpdateSource interface {
	MessageSender
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// LoopStatus is implemented by *scheduler.Scheduler
type LoopStatus interface {
	State() scheduler.State
	Passes() int
	NextRun() time.Time
	LastSummary() claim.PassSummary
}

// RunCommandHandler answers /status and /help from chatID until ctx is done
func RunCommandHandler(ctx context.Context, bot UpdateSource, chatID int64, status LoopStatus) {
	if bot == nil {
		log.LogWarn("Bot is nil, command handler not started")
		return
	}

	log.LogInfo("Starting command handler", zap.Int64("chatID", chatID))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := bot.GetUpdatesChan(u)
	defer bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			log.LogInfo("Command handler stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			HandleUpdate(bot, chatID, status, update)
		}
	}
}

// HandleUpdate replies to a single command; messages from other chats are ignored
func HandleUpdate(sender MessageSender, chatID int64, status LoopStatus, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Chat == nil {
		return
	}
	if update.Message.Chat.ID != chatID || !update.Message.IsCommand() {
		return
	}

	command := update.Message.Command()
	username := ""
	if update.Message.From != nil {
		username = update.Message.From.UserName
	}
	log.LogDebug("Received command",
		zap.String("command", command),
		zap.Int64("chatID", chatID),
		zap.String("username", username))

	var text string
	switch command {
	case "status":
		text = FormatStatusMessage(status, time.Now())
	case "help", "start":
		text = helpText
	default:
		return
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyToMessageID = update.Message.MessageID
	if _, err := sender.Send(msg); err != nil {
		log.LogError("Failed to reply to command",
			zap.Error(err),
			zap.String("command", command))
	}
}

const helpText = "*HOT claimer*\n\n/status - loop state, last pass and next claim time\n/help - this message"

// FormatStatusMessage renders the loop state relative to now
func FormatStatusMessage(status LoopStatus, now time.Time) string {
	var message strings.Builder
	message.WriteString(fmt.Sprintf("*Status*: %s\n", escape(status.State().String())))
	message.WriteString(fmt.Sprintf("*Passes*: %d\n", status.Passes()))

	if status.Passes() > 0 {
		last := status.LastSummary()
		message.WriteString(fmt.Sprintf("*Last pass*: %d claimed, %d failed\n", last.Succeeded, last.Failed))
		for _, r := range last.Results {
			if !r.Success {
				message.WriteString(fmt.Sprintf("- %s ❌\n", escape(r.AccountID)))
			}
		}
	}

	if next := status.NextRun(); !next.IsZero() && next.After(now) {
		left := next.Sub(now).Round(time.Second)
		message.WriteString(fmt.Sprintf("*Next claim*: %s (in %s)\n", next.Format("15:04:05"), left))
	}

	return strings.TrimRight(message.String(), "\n")
}
