package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// MaxMessageLength is the Telegram limit for a single text message
const MaxMessageLength = 4096

// Sender is the part of the bot API the notifier needs
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts reports to one chat
type Telegram struct {
	sender Sender
	chatID int64
}

// NewTelegram authenticates the bot and returns a notifier bound to chatID
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info().Str("bot", bot.Self.UserName).Int64("chat_id", chatID).Msg("Telegram notifier ready")
	return NewTelegramWithSender(bot, chatID), nil
}

// NewTelegramWithSender builds a notifier on top of an existing sender
func NewTelegramWithSender(sender Sender, chatID int64) *Telegram {
	return &Telegram{sender: sender, chatID: chatID}
}

// Notify sends text as one or more plain messages
func (t *Telegram) Notify(ctx context.Context, text string) error {
	logger := log.With().Str("component", "telegram").Logger()

	chunks := SplitMessage(text, MaxMessageLength)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg := tgbotapi.NewMessage(t.chatID, chunk)
		if _, err := t.sender.Send(msg); err != nil {
			return fmt.Errorf("failed to send message part %d/%d: %w", i+1, len(chunks), err)
		}
		logger.Debug().Int("part", i+1).Int("parts", len(chunks)).Msg("Message sent")
	}

	return nil
}

// SplitMessage cuts text into chunks of at most limit runes, preferring line breaks
func SplitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if limit <= 0 || len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}

	return chunks
}
