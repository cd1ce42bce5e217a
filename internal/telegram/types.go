package telegram

import (
	"fmt"
	"price-alert-bot/internal/commands"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token          string
	ChatID         int64 // alerts go here and commands are only answered here
	Debug          bool
	UpdatesTimeout int
	// APIEndpoint overrides the Bot API url format, used by tests
	APIEndpoint string
}

// Bot telegram interaction client
type Bot struct {
	Bot      *tgbotapi.BotAPI
	Config   BotConfig
	Commands *commands.Handler
}

// Message a telegram message struct
type Message struct {
	ChatID    int64
	MessageID int
	Text      string
}

// NotifyError is returned when Telegram does not accept an alert
type NotifyError struct {
	ChatID int64
	Err    error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify chat %d: %v", e.ChatID, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }
