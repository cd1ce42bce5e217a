package telegram

import (
	"context"
	"net/http"
	"price-alert-bot/lib/helpers"
	"price-alert-bot/lib/translation"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// captionLimit is the longest photo caption Telegram accepts
const captionLimit = 1024

func helpMessage() string {
	return "*" + helpers.EscapeMarkdownV2(translation.Translate("commands")) + "*\n\n" +
		"/status \\- " + helpers.EscapeMarkdownV2(translation.Translate("baseline and last price of each coin")) + "\n" +
		"/stats \\- " + helpers.EscapeMarkdownV2(translation.Translate("price chart of the last day")) + "\n" +
		"/alerts \\- " + helpers.EscapeMarkdownV2(translation.Translate("recently sent alerts"))
}

// NewBot creates new telegram bot
func NewBot(c BotConfig) (*Bot, error) {
	var (
		bot *tgbotapi.BotAPI
		err error
	)
	if c.APIEndpoint != "" {
		bot, err = tgbotapi.NewBotAPIWithClient(c.Token, c.APIEndpoint, &http.Client{})
	} else {
		bot, err = tgbotapi.NewBotAPI(c.Token)
	}
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:    bot,
		Config: c,
	}, nil
}

// GetUpdatesChannel gets new updates updates
func (b *Bot) GetUpdatesChannel() (tgbotapi.UpdatesChannel, error) {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig), nil
}

// StopUpdates stops the long polling started by GetUpdatesChannel
func (b *Bot) StopUpdates() {
	b.Bot.StopReceivingUpdates()
}

// Notify sends an alert to the configured chat: a photo with caption when an
// image is given, a plain text message otherwise. Never retried.
func (b *Bot) Notify(ctx context.Context, text string, image []byte) error {
	if err := ctx.Err(); err != nil {
		return &NotifyError{ChatID: b.Config.ChatID, Err: err}
	}

	var c tgbotapi.Chattable
	if image != nil {
		photo := tgbotapi.NewPhoto(b.Config.ChatID, tgbotapi.FileBytes{
			Name:  "chart.png",
			Bytes: image,
		})
		photo.Caption = truncate(text, captionLimit)
		c = photo
	} else {
		msg := tgbotapi.NewMessage(b.Config.ChatID, text)
		msg.DisableWebPagePreview = true
		c = msg
	}

	if _, err := b.Bot.Send(c); err != nil {
		return &NotifyError{ChatID: b.Config.ChatID, Err: err}
	}
	return nil
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message: %v", m)
}

// Accepts reports whether u is a command sent in the configured chat
func (b *Bot) Accepts(u tgbotapi.Update) bool {
	if u.Message == nil || u.Message.Chat == nil || !u.Message.IsCommand() {
		return false
	}
	return u.Message.Chat.ID == b.Config.ChatID
}

// HandleUpdate answers a command from the configured chat and returns the
// MarkdownV2 reply text; an empty string means the reply was already sent or the
// update was not accepted.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) string {
	if !b.Accepts(u) {
		return ""
	}

	text := helpMessage()
	log.Debugf("received command: %s", u.Message.Command())

	if b.Commands == nil {
		return text
	}

	switch u.Message.Command() {
	case "status":
		text = b.Commands.CommandStatus()
	case "alerts":
		var err error
		if text, err = b.Commands.CommandAlerts(ctx); err != nil {
			log.Error(err)
			text = translation.Translate("Could not read the alert journal")
		}
	case "stats":
		image, caption := b.Commands.CommandStats(ctx)
		if image == nil {
			msg := tgbotapi.NewMessage(u.Message.Chat.ID, caption)
			msg.ReplyToMessageID = u.Message.MessageID
			if _, err := b.Bot.Send(msg); err != nil {
				log.Error("error sending stats:", err)
			}
			return ""
		}
		photo := tgbotapi.NewPhoto(u.Message.Chat.ID, tgbotapi.FileBytes{
			Name:  "chart.png",
			Bytes: image,
		})
		photo.Caption = truncate(caption, captionLimit)
		photo.ReplyToMessageID = u.Message.MessageID
		if _, err := b.Bot.Send(photo); err != nil {
			log.Error("error sending chart:", err)
		}
		return ""
	}

	return text
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-1]) + "…"
}
