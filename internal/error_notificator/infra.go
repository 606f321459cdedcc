package error_notificator

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const maxMessageLen = 4000

type TelegramInfra struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramInfra(token string, adminChatID int64) (*TelegramInfra, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return &TelegramInfra{bot: bot, chatID: adminChatID}, nil
}

func (i *TelegramInfra) Notify(ctx context.Context, source string, err error, details string) error {
	if _, sendErr := i.bot.Send(tgbotapi.NewMessage(i.chatID, formatMessage(source, err, details))); sendErr != nil {
		return fmt.Errorf("telegram send: %w", sendErr)
	}
	return nil
}

func formatMessage(source string, err error, details string) string {
	text := fmt.Sprintf("❗ Ошибка (%s)\n\nОшибка: %v\n\nДетали: %s", source, err, details)
	if len(text) > maxMessageLen {
		// не резать посреди руны: telegram отвергает невалидный UTF-8
		text = strings.ToValidUTF8(text[:maxMessageLen], "")
	}
	return text
}

// NopInfra: когда TELEGRAM_TOKEN не задан
type NopInfra struct{}

func (NopInfra) Notify(context.Context, string, error, string) error { return nil }
