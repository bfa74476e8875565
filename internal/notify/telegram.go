package notify

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/radieske/surebet-promoter/internal/shared/workqueue"
)

// Bot é a parte do cliente tgbotapi usada aqui
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram envia para um único chat respeitando um intervalo mínimo entre
// mensagens (limite de ~30/min por chat)
type Telegram struct {
	bot     Bot
	chatID  int64
	limiter *workqueue.RateLimiter
}

func NewTelegram(bot Bot, chatID int64, interval time.Duration) *Telegram {
	return &Telegram{bot: bot, chatID: chatID, limiter: workqueue.NewRateLimiter(interval)}
}

// ConnectBot cria o cliente e valida o token com getMe
func ConnectBot(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	bot.Debug = false
	return bot, nil
}

func (t *Telegram) Limiter() *workqueue.RateLimiter { return t.limiter }

func (t *Telegram) Send(ctx context.Context, text string) error {
	return t.limiter.Do(ctx, func(context.Context) error {
		msg := tgbotapi.NewMessage(t.chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.DisableWebPagePreview = true
		_, err := t.bot.Send(msg)
		return err
	})
}
