package bot

import (
	"fmt"

	"github.com/brunoksato/finbot/pkg/log"
	"go.uber.org/zap"
	"gopkg.in/telebot.v4"
)

func (b *Bot) recoveryMiddleware(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		defer func() {
			if r := recover(); r != nil {
				log.Error("recovered from panic",
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
			}
		}()

		return next(c)
	}
}

func (b *Bot) defaultErrorMiddleware(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if err := next(c); err != nil {
			log.Error("unhandled handler error",
				zap.Int64("chat_id", c.Chat().ID),
				zap.String("text", c.Text()),
				zap.Error(err),
			)

			return b.defaultErrorHandler(c)
		}

		return nil
	}
}

func (b *Bot) defaultErrorHandler(c telebot.Context) error {
	if err := c.Send(msgDefaultError); err != nil {
		return fmt.Errorf("failed to send message: %v", err)
	}

	return nil
}
