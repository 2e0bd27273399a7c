package bot

import (
	"fmt"
	"time"

	"github.com/brunoksato/finbot/internal/common/config"
	"github.com/brunoksato/finbot/internal/portfolio"
	"github.com/brunoksato/finbot/pkg/errs"
	gocache "github.com/patrickmn/go-cache"
	"gopkg.in/telebot.v4"
)

type Bot struct {
	Telebot *telebot.Bot
	cfg     *config.Bot

	ledger    *portfolio.Service
	cooldowns *gocache.Cache
}

func New(cfg *config.Bot, ledger *portfolio.Service) (*Bot, error) {
	b, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.APIKey,
		Poller: &telebot.LongPoller{Timeout: cfg.PollTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("telebot.NewBot: %w", err)
	}

	bot := &Bot{
		Telebot:   b,
		cfg:       cfg,
		ledger:    ledger,
		cooldowns: gocache.New(currentCooldown, time.Minute),
	}

	if err := bot.setCommands(); err != nil {
		return nil, fmt.Errorf("bot.setCommands: %w", err)
	}

	bot.setupMiddlewares()
	bot.setupRoutes()

	return bot, nil
}

func (b *Bot) setCommands() error {
	commands := []telebot.Command{
		{Text: "start", Description: "📈 Get started"},
		{Text: "price", Description: "💵 Current price of a stock"},
		{Text: "buy", Description: "🛒 Add stocks to your portfolio"},
		{Text: "sell", Description: "💸 Remove stocks from your portfolio"},
		{Text: "current", Description: "📊 Your portfolio status"},
	}

	if err := b.Telebot.SetCommands(commands); err != nil {
		return errs.NewStack(err)
	}

	return nil
}

func (b *Bot) setupMiddlewares() {
	b.Telebot.Use(
		b.recoveryMiddleware,
		b.defaultErrorMiddleware,
	)
}

func (b *Bot) setupRoutes() {
	message := b.Telebot.Group()

	message.Handle("/start", b.startHandler)
	message.Handle("/help", b.startHandler)
	message.Handle("/price", b.priceHandler)
	message.Handle("/buy", b.buyHandler)
	message.Handle("/sell", b.sellHandler)
	message.Handle("/current", b.currentHandler)
}

func (b *Bot) Start() {
	b.Telebot.Start()
}

func (b *Bot) Stop() {
	b.Telebot.Stop()
}
