package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/brunoksato/finbot/internal/common/domain"
	"github.com/brunoksato/finbot/pkg/errs"
	"github.com/brunoksato/finbot/pkg/format"
	"gopkg.in/telebot.v4"
)

func (b *Bot) startHandler(c telebot.Context) error {
	if err := c.Send(msgStart); err != nil {
		return errs.NewStack(err)
	}

	return nil
}

func (b *Bot) priceHandler(c telebot.Context) error {
	args := c.Args()

	if len(args) != 1 {
		return c.Send(msgPriceUsage)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	snapshot, err := b.ledger.Price(ctx, args[0])
	if err != nil {
		if errors.Is(err, domain.ErrSourceUnavailable) {
			return c.Send(msgSourceUnavailable)
		}
		if errors.Is(err, domain.ErrInstrumentNotFound) {
			return c.Send(msgUnknownInstrument)
		}

		return errs.NewStack(err)
	}

	if !snapshot.Valid {
		return c.Send(msgUnknownInstrument)
	}

	return c.Send(fmt.Sprintf("The %s price is: R$%s (%s today)",
		snapshot.Ticker, format.Money(snapshot.Price), format.Percent(snapshot.Change)))
}

func (b *Bot) buyHandler(c telebot.Context) error {
	args := c.Args()

	if len(args) != 3 {
		return c.Send(msgBuyUsage)
	}

	quantity, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send(msgBuyUsage)
	}

	code := args[1]

	price, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return c.Send(msgBuyUsage)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	position, err := b.ledger.Buy(ctx, c.Chat().ID, code, quantity, price)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidQuantity):
			return c.Send(msgBuyUsage)
		case errors.Is(err, domain.ErrInstrumentNotFound):
			return c.Send(msgUnknownInstrument)
		case errors.Is(err, domain.ErrSourceUnavailable):
			return c.Send(msgSourceUnavailable)
		}

		return errs.NewStack(err)
	}

	return c.Send(fmt.Sprintf("%d %s @ R$%s added.\nYou now hold %d %s, average price R$%s",
		quantity, position.Ticker, format.Money(price),
		position.Quantity, position.Ticker, format.Money(position.AvgPrice)))
}

func (b *Bot) sellHandler(c telebot.Context) error {
	args := c.Args()

	if len(args) != 2 {
		return c.Send(msgSellUsage)
	}

	quantity, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send(msgSellUsage)
	}

	code := args[1]

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	position, err := b.ledger.Sell(ctx, c.Chat().ID, code, quantity)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidQuantity):
			return c.Send(msgSellUsage)
		case errors.Is(err, domain.ErrNoPortfolio):
			return c.Send(msgNoPortfolio)
		case errors.Is(err, domain.ErrInstrumentNotFound):
			return c.Send(fmt.Sprintf(msgNotHeld, domain.NormalizeTicker(code)))
		case errors.Is(err, domain.ErrInsufficientQuantity):
			return c.Send(msgInsufficient)
		}

		return errs.NewStack(err)
	}

	return c.Send(fmt.Sprintf("%d %s sold.\nYou now hold %d %s",
		quantity, position.Ticker, position.Quantity, position.Ticker))
}

func (b *Bot) currentHandler(c telebot.Context) error {
	chatID := c.Chat().ID

	cooldownKey := strconv.FormatInt(chatID, 10)
	if _, onCooldown := b.cooldowns.Get(cooldownKey); onCooldown {
		return c.Send(msgSlowDown)
	}
	b.cooldowns.SetDefault(cooldownKey, struct{}{})

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	valuation, err := b.ledger.Valuation(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNoPortfolio) {
			return c.Send(msgNoPortfolio)
		}

		return errs.NewStack(err)
	}

	var sb strings.Builder

	for _, line := range valuation.Positions {
		sb.WriteString(fmt.Sprintf("%d %s R$%s %s: R$%s (paid R$%s)",
			line.Quantity, line.Ticker,
			format.Money(line.Price), format.Percent(line.Change),
			format.Money(line.Value), format.Money(line.CostBasis)))

		if line.Stale {
			sb.WriteString(msgStaleMark)
		}

		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("\nYour current total portfolio value is: R$%s (%s today)",
		format.Money(valuation.TotalValue), format.Percent(valuation.TotalChange)))

	return c.Send(sb.String())
}
