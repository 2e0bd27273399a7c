package bot

import "time"

const (
	handlerTimeout  = 30 * time.Second
	currentCooldown = 3 * time.Second
)

const (
	msgStart = "Welcome!\n" +
		"\n" +
		"Command list:\n" +
		"/price CODE - current price of a stock\n" +
		"/buy QUANTITY CODE PRICE - add stocks to your portfolio\n" +
		"/sell QUANTITY CODE - remove stocks from your portfolio\n" +
		"/current - your portfolio status"

	msgPriceUsage = "Usage: /price CODE, e.g. /price BBAS3"
	msgBuyUsage   = "We couldn't add the asset to your portfolio, make sure you're using: /buy QUANTITY CODE PRICE"
	msgSellUsage  = "We couldn't sell the asset from your portfolio, make sure you're using: /sell QUANTITY CODE"

	msgUnknownInstrument = "The stock you're looking for does not exist in our database, check the code"
	msgSourceUnavailable = "The price service is not answering right now, try again in a moment"
	msgNoPortfolio       = "You don't have a portfolio yet, add an asset with /buy QUANTITY CODE PRICE"
	msgNotHeld           = "There is no %s in your portfolio"
	msgInsufficient      = "You can't sell more than you have"
	msgSlowDown          = "Hold on a moment, your portfolio was just refreshed"
	msgDefaultError      = "Something went wrong, try again"

	msgStaleMark = " (stale)"
)
