package scrape

import (
	"context"

	"github.com/zjrosen/factorytown/internal/log"
	"github.com/zjrosen/factorytown/internal/model"
)

// The wiki has no coin table; the colors are fixed.
func scrapeCoins(_ context.Context, _ *Scraper, m *model.Model, _ bool) error {
	for _, color := range model.CoinColors {
		name := model.CoinsRecordName(color)
		c, err := model.GetOrCreate(m.Records(), model.CoinsKind, name)
		if err != nil {
			return err
		}
		log.Debug(log.CatScrape, "Coins", "record", c.String())
	}
	return nil
}
