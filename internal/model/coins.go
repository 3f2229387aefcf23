package model

import (
	"fmt"
	"strings"
)

// Coin colors used on the wiki. The model accepts any single-word color.
var CoinColors = []string{"Yellow", "Red", "Blue", "Purple", "Star"}

// CoinsRecordName returns the record name for a coin color, e.g. "Red Coins".
func CoinsRecordName(color string) string {
	return color + " " + KindNameCoins
}

// Coins is a currency: one record per coin color.
type Coins struct {
	recordBase
	imageField
	color string
}

func newCoins(r *Registry, name string) (*Coins, error) {
	parts := strings.Split(name, " ")
	if len(parts) != 2 || parts[0] == "" || parts[1] != KindNameCoins {
		return nil, &MalformedRecordNameError{
			Kind:   KindNameCoins,
			Name:   name,
			Reason: `want "<Color> Coins"`,
		}
	}
	c := &Coins{
		recordBase: newRecordBase(r, name, KindNameCoins),
		imageField: newImageField(),
		color:      parts[0],
	}
	c.AddTag(KindNameCoins)
	return c, nil
}

// Color returns the coin color parsed from the record name.
func (c *Coins) Color() string { return c.color }

// DefaultImageName is "Coin <Color>".
func (c *Coins) DefaultImageName() string { return "Coin " + c.color }

// ImageName returns the image override or the default image name.
func (c *Coins) ImageName() string { return c.image.Or(c.DefaultImageName()) }

// SetImageName overrides the image name.
func (c *Coins) SetImageName(name string) error {
	return withRecord(c.name, c.image.Set(name))
}

func (c *Coins) String() string {
	return fmt.Sprintf("Coins(%s, color=%s)", c.describe(c.DisplayName()), c.color)
}
