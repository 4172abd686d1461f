package tool

import (
	"math"
	"strings"

	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
)

const defaultWeight = 0.6

var sentimentWeights = map[string]float64{
	"POSITIVE": 0.8,
	"NEGATIVE": 0.5,
	"NEUTRAL":  0.6,
}

var toneWeights = map[string]float64{
	"joy":     0.9,
	"anger":   0.4,
	"neutral": 0.7,
	"sadness": 0.5,
}

// Quote is a product priced for one customer profile.
type Quote struct {
	contractx.Product
	WeightedPrice     float64 `json:"weighted_price"`
	SuggestedDiscount int     `json:"suggested_discount"`
}

// Affinity is the product of the sentiment and tone weights, in (0, 1].
func Affinity(sentiment, tone string) float64 {
	s, ok := sentimentWeights[strings.ToUpper(strings.TrimSpace(sentiment))]
	if !ok {
		s = defaultWeight
	}
	t, ok := toneWeights[strings.ToLower(strings.TrimSpace(tone))]
	if !ok {
		t = defaultWeight
	}
	return s * t
}

// WeightedPrice moves from start towards limit as affinity drops.
// The result is rounded to two decimals.
func WeightedPrice(sentiment, tone string, start, limit float64) float64 {
	v := start - (start-limit)*(1-Affinity(sentiment, tone))
	return math.Round(v*100) / 100
}

// SuggestedDiscount places the discount between floor and ceiling with the
// same weights: the warmer the customer, the closer to floor.
func SuggestedDiscount(sentiment, tone string, floor, ceiling int) int {
	if ceiling < floor {
		floor, ceiling = ceiling, floor
	}
	d := float64(floor) + float64(ceiling-floor)*(1-Affinity(sentiment, tone))
	return int(math.Round(d))
}

// QuoteProducts prices every product for the given labels.
func QuoteProducts(products []contractx.Product, labels contractx.Labels, floor, ceiling int) []Quote {
	discount := SuggestedDiscount(labels.Sentiment, labels.Tone, floor, ceiling)
	out := make([]Quote, 0, len(products))
	for _, p := range products {
		out = append(out, Quote{
			Product:           p,
			WeightedPrice:     WeightedPrice(labels.Sentiment, labels.Tone, p.StartPrice, p.PriceLimit),
			SuggestedDiscount: discount,
		})
	}
	return out
}
