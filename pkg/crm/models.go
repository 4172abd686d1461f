package crm

import (
	"time"

	"github.com/uptrace/bun"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
)

type customerModel struct {
	bun.BaseModel `bun:"table:Customers,alias:c"`

	CustomerID           int64  `bun:"CustomerID,pk"`
	Name                 string `bun:"Name,notnull"`
	Email                string `bun:"Email"`
	Phone                string `bun:"Phone"`
	CurrentInteractionID *int64 `bun:"CurrentInteractionID"`
}

type interactionModel struct {
	bun.BaseModel `bun:"table:InteractionHistory,alias:ih"`

	InteractionID   int64     `bun:"InteractionID,pk,autoincrement"`
	CustomerID      int64     `bun:"CustomerID,notnull"`
	LastDealStatus  string    `bun:"LastDealStatus"`
	InteractionDate time.Time `bun:"InteractionDate"`
	Notes           string    `bun:"Notes"`
	Intention       string    `bun:"Intention"`
	Sentiment       string    `bun:"Sentiment"`
	Tone            string    `bun:"Tone"`
}

type recommendationModel struct {
	bun.BaseModel `bun:"table:Recommendations,alias:r"`

	RecommendationID int64     `bun:"RecommendationID,pk,autoincrement"`
	CustomerID       int64     `bun:"CustomerID,notnull"`
	RecommendedDeal  string    `bun:"RecommendedDeal"`
	Date             time.Time `bun:"Date"`
}

type productModel struct {
	bun.BaseModel `bun:"table:Products,alias:p"`

	ProductID    int64   `bun:"ProductID,pk,autoincrement"`
	Name         string  `bun:"Name,notnull"`
	Category     string  `bun:"Category"`
	StartPrice   float64 `bun:"StartPrice"`
	PriceLimit   float64 `bun:"PriceLimit"`
	Availability string  `bun:"Availability"`
}

// customerRow is a customer joined with its current interaction.
type customerRow struct {
	CustomerID      int64     `bun:"CustomerID"`
	Name            string    `bun:"Name"`
	Email           string    `bun:"Email"`
	Phone           string    `bun:"Phone"`
	InteractionID   int64     `bun:"InteractionID"`
	LastDealStatus  string    `bun:"LastDealStatus"`
	InteractionDate time.Time `bun:"InteractionDate"`
	Notes           string    `bun:"Notes"`
	Intention       string    `bun:"Intention"`
	Sentiment       string    `bun:"Sentiment"`
	Tone            string    `bun:"Tone"`
}

func (r customerRow) record() contractx.CustomerRecord {
	return contractx.CustomerRecord{
		CustomerID:      r.CustomerID,
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		InteractionID:   r.InteractionID,
		LastDealStatus:  contractx.DealStatus(r.LastDealStatus),
		InteractionDate: r.InteractionDate,
		Notes:           r.Notes,
		Labels: contractx.Labels{
			Sentiment: r.Sentiment,
			Tone:      r.Tone,
			Intention: r.Intention,
		},
	}
}

func (p productModel) product() contractx.Product {
	return contractx.Product{
		ProductID:    p.ProductID,
		Name:         p.Name,
		Category:     p.Category,
		StartPrice:   p.StartPrice,
		PriceLimit:   p.PriceLimit,
		Availability: p.Availability,
	}
}
