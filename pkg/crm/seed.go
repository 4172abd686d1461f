package crm

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
)

type seedCustomer struct {
	Name, Email, Phone string
	At                 string
	Status             contractx.DealStatus
	Notes              string
	Labels             contractx.Labels
	Recommendation     string
}

var demoCustomers = []seedCustomer{
	{
		Name: "John Doe", Email: "johndoe@example.com", Phone: "1234567890",
		At: "2024-12-20 14:30:00", Status: contractx.StatusClosedWon, Notes: "Interested in budget cars",
		Labels:         contractx.Labels{Sentiment: "Positive", Tone: "Happy", Intention: "Purchase"},
		Recommendation: "Maruti Swift VDI 2016, Diesel, Manual, 5.2 lakhs",
	},
	{
		Name: "Jane Smith", Email: "janesmith@example.com", Phone: "9876543210",
		At: "2024-12-19 10:15:00", Status: contractx.StatusClosedLost, Notes: "Looking for high mileage cars",
		Labels:         contractx.Labels{Sentiment: "Neutral", Tone: "Concerned", Intention: "Inquiry"},
		Recommendation: "Honda City 1.5 V MT 2014, Petrol, Manual, 6.5 lakhs",
	},
	{
		Name: "Alice Brown", Email: "alicebrown@example.com", Phone: "4561237890",
		At: "2024-12-18 16:45:00", Status: contractx.StatusPending, Notes: "Needs more details",
		Labels:         contractx.Labels{Sentiment: "Negative", Tone: "Angry", Intention: "Complaint"},
		Recommendation: "Hyundai i20 Asta 2015, Petrol, Manual, 5.9 lakhs",
	},
	{
		Name: "Robert White", Email: "robertwhite@example.com", Phone: "7891234560",
		At: "2024-12-17 12:00:00", Status: contractx.StatusNegotiation, Notes: "Asked for discounts",
		Labels:         contractx.Labels{Sentiment: "Positive", Tone: "Happy", Intention: "Purchase"},
		Recommendation: "Toyota Innova Crysta 2.4 2017, Diesel, Manual, 17.5 lakhs",
	},
	{
		Name: "Emily Green", Email: "emilygreen@example.com", Phone: "3217894560",
		At: "2024-12-16 09:20:00", Status: contractx.StatusFollowUp, Notes: "Waiting for confirmation",
		Labels:         contractx.Labels{Sentiment: "Neutral", Tone: "Concerned", Intention: "Inquiry"},
		Recommendation: "Volkswagen Polo GT TSI 2016, Petrol, Automatic, 7.1 lakhs",
	},
}

// DemoProducts is the sample catalog used for personalized pricing.
var DemoProducts = []contractx.Product{
	{Name: "Laptop", Category: "Electronics", StartPrice: 500, PriceLimit: 450, Availability: "In Stock"},
	{Name: "Phone", Category: "Electronics", StartPrice: 300, PriceLimit: 250, Availability: "In Stock"},
	{Name: "Tablet", Category: "Electronics", StartPrice: 200, PriceLimit: 180, Availability: "Out of Stock"},
	{Name: "Smartwatch", Category: "Accessories", StartPrice: 150, PriceLimit: 130, Availability: "In Stock"},
	{Name: "Camera", Category: "Electronics", StartPrice: 400, PriceLimit: 350, Availability: "In Stock"},
	{Name: "Headphones", Category: "Accessories", StartPrice: 100, PriceLimit: 80, Availability: "In Stock"},
	{Name: "Speaker", Category: "Electronics", StartPrice: 120, PriceLimit: 100, Availability: "Out of Stock"},
	{Name: "Monitor", Category: "Electronics", StartPrice: 250, PriceLimit: 200, Availability: "In Stock"},
	{Name: "Keyboard", Category: "Accessories", StartPrice: 50, PriceLimit: 40, Availability: "In Stock"},
	{Name: "Mouse", Category: "Accessories", StartPrice: 30, PriceLimit: 25, Availability: "In Stock"},
}

// Seed loads the demo customers when the customer table is empty and
// replaces the product catalog. It reports how many customers were inserted.
func (r *Repository) Seed(ctx context.Context) (int, error) {
	inserted := 0
	err := r.write(ctx, "seed customers", func(ctx context.Context, tx bun.Tx) error {
		inserted = 0
		count, err := tx.NewSelect().Model((*customerModel)(nil)).Count(ctx)
		if err != nil {
			return persistErr("count customers", err)
		}
		if count > 0 {
			return nil
		}

		for i, c := range demoCustomers {
			at, err := time.ParseInLocation(time.DateTime, c.At, time.UTC)
			if err != nil {
				return err
			}
			id := int64(i + 1)
			if _, err := tx.NewInsert().Model(&customerModel{CustomerID: id, Name: c.Name, Email: c.Email, Phone: c.Phone}).Exec(ctx); err != nil {
				return persistErr("insert demo customer", err)
			}
			if _, err := r.appendInteraction(ctx, tx, id, c.Status, c.Notes, c.Labels, at); err != nil {
				return err
			}
			if err := r.upsertRecommendation(ctx, tx, id, c.Recommendation, at); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := r.ReplaceProducts(ctx, DemoProducts); err != nil {
		return inserted, err
	}

	log.Info().Int("customers", inserted).Int("products", len(DemoProducts)).Msg("crm: seed complete")
	return inserted, nil
}
