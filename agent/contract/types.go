package contract

import "time"

type LabelKind string

const (
	LabelSentiment LabelKind = "sentiment"
	LabelTone      LabelKind = "tone"
	LabelIntention LabelKind = "intention"
)

const (
	LabelUnknown     = "UNKNOWN"
	IntentionUnknown = "Unknown"
)

// UnknownLabel returns the degraded label for kind.
func UnknownLabel(kind LabelKind) string {
	if kind == LabelIntention {
		return IntentionUnknown
	}
	return LabelUnknown
}

type Task string

const (
	TaskClassification Task = "classification"
	TaskDrafting       Task = "drafting"
	TaskNegotiation    Task = "negotiation"
)

type DealStatus string

const (
	StatusNew         DealStatus = "New"
	StatusActive      DealStatus = "Active"
	StatusPending     DealStatus = "Pending"
	StatusNegotiation DealStatus = "Negotiation"
	StatusClosedWon   DealStatus = "Closed-Won"
	StatusClosedLost  DealStatus = "Closed-Lost"
	StatusFollowUp    DealStatus = "Follow-Up"
)

func (s DealStatus) Valid() bool {
	switch s {
	case StatusNew, StatusActive, StatusPending, StatusNegotiation,
		StatusClosedWon, StatusClosedLost, StatusFollowUp:
		return true
	default:
		return false
	}
}

type Labels struct {
	Sentiment string `json:"sentiment"`
	Tone      string `json:"tone"`
	Intention string `json:"intention"`
}

type Document struct {
	ID      string  `json:"id"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Completion is a generation result. Degraded is set when Text is the
// fallback placeholder rather than model output.
type Completion struct {
	Text     string `json:"text"`
	Degraded bool   `json:"degraded"`
}

// CustomerRecord is a customer merged with its current interaction and its
// latest recommendation.
type CustomerRecord struct {
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`

	InteractionID   int64      `json:"interaction_id,omitempty"`
	LastDealStatus  DealStatus `json:"last_deal_status,omitempty"`
	InteractionDate time.Time  `json:"interaction_date,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	Labels          Labels     `json:"labels"`

	RecommendedDeal    string    `json:"recommended_deal,omitempty"`
	RecommendationDate time.Time `json:"recommendation_date,omitempty"`
}

type NewCustomer struct {
	Name           string
	Email          string
	Phone          string
	Labels         Labels
	Notes          string
	Recommendation string
}

type InteractionUpdate struct {
	CustomerID     int64
	Status         DealStatus
	Notes          string
	Recommendation string
	Labels         Labels
}

type Product struct {
	ProductID    int64   `json:"product_id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	StartPrice   float64 `json:"start_price"`
	PriceLimit   float64 `json:"price_limit"`
	Availability string  `json:"availability"`
}
