package mcpapi

import (
	"time"

	"github.com/tanpawarit/ai-sales-assistant/agent/agents/negotiation"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	statex "github.com/tanpawarit/ai-sales-assistant/agent/state"
)

type NegotiationOutput struct {
	SessionID       string   `json:"session_id"`
	CustomerID      int64    `json:"customer_id"`
	CustomerName    string   `json:"customer_name"`
	Phase           string   `json:"phase"`
	Sentiment       string   `json:"sentiment"`
	Tone            string   `json:"tone"`
	Recommendation  string   `json:"recommendation,omitempty"`
	CurrentDiscount int      `json:"current_discount"`
	MaxDiscount     int      `json:"max_discount"`
	Transcript      []string `json:"transcript"`
	Guidance        []string `json:"guidance"`
	StartedAt       string   `json:"started_at"`
	UpdatedAt       string   `json:"updated_at"`
}

type TurnOutput struct {
	Session  *NegotiationOutput `json:"session"`
	Guidance string             `json:"guidance"`
	Resumed  bool               `json:"resumed,omitempty"`
	Warnings []string           `json:"warnings,omitempty"`
}

type CloseOutput struct {
	Session       *NegotiationOutput `json:"session"`
	Status        string             `json:"status"`
	InteractionID int64              `json:"interaction_id"`
	Guidance      string             `json:"guidance"`
	Notes         string             `json:"notes"`
	Warnings      []string           `json:"warnings,omitempty"`
}

type SessionOutput struct {
	Session *NegotiationOutput `json:"session"`
}

type CustomerOutput struct {
	CustomerID      int64  `json:"customer_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	InteractionID   int64  `json:"interaction_id,omitempty"`
	LastDealStatus  string `json:"last_deal_status,omitempty"`
	InteractionDate string `json:"interaction_date,omitempty"`
	Notes           string `json:"notes,omitempty"`
	Sentiment       string `json:"sentiment"`
	Tone            string `json:"tone"`
	Intention       string `json:"intention"`
	RecommendedDeal string `json:"recommended_deal,omitempty"`
}

type CustomersOutput struct {
	Customers []CustomerOutput `json:"customers"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func negotiationOutput(s *statex.NegotiationSession) *NegotiationOutput {
	if s == nil {
		return nil
	}
	transcript := make([]string, 0, len(s.Transcript))
	for _, turn := range s.Transcript {
		transcript = append(transcript, turn.String())
	}
	return &NegotiationOutput{
		SessionID:       s.SessionID,
		CustomerID:      s.CustomerID,
		CustomerName:    s.CustomerName,
		Phase:           string(s.Phase),
		Sentiment:       s.Sentiment,
		Tone:            s.Tone,
		Recommendation:  s.Recommendation,
		CurrentDiscount: s.CurrentDiscount,
		MaxDiscount:     s.MaxDiscount,
		Transcript:      transcript,
		Guidance:        append([]string(nil), s.Guidance...),
		StartedAt:       formatTime(s.StartedAt),
		UpdatedAt:       formatTime(s.UpdatedAt),
	}
}

func turnOutput(r negotiation.TurnResult) TurnOutput {
	return TurnOutput{
		Session:  negotiationOutput(r.Session),
		Guidance: r.Guidance,
		Resumed:  r.Resumed,
		Warnings: r.Warnings,
	}
}

func closeOutput(r negotiation.CloseResult) CloseOutput {
	return CloseOutput{
		Session:       negotiationOutput(r.Session),
		Status:        string(r.Status),
		InteractionID: r.InteractionID,
		Guidance:      r.Guidance,
		Notes:         r.Notes,
		Warnings:      r.Warnings,
	}
}

func customerOutput(c contractx.CustomerRecord) CustomerOutput {
	return CustomerOutput{
		CustomerID:      c.CustomerID,
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
		InteractionID:   c.InteractionID,
		LastDealStatus:  string(c.LastDealStatus),
		InteractionDate: formatTime(c.InteractionDate),
		Notes:           c.Notes,
		Sentiment:       c.Labels.Sentiment,
		Tone:            c.Labels.Tone,
		Intention:       c.Labels.Intention,
		RecommendedDeal: c.RecommendedDeal,
	}
}
