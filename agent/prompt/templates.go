package prompt

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
)

const (
	NameRecommendation = "recommendation"
	NameResponse       = "response"
	NameSummary        = "summary"
	NameNegotiation    = "negotiation"
	NameSalesFigures   = "sales_figures"
	NameNotes          = "notes"
)

// Names lists every generation template.
func Names() []string {
	return []string{
		NameRecommendation,
		NameResponse,
		NameSummary,
		NameNegotiation,
		NameSalesFigures,
		NameNotes,
	}
}

// TaskOf returns the model task that serves the named template.
func TaskOf(name string) contractx.Task {
	switch name {
	case NameNegotiation, NameSalesFigures, NameNotes:
		return contractx.TaskNegotiation
	default:
		return contractx.TaskDrafting
	}
}

const noQuery = "No specific query provided"

// Profile is the customer view rendered into drafting prompts.
type Profile struct {
	Name           string
	Tone           string
	Intention      string
	Sentiment      string
	LastDealStatus string
	Notes          string
}

func (p Profile) vars() map[string]any {
	return map[string]any{
		"customer_name":    orDefault(p.Name, "Unknown"),
		"tone":             orDefault(p.Tone, "Neutral"),
		"intention":        orDefault(p.Intention, "General Inquiry"),
		"sentiment":        orDefault(p.Sentiment, "Neutral"),
		"last_deal_status": orDefault(p.LastDealStatus, "None"),
		"notes":            orDefault(p.Notes, "No notes available"),
	}
}

func (p Profile) String() string {
	v := p.vars()
	return fmt.Sprintf("- Name: %s\n- Last Deal Status: %s\n- Sentiment: %s\n- Tone: %s\n- Intention: %s",
		v["customer_name"], v["last_deal_status"], v["sentiment"], v["tone"], v["intention"])
}

type Recommendation struct {
	Profile Profile
	Query   string
	Results []string
}

func (Recommendation) Name() string { return NameRecommendation }
func (Recommendation) Task() contractx.Task { return contractx.TaskDrafting }

func (r Recommendation) Vars() map[string]any {
	vars := r.Profile.vars()
	vars["customer_query"] = orDefault(r.Query, noQuery)
	vars["search_results"] = NumberedList(r.Results)
	return vars
}

type Response struct {
	Profile         Profile
	Recommendations string
	Query           string
}

func (Response) Name() string { return NameResponse }
func (Response) Task() contractx.Task { return contractx.TaskDrafting }

func (r Response) Vars() map[string]any {
	vars := r.Profile.vars()
	vars["recommendations"] = orDefault(r.Recommendations, "No recommendations available.")
	vars["customer_query"] = orDefault(r.Query, noQuery)
	return vars
}

type Summary struct {
	Profile         Profile
	Recommendations string
	Query           string
	Response        string
}

func (Summary) Name() string { return NameSummary }
func (Summary) Task() contractx.Task { return contractx.TaskDrafting }

func (s Summary) Vars() map[string]any {
	return map[string]any{
		"customer_profile": s.Profile.String(),
		"notes":            orDefault(s.Profile.Notes, "No notes available"),
		"customer_query":   orDefault(s.Query, noQuery),
		"response":         orDefault(s.Response, "None"),
		"recommendations":  orDefault(s.Recommendations, "No recommendations available."),
	}
}

// Negotiation result labels understood by the guidance template.
const (
	ResultContinue = "Continue Negotiation"
	ResultClose    = "Close Deal"
	ResultEnd      = "End Negotiation"
)

const NoPreviousQuery = "No previous query"

type Guidance struct {
	CustomerName     string
	Sentiment        string
	Tone             string
	Recommendation   string
	CurrentDiscount  int
	MaxDiscount      int
	Query            string
	PreviousGuidance string
	Result           string
}

func (Guidance) Name() string { return NameNegotiation }
func (Guidance) Task() contractx.Task { return contractx.TaskNegotiation }

func (g Guidance) Vars() map[string]any {
	return map[string]any{
		"customer_name":      orDefault(g.CustomerName, "Unknown"),
		"sentiment":          orDefault(g.Sentiment, "Neutral"),
		"tone":               orDefault(g.Tone, "Neutral"),
		"recommendation":     orDefault(g.Recommendation, "No recommendations available."),
		"current_discount":   g.CurrentDiscount,
		"max_discount":       g.MaxDiscount,
		"customer_query":     orDefault(g.Query, NoPreviousQuery),
		"previous_guidance":  g.PreviousGuidance,
		"negotiation_result": orDefault(g.Result, ResultContinue),
	}
}

type SalesFigures struct {
	LastMessage string
}

func (SalesFigures) Name() string { return NameSalesFigures }
func (SalesFigures) Task() contractx.Task { return contractx.TaskNegotiation }

func (s SalesFigures) Vars() map[string]any {
	return map[string]any{"last_message": s.LastMessage}
}

type Notes struct {
	LastMessage string
}

func (Notes) Name() string { return NameNotes }
func (Notes) Task() contractx.Task { return contractx.TaskNegotiation }

func (n Notes) Vars() map[string]any {
	return map[string]any{"last_message": n.LastMessage}
}

// NumberedList renders items as "1. a\n2. b".
func NumberedList(items []string) string {
	var b strings.Builder
	n := 0
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if n > 0 {
			b.WriteByte('\n')
		}
		n++
		fmt.Fprintf(&b, "%d. %s", n, item)
	}
	return b.String()
}

func orDefault(v, fallback string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return fallback
}
