package mcpapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tanpawarit/ai-sales-assistant/agent/agents/interaction"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	statex "github.com/tanpawarit/ai-sales-assistant/agent/state"
	"github.com/tanpawarit/ai-sales-assistant/agent/tool"
)

type Handlers struct {
	interactions Interactions
	negotiations Negotiations
	catalog      Catalog
}

func NewHandlers(interactions Interactions, negotiations Negotiations, catalog Catalog) *Handlers {
	return &Handlers{interactions: interactions, negotiations: negotiations, catalog: catalog}
}

type RunInteractionInput struct {
	CustomerName string `json:"customer_name" jsonschema:"Customer name (required)"`
	Utterance    string `json:"utterance,omitempty" jsonschema:"What the customer said; required for new customers"`
}

func (h *Handlers) RunInteraction(ctx context.Context, _ *mcp.CallToolRequest, input RunInteractionInput) (*mcp.CallToolResult, interaction.Outcome, error) {
	out, err := h.interactions.RunInteraction(ctx, input.CustomerName, input.Utterance)
	if err != nil {
		return nil, interaction.Outcome{}, err
	}
	return nil, out, nil
}

type CustomerInput struct {
	CustomerName string `json:"customer_name" jsonschema:"Customer name (required)"`
}

func (h *Handlers) StartNegotiation(ctx context.Context, _ *mcp.CallToolRequest, input CustomerInput) (*mcp.CallToolResult, TurnOutput, error) {
	res, err := h.negotiations.StartNegotiation(ctx, input.CustomerName)
	if err != nil {
		return nil, TurnOutput{}, err
	}
	return nil, turnOutput(res), nil
}

type TurnInput struct {
	CustomerName string `json:"customer_name" jsonschema:"Customer name (required)"`
	Utterance    string `json:"utterance" jsonschema:"What the customer said (required)"`
}

func (h *Handlers) SubmitNegotiationTurn(ctx context.Context, _ *mcp.CallToolRequest, input TurnInput) (*mcp.CallToolResult, TurnOutput, error) {
	res, err := h.negotiations.SubmitNegotiationTurn(ctx, input.CustomerName, input.Utterance)
	if err != nil {
		return nil, TurnOutput{}, err
	}
	return nil, turnOutput(res), nil
}

type CloseInput struct {
	CustomerName string `json:"customer_name" jsonschema:"Customer name (required)"`
	Outcome      string `json:"outcome" jsonschema:"close (deal won) or end (deal lost)"`
}

func (h *Handlers) CloseNegotiation(ctx context.Context, _ *mcp.CallToolRequest, input CloseInput) (*mcp.CallToolResult, CloseOutput, error) {
	res, err := h.negotiations.CloseNegotiation(ctx, input.CustomerName, input.Outcome)
	if err != nil {
		return nil, CloseOutput{}, err
	}
	return nil, closeOutput(res), nil
}

func (h *Handlers) GetNegotiation(ctx context.Context, _ *mcp.CallToolRequest, input CustomerInput) (*mcp.CallToolResult, SessionOutput, error) {
	session, err := h.negotiations.Session(ctx, input.CustomerName)
	if err != nil {
		return nil, SessionOutput{}, err
	}
	return nil, SessionOutput{Session: negotiationOutput(session)}, nil
}

type ListCustomersInput struct{}

func (h *Handlers) ListCustomers(ctx context.Context, _ *mcp.CallToolRequest, _ ListCustomersInput) (*mcp.CallToolResult, CustomersOutput, error) {
	customers, err := h.catalog.ListCustomers(ctx)
	if err != nil {
		return nil, CustomersOutput{}, fmt.Errorf("failed to list customers: %w", err)
	}
	out := CustomersOutput{Customers: make([]CustomerOutput, 0, len(customers))}
	for _, c := range customers {
		out.Customers = append(out.Customers, customerOutput(c))
	}
	return nil, out, nil
}

type HistoryOutput struct {
	Customer     CustomerOutput   `json:"customer"`
	Interactions []CustomerOutput `json:"interactions"`
}

func (h *Handlers) CustomerHistory(ctx context.Context, _ *mcp.CallToolRequest, input CustomerInput) (*mcp.CallToolResult, HistoryOutput, error) {
	rec, err := h.customer(ctx, input.CustomerName)
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	history, err := h.catalog.History(ctx, rec.CustomerID)
	if err != nil {
		return nil, HistoryOutput{}, fmt.Errorf("failed to list history: %w", err)
	}

	out := HistoryOutput{Customer: customerOutput(rec), Interactions: make([]CustomerOutput, 0, len(history))}
	for _, row := range history {
		row.Name, row.Email, row.Phone = rec.Name, rec.Email, rec.Phone
		out.Interactions = append(out.Interactions, customerOutput(row))
	}
	return nil, out, nil
}

func (h *Handlers) customer(ctx context.Context, name string) (contractx.CustomerRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return contractx.CustomerRecord{}, fmt.Errorf("%w: customer name is required", contractx.ErrValidation)
	}
	rec, found, err := h.catalog.FindLatestByName(ctx, name)
	if err != nil {
		return contractx.CustomerRecord{}, fmt.Errorf("failed to lookup customer: %w", err)
	}
	if !found {
		return contractx.CustomerRecord{}, fmt.Errorf("%w: customer %q", contractx.ErrNotFound, name)
	}
	return rec, nil
}

type ListProductsInput struct {
	CustomerName string `json:"customer_name,omitempty" jsonschema:"Price products for this customer (optional)"`
}

type ProductOutput struct {
	ProductID         int64   `json:"product_id"`
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	StartPrice        float64 `json:"start_price"`
	PriceLimit        float64 `json:"price_limit"`
	Availability      string  `json:"availability"`
	WeightedPrice     float64 `json:"weighted_price"`
	SuggestedDiscount int     `json:"suggested_discount"`
}

type ProductsOutput struct {
	Products []ProductOutput `json:"products"`
}

func (h *Handlers) ListProducts(ctx context.Context, _ *mcp.CallToolRequest, input ListProductsInput) (*mcp.CallToolResult, ProductsOutput, error) {
	var labels contractx.Labels
	if name := strings.TrimSpace(input.CustomerName); name != "" {
		rec, err := h.customer(ctx, name)
		if err != nil {
			return nil, ProductsOutput{}, err
		}
		labels = rec.Labels
	}

	products, err := h.catalog.ListProducts(ctx)
	if err != nil {
		return nil, ProductsOutput{}, fmt.Errorf("failed to list products: %w", err)
	}

	quotes := tool.QuoteProducts(products, labels, statex.DefaultCurrentDiscount, statex.DefaultMaxDiscount)
	out := ProductsOutput{Products: make([]ProductOutput, 0, len(quotes))}
	for _, q := range quotes {
		out.Products = append(out.Products, ProductOutput{
			ProductID:         q.ProductID,
			Name:              q.Name,
			Category:          q.Category,
			StartPrice:        q.StartPrice,
			PriceLimit:        q.PriceLimit,
			Availability:      q.Availability,
			WeightedPrice:     q.WeightedPrice,
			SuggestedDiscount: q.SuggestedDiscount,
		})
	}
	return nil, out, nil
}
