package mcpapi

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tanpawarit/ai-sales-assistant/agent/agents/interaction"
	"github.com/tanpawarit/ai-sales-assistant/agent/agents/negotiation"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	statex "github.com/tanpawarit/ai-sales-assistant/agent/state"
)

type Interactions interface {
	RunInteraction(ctx context.Context, customerName, utterance string) (interaction.Outcome, error)
}

type Negotiations interface {
	StartNegotiation(ctx context.Context, customerName string) (negotiation.TurnResult, error)
	SubmitNegotiationTurn(ctx context.Context, customerName, utterance string) (negotiation.TurnResult, error)
	CloseNegotiation(ctx context.Context, customerName, outcome string) (negotiation.CloseResult, error)
	Session(ctx context.Context, customerName string) (*statex.NegotiationSession, error)
}

type Catalog interface {
	contractx.ProductCatalog
	FindLatestByName(ctx context.Context, name string) (contractx.CustomerRecord, bool, error)
	ListCustomers(ctx context.Context) ([]contractx.CustomerRecord, error)
	History(ctx context.Context, customerID int64) ([]contractx.CustomerRecord, error)
}

// NewServer registers every sales assistant tool on an MCP server.
func NewServer(version string, h *Handlers) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "ai-sales-assistant",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_interaction",
		Description: "Analyze a customer utterance, draft car recommendations and a salesperson script, and record the interaction",
	}, h.RunInteraction)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "start_negotiation",
		Description: "Start (or resume) a price negotiation with a known customer and get the first seller guidance",
	}, h.StartNegotiation)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "submit_negotiation_turn",
		Description: "Submit what the customer said during a negotiation and get updated seller guidance",
	}, h.SubmitNegotiationTurn)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "close_negotiation",
		Description: "Finish a negotiation as won (close) or lost (end) and record the outcome",
	}, h.CloseNegotiation)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_negotiation",
		Description: "Show the open negotiation session for a customer",
	}, h.GetNegotiation)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_customers",
		Description: "List customers with their current interaction",
	}, h.ListCustomers)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "customer_history",
		Description: "List every recorded interaction of a customer, oldest first",
	}, h.CustomerHistory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_products",
		Description: "List catalog products, optionally priced for a customer",
	}, h.ListProducts)

	return server
}

// Serve runs the server on stdio until ctx is done or the client disconnects.
func Serve(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
