package interaction

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/ai-sales-assistant/agent/nodes/interaction"
)

func (o *Orchestrator) compileRunInteractionGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.Outcome], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.Outcome]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("resolve_customer",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ResolveCustomer(ctx, in, o.repo)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node resolve_customer: %w", err)
	}

	if err := graph.AddLambdaNode("classify",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Classify(ctx, in, o.classifier)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify: %w", err)
	}

	if err := graph.AddLambdaNode("retrieve",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Retrieve(ctx, in, o.retriever, o.queryMode)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node retrieve: %w", err)
	}

	if err := graph.AddLambdaNode("draft_recommendation",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.DraftRecommendation(ctx, in, o.generator)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node draft_recommendation: %w", err)
	}

	if err := graph.AddLambdaNode("draft_response",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.DraftResponse(ctx, in, o.generator)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node draft_response: %w", err)
	}

	if err := graph.AddLambdaNode("summarize",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Summarize(ctx, in, o.generator)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node summarize: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.PathPersistExisting,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PersistExisting(ctx, in, o.repo)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node persist_existing: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.PathPersistNew,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PersistNew(ctx, in, o.repo)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node persist_new: %w", err)
	}

	if err := graph.AddLambdaNode("present",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.Outcome, error) {
			return nodex.Present(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node present: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			return nodex.PersistPath(in)
		},
		map[string]bool{
			nodex.PathPersistExisting: true,
			nodex.PathPersistNew:      true,
		},
	)
	if err := graph.AddBranch("summarize", branch); err != nil {
		return nil, fmt.Errorf("add persist branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "resolve_customer"},
		{"resolve_customer", "classify"},
		{"classify", "retrieve"},
		{"retrieve", "draft_recommendation"},
		{"draft_recommendation", "draft_response"},
		{"draft_response", "summarize"},
		{nodex.PathPersistExisting, "present"},
		{nodex.PathPersistNew, "present"},
		{"present", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("interaction.run"))
	if err != nil {
		return nil, fmt.Errorf("compile interaction graph: %w", err)
	}
	return runner, nil
}
