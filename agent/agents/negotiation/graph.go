package negotiation

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/ai-sales-assistant/agent/nodes/negotiation"
)

func (m *Manager) compileSubmitTurnGraph(
	ctx context.Context,
) (compose.Runnable[nodex.TurnInput, nodex.TurnResult], error) {
	graph := compose.NewGraph[nodex.TurnInput, nodex.TurnResult]()

	if err := graph.AddLambdaNode("validate_turn",
		compose.InvokableLambda(func(ctx context.Context, in nodex.TurnInput) (*nodex.TurnState, error) {
			return nodex.ValidateTurn(in, m.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_turn: %w", err)
	}

	if err := graph.AddLambdaNode("load_session",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.LoadOpenSession(ctx, in, m.repo, m.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_session: %w", err)
	}

	if err := graph.AddLambdaNode("classify_turn",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.ClassifyTurn(ctx, in, m.classifier)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify_turn: %w", err)
	}

	if err := graph.AddLambdaNode("draft_guidance",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.DraftGuidance(ctx, in, m.generator)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node draft_guidance: %w", err)
	}

	if err := graph.AddLambdaNode("save_session",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.SaveSession(ctx, in, m.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node save_session: %w", err)
	}

	if err := graph.AddLambdaNode("emit_metrics",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (*nodex.TurnState, error) {
			return nodex.EmitMetrics(ctx, in, m.metrics)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node emit_metrics: %w", err)
	}

	if err := graph.AddLambdaNode("present",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.TurnState) (nodex.TurnResult, error) {
			return nodex.Present(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node present: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_turn"},
		{"validate_turn", "load_session"},
		{"load_session", "classify_turn"},
		{"classify_turn", "draft_guidance"},
		{"draft_guidance", "save_session"},
		{"save_session", "emit_metrics"},
		{"emit_metrics", "present"},
		{"present", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("negotiation.submit_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile negotiation graph: %w", err)
	}
	return runner, nil
}
