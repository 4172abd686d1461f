package gateway

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
)

// compileChatGraph wires prompt -> model -> finish. finish turns the model
// reply into the graph output.
func compileChatGraph[O any](
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	template einoprompt.ChatTemplate,
	finish *compose.Lambda,
	graphName string,
) (compose.Runnable[map[string]any, O], error) {
	graph := compose.NewGraph[map[string]any, O]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add node prompt: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add node model: %w", err)
	}
	if err := graph.AddLambdaNode("finish", finish); err != nil {
		return nil, fmt.Errorf("add node finish: %w", err)
	}

	for _, edge := range [][2]string{
		{compose.START, "prompt"},
		{"prompt", "model"},
		{"model", "finish"},
		{"finish", compose.END},
	} {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", graphName, err)
	}
	return runner, nil
}

// compileStructuredLLMGraph sends {input} under systemPrompt and parses the
// reply content as JSON into T.
func compileStructuredLLMGraph[T any](
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, T], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)
	parser := schema.NewMessageJSONParser[T](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})
	return compileChatGraph[T](ctx, chatModel, template, compose.MessageParser(parser), graphName)
}

// compileTextLLMGraph renders body with the template vars as the user turn and
// returns the trimmed message content.
func compileTextLLMGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	body string,
	graphName string,
) (compose.Runnable[map[string]any, string], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(body),
	)
	return compileChatGraph[string](ctx, chatModel, template, compose.InvokableLambda(messageText), graphName)
}

func messageText(_ context.Context, msg *schema.Message) (string, error) {
	if msg == nil {
		return "", fmt.Errorf("%w: model returned no message", contractx.ErrSchemaViolation)
	}
	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return "", fmt.Errorf("%w: model returned empty content", contractx.ErrSchemaViolation)
	}
	return text, nil
}
