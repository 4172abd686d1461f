package gateway

import (
	"context"
	"fmt"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	promptx "github.com/tanpawarit/ai-sales-assistant/agent/prompt"
)

// FallbackText is returned in place of model output when generation fails.
const FallbackText = "Unable to generate a response. Please try again."

// Generator runs one compiled text graph per prompt template.
type Generator struct {
	runners map[string]compose.Runnable[map[string]any, string]
	timeout time.Duration
}

// NewGenerator compiles every template against the chat model registered for
// its task.
func NewGenerator(
	ctx context.Context,
	models map[contractx.Task]einomodel.BaseChatModel,
	prompts promptx.PromptSet,
	timeout time.Duration,
) (*Generator, error) {
	runners := make(map[string]compose.Runnable[map[string]any, string], len(promptx.Names()))
	for _, name := range promptx.Names() {
		task := promptx.TaskOf(name)
		chatModel := models[task]
		if chatModel == nil {
			return nil, fmt.Errorf("%w: chat model for task %q is required", contractx.ErrValidation, task)
		}
		body, err := prompts.Body(name)
		if err != nil {
			return nil, err
		}
		runner, err := compileTextLLMGraph(ctx, chatModel, prompts.System, body, "generate."+name)
		if err != nil {
			return nil, fmt.Errorf("%w: compile %s generator: %v", contractx.ErrModelInvoke, name, err)
		}
		runners[name] = runner
	}

	return &Generator{runners: runners, timeout: timeout}, nil
}

func (g *Generator) Complete(ctx context.Context, tmpl contractx.PromptTemplate) contractx.Completion {
	if tmpl == nil {
		return degraded()
	}

	runner, ok := g.runners[tmpl.Name()]
	if !ok {
		log.Warn().Str("template", tmpl.Name()).Msg("generator: unknown template")
		return degraded()
	}

	callCtx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	text, err := runner.Invoke(callCtx, tmpl.Vars())
	if err != nil {
		log.Warn().Err(err).Str("template", tmpl.Name()).Str("task", string(tmpl.Task())).Msg("generator: model invoke failed")
		return degraded()
	}
	return contractx.Completion{Text: text}
}

func degraded() contractx.Completion {
	return contractx.Completion{Text: FallbackText, Degraded: true}
}
