// Package output runs refined prompts and caches the last rendering.
package output

import (
	"context"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/promptcraft/internal/gateway"
	"github.com/ChamsBouzaiene/promptcraft/internal/prompts"
)

// Generator substitutes variables into a refined prompt and executes it.
type Generator struct {
	gw     gateway.Completer
	logger *zap.Logger
}

// NewGenerator creates a Generator. A nil logger disables logging.
func NewGenerator(gw gateway.Completer, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{gw: gw, logger: logger}
}

// Generate fills refined with inputs and asks the model to perform the
// resulting request.
func (g *Generator) Generate(ctx context.Context, refined string, inputs map[string]string) gateway.Result {
	final := prompts.Substitute(refined, inputs)
	if missing := prompts.UniqueVariables(final); len(missing) > 0 {
		g.logger.Debug("executing prompt with unresolved placeholders", zap.Strings("variables", missing))
	}
	return g.gw.Complete(ctx, gateway.TaskGenerate, prompts.ExecuteInstruction(), final)
}

// GenerateFromStructuredInput executes the Objective/Audience/Tone prompt
// directly. fired is false, and no call is made, when any answer is blank.
func (g *Generator) GenerateFromStructuredInput(ctx context.Context, answers prompts.StructuredAnswers) (res gateway.Result, fired bool) {
	composed, ok := prompts.ComposeStructured(answers)
	if !ok {
		return gateway.Result{}, false
	}
	return g.Generate(ctx, composed, map[string]string{}), true
}
