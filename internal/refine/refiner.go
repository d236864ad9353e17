// Package refine turns raw prompts into structured, variablized prompts.
package refine

import (
	"context"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/promptcraft/internal/gateway"
	"github.com/ChamsBouzaiene/promptcraft/internal/prompts"
)

// Refiner calls the gateway with the refinement instruction.
type Refiner struct {
	gw         gateway.Completer
	classifier Classifier
	logger     *zap.Logger
}

// New creates a Refiner. A nil classifier defaults to KeywordClassifier and a
// nil logger to a no-op logger.
func New(gw gateway.Completer, classifier Classifier, logger *zap.Logger) *Refiner {
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refiner{gw: gw, classifier: classifier, logger: logger}
}

// Refine asks the model to improve raw. The result is never an error value;
// a failed call is carried inside the returned Result.
func (r *Refiner) Refine(ctx context.Context, raw string) gateway.Result {
	r.logger.Debug("refining prompt", zap.Int("raw_len", len(raw)))
	return r.gw.Complete(ctx, gateway.TaskRefine, prompts.RefineInstruction(), raw)
}

// NeedsMoreInfo applies the configured classifier to text.
func (r *Refiner) NeedsMoreInfo(text string) bool {
	return r.classifier.NeedsMoreInfo(text)
}

// GenerateFromStructuredInput composes the Objective/Audience/Tone prompt and
// refines it. fired is false, and no call is made, when any answer is blank.
func (r *Refiner) GenerateFromStructuredInput(ctx context.Context, answers prompts.StructuredAnswers) (res gateway.Result, fired bool) {
	composed, ok := prompts.ComposeStructured(answers)
	if !ok {
		return gateway.Result{}, false
	}
	return r.Refine(ctx, composed), true
}
