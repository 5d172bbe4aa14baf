package wait

import (
	"context"

	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Kind() models.StepKind {
	return models.StepKindWait
}

func (f *Factory) Name() string {
	return "Wait"
}

func (f *Factory) Description() string {
	return "Suspends the execution for a number of seconds before continuing."
}

func (f *Factory) Create(_ context.Context) (protocol.StepExecutor, error) {
	return NewExecutor(), nil
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"waitSeconds": map[string]any{
				"type":        "number",
				"description": "Seconds to wait before the next step",
				"minimum":     0,
			},
		},
		"required": []string{"waitSeconds"},
	}
}
