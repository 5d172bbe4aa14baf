package registry

import (
	"fmt"
	"strings"

	"github.com/reliefops/aidflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// ValidateParameters checks a step's parameter map against the JSON schema
// declared by the executor factory for its kind. Structural kinds (branch,
// parallel) carry no parameters and always validate.
func (r *Registry) ValidateParameters(step *models.WorkflowStep) error {
	if !step.IsLeaf() {
		return nil
	}

	factory, ok := r.factories[step.Kind]
	if !ok {
		return fmt.Errorf("step kind %q not registered", step.Kind)
	}

	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	parameters := step.Parameters
	if parameters == nil {
		parameters = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(parameters)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to validate parameters for step %s: %w", step.Name, err)
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return fmt.Errorf("invalid parameters for step %s: %s", step.Name, strings.Join(descriptions, "; "))
	}

	return nil
}

// ValidateTemplate validates the parameter maps of every leaf step in the
// template tree.
func (r *Registry) ValidateTemplate(template *models.WorkflowTemplate) error {
	var walk func(step *models.WorkflowStep) error
	walk = func(step *models.WorkflowStep) error {
		if err := r.ValidateParameters(step); err != nil {
			return err
		}

		switch step.Kind {
		case models.StepKindBranch:
			if err := walk(step.Branch.Then); err != nil {
				return err
			}

			if step.Branch.Else != nil {
				return walk(step.Branch.Else)
			}
		case models.StepKindParallel:
			for _, child := range step.Children {
				if err := walk(child); err != nil {
					return err
				}
			}
		}

		return nil
	}

	for _, step := range template.Steps {
		if err := walk(step); err != nil {
			return err
		}
	}

	return nil
}
