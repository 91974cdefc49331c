package config

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	scoperrors "stepscope/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// ValidateScenario performs schema and cross-field validation on a scenario.
func ValidateScenario(scenario *Scenario) error {
	if scenario == nil {
		return scoperrors.NewValidationError("scenario", "scenario is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(scenario); err != nil {
		return convertValidationError(err)
	}

	for i := range scenario.Steps {
		if err := validateStep(&scenario.Steps[i], fmt.Sprintf("steps[%d]", i)); err != nil {
			return err
		}
	}

	return nil
}

// validateStep enforces the rules struct tags cannot express, recursing
// through nested steps.
func validateStep(step *Step, path string) error {
	if step.Action != "" && len(step.Steps) > 0 {
		return scoperrors.NewValidationError(path, "action and nested steps are mutually exclusive", nil)
	}

	switch step.Mode {
	case ModeAggregate:
		if step.Propagate || step.RaiseOnParent {
			return scoperrors.NewValidationError(fieldFor(path, "mode"), "propagate and raise_on_parent only apply to mode: step", nil)
		}
	case ModeStep:
		if step.RaiseOnParent && !step.Propagate {
			return scoperrors.NewValidationError(fieldFor(path, "raise_on_parent"), "raise_on_parent requires propagate", nil)
		}
	}

	switch step.Action {
	case ActionFail, ActionCatch:
		if step.Message == "" {
			return scoperrors.NewValidationError(fieldFor(path, "message"), fmt.Sprintf("action %q requires a message", step.Action), nil)
		}
	}

	for i := range step.Steps {
		if err := validateStep(&step.Steps[i], fmt.Sprintf("%s.steps[%d]", path, i)); err != nil {
			return err
		}
	}

	return nil
}

func fieldFor(path, field string) string {
	return path + "." + field
}
