package config

import (
	"gopkg.in/yaml.v3"
)

// Step modes.
const (
	ModeStep      = "step"
	ModeAggregate = "aggregate"
)

// Leaf actions.
const (
	ActionPass  = "pass"
	ActionFail  = "fail"
	ActionCatch = "catch"
)

// Scenario represents a full scenario document: a tree of scoped steps with
// their failure-propagation policies and simulated outcomes.
type Scenario struct {
	Version     string   `yaml:"version" validate:"required,semver"`
	Name        string   `yaml:"name" validate:"required,min=1,max=100"`
	Description string   `yaml:"description,omitempty"`
	Settings    Settings `yaml:"settings,omitempty"`
	Steps       []Step   `yaml:"steps" validate:"required,min=1,dive"`
}

// Settings holds scenario-wide execution parameters.
type Settings struct {
	LogSteps  bool   `yaml:"log_steps,omitempty"`
	OutputDir string `yaml:"output_dir,omitempty"`
	Verbose   bool   `yaml:"verbose,omitempty"`
}

// Step describes one scope in the scenario tree. A step either holds nested
// steps or a leaf action, never both.
type Step struct {
	Title         string `yaml:"title" validate:"required,min=1"`
	Mode          string `yaml:"mode,omitempty" validate:"omitempty,oneof=step aggregate"`
	Propagate     bool   `yaml:"propagate,omitempty"`
	RaiseOnParent bool   `yaml:"raise_on_parent,omitempty"`
	Action        string `yaml:"action,omitempty" validate:"omitempty,oneof=pass fail catch"`
	Message       string `yaml:"message,omitempty"`
	Steps         []Step `yaml:"steps,omitempty" validate:"omitempty,dive"`
}

// UnmarshalYAML applies defaults: mode "step", and action "pass" for leaves.
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	type rawStep Step
	var temp rawStep
	if err := value.Decode(&temp); err != nil {
		return err
	}
	*s = Step(temp)

	if s.Mode == "" {
		s.Mode = ModeStep
	}
	if s.Action == "" && len(s.Steps) == 0 {
		s.Action = ActionPass
	}
	return nil
}
