package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	scoperrors "stepscope/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// ParseScenario loads a scenario file from disk, validates it, and returns
// the resulting model.
func ParseScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, scoperrors.NewParseError(path, 0, err)
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, scoperrors.NewParseError(path, extractLine(err), err)
	}

	if err := ValidateScenario(&scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}
