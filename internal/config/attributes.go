package config

import (
	"fmt"
	"strings"
)

// CustomAttribute is a NAME=EXPR label evaluated for every process.
type CustomAttribute struct {
	Name       string
	Expression string
}

// ParseCustomAttribute parses a NAME=EXPR definition. Only the first '='
// separates name and expression.
func ParseCustomAttribute(s string) (CustomAttribute, error) {
	name, expression, ok := strings.Cut(s, "=")
	if !ok {
		return CustomAttribute{}, fmt.Errorf("invalid attribute format %q: expected NAME=EXPR", s)
	}

	name = strings.TrimSpace(name)
	expression = strings.TrimSpace(expression)
	if name == "" {
		return CustomAttribute{}, fmt.Errorf("invalid attribute %q: name cannot be empty", s)
	}
	if expression == "" {
		return CustomAttribute{}, fmt.Errorf("invalid attribute %q: expression cannot be empty", s)
	}

	return CustomAttribute{Name: name, Expression: expression}, nil
}
