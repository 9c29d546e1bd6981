package bot

import (
	"fmt"
	"slices"
	"strings"

	"news_bot/internal/config"
)

// ParseSetArgs splits /set arguments into a known field and its raw value.
// Format: <field> <value...>
func ParseSetArgs(args string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		return "", "", fmt.Errorf("usage: /set <field> <value>")
	}
	field, err := ParseFieldArg(parts[0])
	if err != nil {
		return "", "", err
	}
	return field, strings.TrimSpace(parts[1]), nil
}

// ParseFieldArg extracts a setting field name from a command argument string.
func ParseFieldArg(args string) (string, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return "", fmt.Errorf("field is required")
	}
	field := strings.ToLower(strings.Fields(s)[0])
	if !slices.Contains(config.Fields, field) {
		return "", fmt.Errorf("unknown field %q, use one of: %s", field, fieldList())
	}
	return field, nil
}

func fieldList() string {
	return strings.Join(config.Fields, ", ")
}
