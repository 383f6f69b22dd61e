package server

import (
	"fmt"
	"strings"
)

const (
	maxNameLength        = 64
	maxDescriptionLength = 280
	maxCommentLength     = 500
)

func validateName(label, name string) (string, error) {
	trimmed := normalizeText(name)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	if len(trimmed) > maxNameLength {
		return "", fmt.Errorf("%s must be %d characters or fewer", label, maxNameLength)
	}
	return trimmed, nil
}

func validateDescription(text string) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", fmt.Errorf("description is required")
	}
	if len(trimmed) > maxDescriptionLength {
		return "", fmt.Errorf("description must be %d characters or fewer", maxDescriptionLength)
	}
	return trimmed, nil
}

func validateComment(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("comment is required")
	}
	if len(trimmed) > maxCommentLength {
		return "", fmt.Errorf("comment must be %d characters or fewer", maxCommentLength)
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}
