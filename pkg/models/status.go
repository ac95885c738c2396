package models

import "strings"

// StatusClassifier classifies free-text workflow status names into completed,
// active, and blocked buckets using substring containment. Matching is
// case-insensitive and deliberately fuzzy: "Code Review - Blocked" still
// counts as active. Keyword lists are injected from configuration so edge
// cases can be tuned per tracker.
type StatusClassifier struct {
	completed []string
	active    []string
	blocked   []string
}

// NewStatusClassifier builds a classifier from keyword lists. Keywords are
// lowercased once at construction.
func NewStatusClassifier(completed, active, blocked []string) StatusClassifier {
	return StatusClassifier{
		completed: lowerAll(completed),
		active:    lowerAll(active),
		blocked:   lowerAll(blocked),
	}
}

// DefaultCompletionKeywords are the stock terminal-status keywords.
func DefaultCompletionKeywords() []string {
	return []string{"done", "closed", "resolved", "completed"}
}

// DefaultActiveKeywords are the stock in-progress-status keywords.
func DefaultActiveKeywords() []string {
	return []string{
		"in progress", "in development", "in review",
		"code review", "testing", "qa", "ready for review",
	}
}

// DefaultBlockedKeywords are the stock blocked-status keywords.
func DefaultBlockedKeywords() []string {
	return []string{"blocked", "on hold", "waiting"}
}

// DefaultStatusClassifier returns a classifier with the stock keyword lists.
func DefaultStatusClassifier() StatusClassifier {
	return NewStatusClassifier(
		DefaultCompletionKeywords(),
		DefaultActiveKeywords(),
		DefaultBlockedKeywords(),
	)
}

// IsCompleted reports whether the status name matches a completion keyword.
func (c StatusClassifier) IsCompleted(status string) bool {
	return containsAny(status, c.completed)
}

// IsActive reports whether the status name matches an active keyword.
func (c StatusClassifier) IsActive(status string) bool {
	return containsAny(status, c.active)
}

// IsBlocked reports whether the status name matches a blocked keyword.
func (c StatusClassifier) IsBlocked(status string) bool {
	return containsAny(status, c.blocked)
}

// IsStarted reports whether the status name matches either an active or a
// completion keyword, i.e. work on the issue has begun.
func (c StatusClassifier) IsStarted(status string) bool {
	return c.IsActive(status) || c.IsCompleted(status)
}

func containsAny(status string, keywords []string) bool {
	s := strings.ToLower(status)
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
