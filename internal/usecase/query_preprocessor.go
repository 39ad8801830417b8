package usecase

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// multiSpacePattern collapses runs of whitespace inside a query
var multiSpacePattern = regexp.MustCompile(`\s+`)

// QueryPreprocessor cleans the configured search keyword list
type QueryPreprocessor struct {
	logger *zap.Logger
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(logger *zap.Logger) *QueryPreprocessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryPreprocessor{logger: logger}
}

// Prepare normalizes each query and drops blanks and repeats, keeping the
// first occurrence in the original order.
func (p *QueryPreprocessor) Prepare(queries []string) []string {
	prepared := make([]string, 0, len(queries))
	seen := make(map[string]struct{}, len(queries))

	for _, raw := range queries {
		query := NormalizeQuery(raw)
		if query == "" {
			continue
		}
		if _, dup := seen[query]; dup {
			p.logger.Debug("duplicate query dropped", zap.String("query", raw))
			continue
		}
		seen[query] = struct{}{}
		prepared = append(prepared, query)
	}

	return prepared
}

// NormalizeQuery lowercases, trims and collapses whitespace
func NormalizeQuery(query string) string {
	query = strings.ToLower(query)
	query = multiSpacePattern.ReplaceAllString(query, " ")
	return strings.TrimSpace(query)
}
