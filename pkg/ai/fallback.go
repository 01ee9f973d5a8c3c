package ai

import (
	"context"
	"errors"
	"net"
	"strings"

	"mailflow-backend/pkg/logger"

	"go.uber.org/zap"
)

// FallbackService routes composer calls to a primary provider and falls back
// to a secondary one on connection-level failures. API-level errors (bad
// request, quota) are returned as-is since the fallback would likely repeat
// them.
type FallbackService struct {
	primary   ComposerService
	secondary ComposerService
}

// NewFallbackService creates a new fallback composer
func NewFallbackService(primary, secondary ComposerService) *FallbackService {
	return &FallbackService{primary: primary, secondary: secondary}
}

func (f *FallbackService) GenerateDraft(ctx context.Context, emailContext, prompt string) (string, error) {
	out, err := f.primary.GenerateDraft(ctx, emailContext, prompt)
	if err != nil && isConnectionError(err) {
		logger.L().Warn("primary AI provider unreachable, falling back", zap.Error(err))
		return f.secondary.GenerateDraft(ctx, emailContext, prompt)
	}
	return out, err
}

func (f *FallbackService) CompleteText(ctx context.Context, input, emailContext string) (string, error) {
	out, err := f.primary.CompleteText(ctx, input, emailContext)
	if err != nil && isConnectionError(err) {
		logger.L().Warn("primary AI provider unreachable, falling back", zap.Error(err))
		return f.secondary.CompleteText(ctx, input, emailContext)
	}
	return out, err
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := err.Error()
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"timeout",
		"dial tcp",
		"EOF",
	}
	for _, indicator := range connectionIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}
