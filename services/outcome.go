package services

import (
	"go.uber.org/zap"
)

// SideEffectOutcome reports a best-effort step that runs after the primary write has
// committed. It never turns into a request error; callers log it and move on.
type SideEffectOutcome struct {
	Name     string
	Affected int
	Skipped  bool
	Err      error
}

func (o SideEffectOutcome) OK() bool { return o.Err == nil }

// Log writes the outcome at Warn on failure and Debug otherwise.
func (o SideEffectOutcome) Log(logger *zap.Logger, fields ...zap.Field) {
	fields = append(fields,
		zap.String("side_effect", o.Name),
		zap.Int("affected", o.Affected),
		zap.Bool("skipped", o.Skipped),
	)
	if o.Err != nil {
		logger.Warn("Side effect failed", append(fields, zap.Error(o.Err))...)
		return
	}
	logger.Debug("Side effect completed", fields...)
}
