package pipeline

import (
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/tomasim/insts"
)

// EventLogger is a hook that writes one debug record per pipeline event.
type EventLogger struct {
	logger *logrus.Logger
}

// NewEventLogger creates a hook that logs through logger. Records are
// emitted at debug level, so the logger level decides whether they show.
func NewEventLogger(logger *logrus.Logger) *EventLogger {
	return &EventLogger{logger: logger}
}

// Func implements sim.Hook.
func (l *EventLogger) Func(ctx sim.HookCtx) {
	if !l.logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}

	detail, ok := ctx.Detail.(HookDetail)
	if !ok {
		return
	}

	fields := logrus.Fields{
		"cycle":    detail.Cycle,
		"event":    ctx.Pos.Name,
		"position": detail.Position,
	}
	if inst, ok := ctx.Item.(*insts.Instruction); ok {
		fields["inst"] = inst.String()
	}
	if named, ok := ctx.Domain.(interface{ Name() string }); ok {
		fields["pipeline"] = named.Name()
	}
	if ctx.Pos == HookPosWakeup {
		fields["woken"] = detail.Woken
	}

	l.logger.WithFields(fields).Debug("pipeline event")
}
