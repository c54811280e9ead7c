package extensions

import (
	"log/slog"

	"github.com/pumped-fn/dataflow"
	"github.com/pumped-fn/dataflow/logging"
)

// LoggingExtension logs graph activity through a logging.Logger
type LoggingExtension struct {
	dataflow.BaseExtension
	logger logging.Logger
}

// NewLoggingExtension creates a new logging extension. A nil logger falls
// back to slog.Default.
func NewLoggingExtension(logger logging.Logger) *LoggingExtension {
	if logger == nil {
		logger = logging.NewSlogAdapter(slog.Default())
	}
	return &LoggingExtension{
		BaseExtension: dataflow.NewBaseExtension("logging"),
		logger:        logger,
	}
}

func (e *LoggingExtension) OnPublish(c dataflow.Context, v dataflow.Value) {
	e.logger.Debug("publish", "context", dataflow.NameOf(c), "type", v.Type().String())
}

func (e *LoggingExtension) OnConnect(g *dataflow.Connection, member dataflow.Context) {
	e.logger.Info("connect",
		"connection", dataflow.NameOf(g),
		"member", dataflow.NameOf(member),
		"members", g.Count(),
	)
}

func (e *LoggingExtension) OnDisconnect(g *dataflow.Connection, member dataflow.Context) {
	e.logger.Info("disconnect",
		"connection", dataflow.NameOf(g),
		"member", dataflow.NameOf(member),
		"members", g.Count(),
	)
}

func (e *LoggingExtension) OnRejected(source dataflow.Context, target any, reason dataflow.RejectReason) {
	e.logger.Warn("edge rejected",
		"source", dataflow.NameOf(source),
		"target", targetName(target),
		"reason", string(reason),
	)
}

func (e *LoggingExtension) OnRelease(c dataflow.Context) {
	e.logger.Debug("release", "context", dataflow.NameOf(c))
}

func targetName(target any) string {
	if c, ok := target.(dataflow.Context); ok {
		return dataflow.NameOf(c)
	}
	return "publisher"
}
