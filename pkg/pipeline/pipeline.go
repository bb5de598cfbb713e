// Package pipeline pumps records from a Source into a Sink. The hub
// performs no transformation of its own; all semantic richness lives in
// the adapters' mapping to and from the value model.
package pipeline

import (
	"go.uber.org/zap"

	"github.com/sluiceio/sluice/pkg/logger"
	"github.com/sluiceio/sluice/pkg/value"
)

// Run copies records from src into sink in strict stream order until
// the source reports end of stream, then finalizes the sink. It
// returns the number of records copied and the first error
// encountered.
//
// The sink is closed on every path. When a close failure follows an
// earlier failure, the close failure is logged rather than escalated
// so the original error reaches the caller.
func Run(src value.Source, sink value.Sink) (int64, error) {
	var copied int64

	for {
		v, err := src.Read()
		if err != nil {
			closeAfter(sink, err)
			return copied, err
		}
		if v == nil {
			break
		}
		if err := sink.Write(*v); err != nil {
			closeAfter(sink, err)
			return copied, err
		}
		copied++
	}

	if err := sink.Close(); err != nil {
		return copied, err
	}

	logger.Debug("pipeline complete", zap.Int64("records", copied))
	return copied, nil
}

func closeAfter(sink value.Sink, cause error) {
	if err := sink.Close(); err != nil {
		logger.Warn("sink close failed after pipeline error",
			zap.Error(err),
			zap.NamedError("cause", cause))
	}
}
