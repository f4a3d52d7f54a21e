package stream

import (
	"fmt"

	"github.com/ppiankov/claimcheck/internal/workflow"
)

// Pump forwards a run's events to sink until the run ends, then writes End.
// End is attempted even after a failed send. A send failure means the client is gone:
// Pump returns an error wrapping workflow.ErrStreamDisconnect and the caller should
// cancel the run context.
func Pump(events <-chan workflow.Event, sink Sink) error {
	translator := NewTranslator()

	var sendErr error
	for ev := range events {
		for _, rec := range translator.Translate(ev) {
			if err := sink.Send(rec); err != nil {
				sendErr = fmt.Errorf("%w: %v", workflow.ErrStreamDisconnect, err)
				break
			}
		}
		if sendErr != nil {
			break
		}
	}

	if err := sink.Send(End); err != nil && sendErr == nil {
		sendErr = fmt.Errorf("%w: %v", workflow.ErrStreamDisconnect, err)
	}
	return sendErr
}
