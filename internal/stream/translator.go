package stream

import (
	"fmt"

	"github.com/ppiankov/claimcheck/internal/workflow"
)

// Translator turns engine events into client records. Use one per run.
type Translator struct {
	searching bool
}

// NewTranslator creates a translator for one run
func NewTranslator() *Translator {
	return &Translator{}
}

// Translate returns the records for ev, possibly none.
// Non-terminal errors are not forwarded; the terminal error that follows describes them.
func (t *Translator) Translate(ev workflow.Event) []Record {
	switch ev := ev.(type) {
	case workflow.StageCompleted:
		return t.progress(ev)

	case workflow.Token:
		return []Record{{Event: KindToken, Data: ev.Text}}

	case workflow.Error:
		if !ev.Terminal {
			return nil
		}
		return []Record{{Event: KindError, Data: ev.Err.Error()}}

	case workflow.Completed:
		final, err := ev.State.FinalResult()
		if err != nil {
			return []Record{{Event: KindError, Data: err.Error()}}
		}
		return []Record{{Event: KindFinalResult, Data: final}}
	}
	return nil
}

func (t *Translator) progress(ev workflow.StageCompleted) []Record {
	var msg string
	switch ev.Stage {
	case workflow.StageGenerateQueries:
		msg = ProgressQueries
	case workflow.StageWebSearch:
		if t.searching {
			return nil
		}
		t.searching = true
		msg = ProgressSearching
	case workflow.StageAggregate:
		count := 0
		if out, ok := ev.Output.(workflow.AggregateOutput); ok {
			count = out.Count
		}
		msg = fmt.Sprintf(ProgressGathered, count)
	case workflow.StageFactCheck:
		msg = ProgressAnalyzing
	default:
		return nil
	}
	return []Record{{Event: KindProgress, Data: msg}}
}
