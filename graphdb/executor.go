package graphdb

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Executor runs pipelines
type Executor struct{}

// NewExecutor initializes a new Executor
func NewExecutor() *Executor {
	return &Executor{}
}

// Run drives the pipeline to exhaustion and returns the emitted values in
// order. The last stage is asked for output; a stage that needs input makes
// the machine step back to its upstream neighbour, and a stage that emits
// hands its traverser forward. done is the highest stage index known to be
// exhausted, so the run ends once the last stage is done.
func (e *Executor) Run(p *Pipeline) ([]interface{}, error) {
	log := logrus.WithField("component", "Executor")
	if p.used {
		return nil, ErrPipelineConsumed
	}
	p.used = true
	if len(p.stages) == 0 {
		return nil, fmt.Errorf("%w: empty pipeline", ErrQueryStart)
	}

	results := []interface{}{}
	last := len(p.stages) - 1
	done := -1
	pc := last
	var t *Traverser

	for done < last {
		out, sig := p.stages[pc].process(t, pc-1 <= done)
		p.calls++
		t = nil
		switch sig {
		case sigPull:
			if pc-1 > done {
				pc--
				continue
			}
			done = pc
		case sigDone:
			done = pc
		case sigEmit:
			t = out
		}
		pc++
		if pc > last {
			if t != nil {
				results = append(results, t.Value())
			}
			t = nil
			pc--
		}
	}

	log.WithFields(logrus.Fields{
		"result_count": len(results),
		"stage_calls":  p.calls,
	}).Debug("Pipeline run complete")
	return results, nil
}
