package service

import (
	"errors"

	"github.com/taylorza/zopt/engine"
	"github.com/taylorza/zopt/langexpr"
)

var errNoRulesLoaded = errors.New("service: no rule set loaded")

// Session drives one engine run one Step at a time, recording the
// history of applied rules so the inspector can render a timeline
// alongside the live window. A Session is not safe for concurrent use.
type Session struct {
	eng    *engine.Engine
	src    *textSource
	dst    *textSink
	events []RewriteEvent
	done   bool
}

// NewSession primes a fresh engine over input and returns a Session
// ready for stepping.
func (s *OptimizerService) NewSession(input string) (*Session, error) {
	eng, err := s.newEngine()
	if err != nil {
		return nil, err
	}
	src := newTextSource(input)
	if err := eng.Prime(src); err != nil {
		return nil, err
	}
	return &Session{eng: eng, src: src, dst: &textSink{}}, nil
}

// Step advances the session by one unit of engine work and returns the
// outcome. Once it returns StepDone, Output and Events hold their final
// values.
func (sess *Session) Step() (*engine.StepResult, error) {
	res, err := sess.eng.Step(sess.src, sess.dst)
	if err != nil {
		return nil, err
	}
	if res.Outcome == engine.StepApplied {
		sess.events = append(sess.events, RewriteEvent{
			RuleIndex: res.RuleIndex,
			RuleLine:  res.Rule.SourceLine,
		})
	}
	if res.Outcome == engine.StepDone {
		sess.done = true
	}
	return res, nil
}

// Done reports whether the session has run to completion.
func (sess *Session) Done() bool {
	return sess.done
}

// Window returns the engine's current window, front to back.
func (sess *Session) Window() WindowState {
	lines := sess.eng.Window()
	bindings := make(map[int]string)
	b := sess.eng.Bindings()
	for i := 0; i < langexpr.NumSlots; i++ {
		if v, ok := b.Get(i); ok {
			bindings[i] = v
		}
	}
	return WindowState{Lines: lines, Bindings: bindings}
}

// Events returns the rules applied so far, in firing order.
func (sess *Session) Events() []RewriteEvent {
	return append([]RewriteEvent(nil), sess.events...)
}

// Output returns the text emitted so far (the full rewritten program
// once Done reports true).
func (sess *Session) Output() string {
	return sess.dst.String()
}
