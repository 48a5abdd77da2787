package tap

import "sync"

// ReplaySource is an injectable Source driven by a scripted event stream.
// It stands in for the platform backend in tests and non-interactive
// tooling: Emit plays the role of the OS callback and may be called from
// any goroutine.
type ReplaySource struct {
	mu        sync.Mutex
	opts      Options
	started   bool
	startErr  error
	reenables int
}

// FailWith makes the next Start return err, emulating an OS refusal.
func (s *ReplaySource) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startErr = err
}

func (s *ReplaySource) Start(opts Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return s.startErr
	}
	s.opts = opts
	s.started = true
	return nil
}

func (s *ReplaySource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
}

// Emit delivers one event to the handler and returns its verdict. Events
// emitted while stopped are dropped with a pass verdict, mirroring a
// detached listen port.
func (s *ReplaySource) Emit(ev Event) Verdict {
	s.mu.Lock()
	started := s.started
	handler := s.opts.Handler
	s.mu.Unlock()
	if !started || handler == nil {
		return VerdictPass
	}
	return handler(ev)
}

// ForceDisable emulates the OS unilaterally disabling the tap. The recovery
// path re-enables immediately and never reaches the handler.
func (s *ReplaySource) ForceDisable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.reenables++
	}
}

// Reenables reports how many forced-disable round trips were absorbed.
func (s *ReplaySource) Reenables() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reenables
}
