// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/serverlink/lib/link"
)

// State is the lifecycle position of a transport session.
type State int

const (
	Idle State = iota
	Connecting
	Ready
	Operating
	Closing
	Closed
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	case Operating:
		return "operating"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	case Errored:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var transitions = map[State][]State{
	Idle:       {Connecting},
	Connecting: {Ready, Errored},
	Ready:      {Operating, Closing},
	Operating:  {Ready, Errored},
	Errored:    {Closing},
	Closing:    {Closed},
}

// Session tracks one transport session from dial to teardown and
// classifies its failures. Clients create one per call:
//
//	session := protocol.NewSession(link.FTP, address, logger)
//	if err := session.Connect(dial); err != nil {
//		return err
//	}
//	defer session.Finish(&err, conn.Quit)
//	return session.Do(protocol.StageGet, remotePath, transfer)
//
// A session is not reused after it is closed and no step is retried.
type Session struct {
	kind    link.Kind
	address string
	logger  *slog.Logger

	mu    sync.Mutex
	state State
}

// NewSession creates an idle session.
func NewSession(kind link.Kind, address string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		kind:    kind,
		address: address,
		logger:  logger.With("kind", string(kind), "address", address),
	}
}

// State returns the current lifecycle position.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) transition(next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, allowed := range transitions[s.state] {
		if allowed == next {
			s.logger.Debug("session transition", "from", s.state.String(), "to", next.String())
			s.state = next
			return nil
		}
	}
	return fmt.Errorf("session %s: invalid transition %s -> %s", s.kind, s.state, next)
}

// Connect runs dial. A dial error is returned as a *ConnectError and
// leaves the session closed, since there is nothing to tear down.
func (s *Session) Connect(dial func() error) error {
	if err := s.transition(Connecting); err != nil {
		return err
	}
	if err := dial(); err != nil {
		s.transition(Errored)
		s.transition(Closing)
		s.transition(Closed)
		return &ConnectError{Kind: s.kind, Addr: s.address, Err: err}
	}
	return s.transition(Ready)
}

// Do runs one operation stage. An error moves the session to the error
// state and is returned as an *OperationError, unless operation already
// returned one.
func (s *Session) Do(stage Stage, path string, operation func() error) error {
	if err := s.transition(Operating); err != nil {
		return err
	}
	if err := operation(); err != nil {
		s.transition(Errored)
		var operationError *OperationError
		if errors.As(err, &operationError) {
			return err
		}
		return &OperationError{Kind: s.kind, Stage: stage, Path: path, Err: err}
	}
	return s.transition(Ready)
}

// Close runs teardown from either the ready or the error state. A
// teardown error is returned as a close-stage *OperationError.
func (s *Session) Close(teardown func() error) error {
	if err := s.transition(Closing); err != nil {
		return err
	}
	err := teardown()
	s.transition(Closed)
	if err != nil {
		return &OperationError{Kind: s.kind, Stage: StageClose, Err: err}
	}
	return nil
}

// Finish closes the session and, when *result is nil, stores the close
// error in it. It is meant to be deferred with a named error result.
// A session that never connected has nothing to tear down.
func (s *Session) Finish(result *error, teardown func() error) {
	if state := s.State(); state != Ready && state != Errored {
		return
	}
	if err := s.Close(teardown); err != nil && *result == nil {
		*result = err
	}
}
