package fs

import (
	iofs "io/fs"
	"sync"
)

// session connects a networked client on first use and keeps it until closed.
// Once closed it refuses to reconnect.
type session[C any] struct {
	mx         sync.Mutex
	connect    func() (C, error)
	disconnect func(C) error
	client     C
	connected  bool
	closed     bool
}

func newSession[C any](connect func() (C, error), disconnect func(C) error) *session[C] {
	return &session[C]{connect: connect, disconnect: disconnect}
}

// get returns the connected client, connecting if this is the first use
func (s *session[C]) get() (C, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.closed {
		var zero C
		return zero, iofs.ErrClosed
	}
	if !s.connected {
		client, err := s.connect()
		if err != nil {
			var zero C
			return zero, err
		}
		s.client = client
		s.connected = true
	}
	return s.client, nil
}

func (s *session[C]) isConnected() bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.connected
}

// close disconnects exactly once. Closing a session that never connected is a no-op.
func (s *session[C]) close() error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.connected {
		return nil
	}
	s.connected = false
	client := s.client
	var zero C
	s.client = zero
	if s.disconnect == nil {
		return nil
	}
	return s.disconnect(client)
}
