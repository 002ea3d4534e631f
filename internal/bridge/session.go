// SPDX-License-Identifier: GPL-3.0-only

package bridge

import (
	"sync"

	"github.com/hwbridge/gamepad-bridge/internal/hid"
	"github.com/hwbridge/gamepad-bridge/internal/report"
)

// session owns the reader goroutine for one device handle. Raw reports are
// delivered on the reports channel; the channel is closed when a read
// fails, with the cause available via err. Closing the device unblocks a
// pending read and ends the session.
type session struct {
	reports chan []byte
	done    chan struct{}
	once    sync.Once

	mu      sync.Mutex
	readErr error
}

func startSession(pad *hid.Gamepad) *session {
	s := &session{
		reports: make(chan []byte, 4),
		done:    make(chan struct{}),
	}

	go func() {
		defer close(s.reports)
		for {
			buf := make([]byte, report.Length)
			n, err := pad.ReadReport(buf)
			if err != nil {
				s.setErr(err)
				return
			}

			select {
			case s.reports <- buf[:n]:
			case <-s.done:
				return
			}
		}
	}()

	return s
}

// stop releases the reader goroutine. The caller still has to close the
// device to unblock a read in flight.
func (s *session) stop() {
	s.once.Do(func() {
		close(s.done)
	})
}

func (s *session) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

func (s *session) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readErr
}
