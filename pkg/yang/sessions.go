// Copyright 2023 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package yang

// This file implements the session registry.  The transport layer is an
// external collaborator; the registry only provides the fd-keyed lookup
// structure it shares with the schema tables.

import (
	"fmt"
	"sync"
)

// A Session is the control block registered for one transport session.
// The registry does not interpret the payload.
type Session struct {
	FD      int    // file descriptor identifying the transport
	Name    string // caller-assigned label
	Payload interface{}
}

// A SessionRegistry maps file-descriptor identifiers to session control
// blocks.  Lookups are key-unique: registering a duplicate fd is an error.
type SessionRegistry struct {
	mu   sync.Mutex
	byFD map[int]*Session
}

// NewSessionRegistry returns an empty SessionRegistry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{byFD: map[int]*Session{}}
}

// Register adds s to the registry.  It is an error if a session with the
// same fd is already registered.
func (r *SessionRegistry) Register(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byFD[s.FD]; ok {
		return fmt.Errorf("session already registered for fd %d", s.FD)
	}
	r.byFD[s.FD] = s
	return nil
}

// Lookup returns the session registered for fd, or nil.
func (r *SessionRegistry) Lookup(fd int) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byFD[fd]
}

// Remove removes the session registered for fd.  Removing an unknown fd
// is an error.
func (r *SessionRegistry) Remove(fd int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byFD[fd]; !ok {
		return fmt.Errorf("no session registered for fd %d", fd)
	}
	delete(r.byFD, fd)
	return nil
}

// Sessions returns the registered sessions in fd order.
func (r *SessionRegistry) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.byFD))
	for _, s := range r.byFD {
		out = append(out, s)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].FD > out[j].FD; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
