// Copyright 2025 Velda Inc
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package foldfs

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
)

// ErrUnknownHandle is returned when releasing a handle that was never
// registered or has already been released.
var ErrUnknownHandle = errors.New("foldfs: unknown or released handle")

type handleKind string

const (
	fileHandle handleKind = "file"
	dirHandle  handleKind = "dir"
)

type handleID uint64

type openHandle struct {
	kind    handleKind
	release func() syscall.Errno
}

// handleRegistry tracks every open file and directory handle of a session so
// that each backing descriptor is closed exactly once, either by the kernel's
// release request or when the session shuts down.
type handleRegistry struct {
	mu      sync.Mutex
	next    handleID
	open    map[handleID]openHandle
	metrics *Metrics
}

func newHandleRegistry(metrics *Metrics) *handleRegistry {
	return &handleRegistry{
		open:    make(map[handleID]openHandle),
		metrics: metrics,
	}
}

func (r *handleRegistry) register(kind handleKind, release func() syscall.Errno) handleID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.open[r.next] = openHandle{kind: kind, release: release}
	r.metrics.OpenHandles.WithLabelValues(string(kind)).Inc()
	return r.next
}

// release runs the release function of id. The entry is dropped before the
// function runs, so concurrent callers never release the same descriptor twice.
func (r *handleRegistry) release(id handleID) error {
	r.mu.Lock()
	h, ok := r.open[id]
	if ok {
		delete(r.open, id)
		r.metrics.OpenHandles.WithLabelValues(string(h.kind)).Dec()
	}
	r.mu.Unlock()
	if !ok {
		return ErrUnknownHandle
	}
	if errno := h.release(); errno != 0 {
		return errno
	}
	return nil
}

func (r *handleRegistry) count(kind handleKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, h := range r.open {
		if h.kind == kind {
			n++
		}
	}
	return n
}

// closeAll releases every handle still open.
func (r *handleRegistry) closeAll() error {
	r.mu.Lock()
	ids := make([]handleID, 0, len(r.open))
	for id := range r.open {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	var errs []error
	for _, id := range ids {
		err := r.release(id)
		if err != nil && !errors.Is(err, ErrUnknownHandle) {
			errs = append(errs, fmt.Errorf("release handle %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
