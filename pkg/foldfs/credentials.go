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
	"context"
	"fmt"
	"sync"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
)

// credentialSetter changes the credentials of the daemon process.
type credentialSetter interface {
	Setgroups(gids []int) error
	Setegid(egid int) error
	Seteuid(euid int) error
	Setregid(rgid, egid int) error
	Setreuid(ruid, euid int) error
}

// syscallCredentials uses the syscall package, whose credential calls apply
// to every thread of the process.
type syscallCredentials struct{}

func (syscallCredentials) Setgroups(gids []int) error { return syscall.Setgroups(gids) }
func (syscallCredentials) Setegid(egid int) error { return syscall.Setegid(egid) }
func (syscallCredentials) Seteuid(euid int) error { return syscall.Seteuid(euid) }
func (syscallCredentials) Setregid(rgid, egid int) error { return syscall.Setregid(rgid, egid) }
func (syscallCredentials) Setreuid(ruid, euid int) error { return syscall.Setreuid(ruid, euid) }

type daemonIdentity struct {
	uid    int
	gid    int
	groups []int
}

// Switcher runs backing store operations under the credentials of the
// calling user. Credentials are process wide, so an active switcher admits
// one bracket at a time and the mount must dispatch requests serially.
// An inactive switcher does nothing and operations run as the daemon. An
// active switcher refuses requests whose caller cannot be identified.
type Switcher struct {
	active  bool
	creds   credentialSetter
	ids     IdentityLookup
	daemon  daemonIdentity
	metrics *Metrics

	mu sync.Mutex
}

func newSwitcher(active bool, creds credentialSetter, ids IdentityLookup, metrics *Metrics) (*Switcher, error) {
	s := &Switcher{
		active:  active,
		creds:   creds,
		ids:     ids,
		metrics: metrics,
		daemon: daemonIdentity{
			uid: syscall.Getuid(),
			gid: syscall.Getgid(),
		},
	}
	if active {
		groups, err := syscall.Getgroups()
		if err != nil {
			return nil, fmt.Errorf("read daemon groups: %w", err)
		}
		s.daemon.groups = groups
	}
	return s, nil
}

// Active reports whether operations run under the caller's credentials.
func (s *Switcher) Active() bool { return s.active }

func noRestore() {}

// Effective switches the supplementary groups, effective gid and effective
// uid to the caller's. The returned function switches back and must be
// called exactly once.
func (s *Switcher) Effective(ctx context.Context) (func(), syscall.Errno) {
	return s.enter(ctx, func(id CallerIdentity) []step {
		return []step{
			{
				do:   func() error { return s.creds.Setegid(int(id.Gid)) },
				undo: func() error { return s.creds.Setegid(s.daemon.gid) },
			},
			{
				do:   func() error { return s.creds.Seteuid(int(id.Uid)) },
				undo: func() error { return s.creds.Seteuid(s.daemon.uid) },
			},
		}
	})
}

// Real switches the real ids instead of the effective ones, for the
// permission checks done by access(2).
func (s *Switcher) Real(ctx context.Context) (func(), syscall.Errno) {
	return s.enter(ctx, func(id CallerIdentity) []step {
		return []step{
			{
				do:   func() error { return s.creds.Setregid(int(id.Gid), -1) },
				undo: func() error { return s.creds.Setregid(s.daemon.gid, -1) },
			},
			{
				do:   func() error { return s.creds.Setreuid(int(id.Uid), -1) },
				undo: func() error { return s.creds.Setreuid(s.daemon.uid, -1) },
			},
		}
	})
}

type step struct {
	do   func() error
	undo func() error
}

func (s *Switcher) enter(ctx context.Context, idSteps func(CallerIdentity) []step) (func(), syscall.Errno) {
	if !s.active {
		return noRestore, 0
	}
	id, ok := s.ids.Identity(ctx)
	if !ok {
		return noRestore, syscall.EACCES
	}

	// The group list is always replaced, an empty one included, so the
	// caller never runs with the daemon's groups.
	gids := make([]int, len(id.Groups))
	for i, g := range id.Groups {
		gids[i] = int(g)
	}
	steps := []step{{
		do:   func() error { return s.creds.Setgroups(gids) },
		undo: func() error { return s.creds.Setgroups(s.daemon.groups) },
	}}
	steps = append(steps, idSteps(id)...)

	s.mu.Lock()
	done := 0
	var once sync.Once
	restore := func() {
		once.Do(func() {
			// Undo in reverse so the daemon regains its uid before
			// anything that needs privilege.
			for i := done - 1; i >= 0; i-- {
				steps[i].undo()
			}
			s.mu.Unlock()
		})
	}
	for _, st := range steps {
		if err := st.do(); err != nil {
			restore()
			return noRestore, fs.ToErrno(err)
		}
		done++
	}
	s.metrics.CredentialSwitches.Inc()
	return restore, 0
}
