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

// Package foldfs implements a case-insensitive passthrough filesystem on
// top of a case-sensitive backing directory.
//
// Every name is stored in the backing tree in folded form. The name the
// client originally used is kept in the user.filename extended attribute
// and shown again when the directory is listed.
package foldfs

import (
	"fmt"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"velda.io/foldfs/pkg/casefold"
)

// SessionOptions configures a Session.
type SessionOptions struct {
	// Root is the backing directory. Relative paths are resolved against
	// the working directory once, when the session is created.
	Root string

	// Folder defaults to casefold.Default.
	Folder casefold.Folder

	// Shared is set when the mount is visible to other users (allow_other).
	// Combined with a root daemon it enables privilege switching.
	Shared bool

	Logger  logrus.FieldLogger
	Metrics *Metrics

	// Identities resolves the caller of a request. Defaults to
	// ProcIdentityLookup.
	Identities IdentityLookup

	// credentials overrides the credential syscalls in tests.
	credentials credentialSetter
}

// Session is the state shared by all nodes of one mount. It is not modified
// after NewSession returns.
type Session struct {
	root     string
	dev      uint64
	folder   casefold.Folder
	switcher *Switcher
	log      logrus.FieldLogger
	metrics  *Metrics
	store    *caseStore
	handles  *handleRegistry
}

func NewSession(opts SessionOptions) (*Session, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve backing directory %q: %w", opts.Root, err)
	}
	var st syscall.Stat_t
	if err := syscall.Stat(root, &st); err != nil {
		return nil, fmt.Errorf("stat backing directory %q: %w", root, err)
	}
	if st.Mode&syscall.S_IFMT != syscall.S_IFDIR {
		return nil, fmt.Errorf("backing directory %q: %w", root, syscall.ENOTDIR)
	}

	folder := opts.Folder
	if folder == nil {
		folder, err = casefold.Lookup(casefold.Default)
		if err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	identities := opts.Identities
	if identities == nil {
		identities = ProcIdentityLookup{}
	}
	creds := opts.credentials
	if creds == nil {
		creds = syscallCredentials{}
	}

	switcher, err := newSwitcher(opts.Shared && syscall.Getuid() == 0, creds, identities, metrics)
	if err != nil {
		return nil, err
	}

	logger = logger.WithField("root", root)
	return &Session{
		root:     root,
		dev:      uint64(st.Dev),
		folder:   folder,
		switcher: switcher,
		log:      logger,
		metrics:  metrics,
		store:    newCaseStore(folder, logger, metrics),
		handles:  newHandleRegistry(metrics),
	}, nil
}

// Root returns the absolute backing directory.
func (s *Session) Root() string { return s.root }

func (s *Session) Folder() casefold.Folder { return s.folder }

func (s *Session) Switcher() *Switcher { return s.switcher }

func (s *Session) Metrics() *Metrics { return s.metrics }

// MapPath translates a virtual path into the folded path relative to the
// backing root. The root itself maps to ".".
func (s *Session) MapPath(virtual string) (string, syscall.Errno) {
	rel := strings.TrimPrefix(virtual, "/")
	if rel == "" {
		return ".", 0
	}
	mapped, err := s.folder.Fold(rel)
	if err != nil {
		s.log.WithError(err).WithField("path", virtual).Debug("Cannot fold path")
		return "", syscall.ENOMEM
	}
	s.log.Debugf("%s => %s", virtual, mapped)
	return mapped, 0
}

// physical returns the absolute backing path of a virtual path.
func (s *Session) physical(virtual string) (string, syscall.Errno) {
	mapped, errno := s.MapPath(virtual)
	if errno != 0 {
		return "", errno
	}
	if mapped == "." {
		return s.root, 0
	}
	return filepath.Join(s.root, mapped), 0
}

// Close releases every handle that is still open. It is called once the
// mount is gone.
func (s *Session) Close() error {
	return s.handles.closeAll()
}
