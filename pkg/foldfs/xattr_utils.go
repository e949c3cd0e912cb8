// Copyright 2025 Velda Inc
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//  http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package foldfs

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
	"velda.io/foldfs/pkg/casefold"
)

const (
	// OriginalNameXattr is the extended attribute holding the name a file
	// was created with. Clients may read it but never change it.
	OriginalNameXattr = "user.filename"

	// Longest value read back from the attribute. A stored spelling may be
	// longer than its folded physical name, so this is sized like a path
	// rather than a component. Longer values are treated as corrupt.
	maxStoredNameLen = 4096
)

// IsReserved reports whether clients are denied writes to attr.
func IsReserved(attr string) bool {
	return attr == OriginalNameXattr
}

// finalComponent returns the part of a virtual path after the last slash.
func finalComponent(virtual string) string {
	if i := strings.LastIndexByte(virtual, '/'); i >= 0 {
		return virtual[i+1:]
	}
	return virtual
}

// caseStore keeps the original spelling of names in the backing store.
type caseStore struct {
	folder  casefold.Folder
	log     logrus.FieldLogger
	metrics *Metrics
}

func newCaseStore(folder casefold.Folder, log logrus.FieldLogger, metrics *Metrics) *caseStore {
	return &caseStore{folder: folder, log: log, metrics: metrics}
}

// Original returns the stored name of path, if any.
func (c *caseStore) Original(path string) (string, bool) {
	orig, err := c.readOriginal(path)
	if err != nil || orig == "" {
		return "", false
	}
	return orig, true
}

// readOriginal fails with ERANGE when the stored value is longer than
// maxStoredNameLen.
func (c *caseStore) readOriginal(path string) (string, error) {
	buf := make([]byte, maxStoredNameLen)
	sz, err := unix.Lgetxattr(path, OriginalNameXattr, buf)
	if err != nil {
		return "", err
	}
	return string(buf[:sz]), nil
}

// SetOriginal records the final component of virtual on path.
func (c *caseStore) SetOriginal(path, virtual string) error {
	name := finalComponent(virtual)
	c.log.Debugf("storing original name '%s' in '%s'", name, path)
	return unix.Lsetxattr(path, OriginalNameXattr, []byte(name), 0)
}

// SetOriginalFd records the final component of virtual on an open descriptor.
func (c *caseStore) SetOriginalFd(fd int, virtual string) error {
	name := finalComponent(virtual)
	c.log.Debugf("storing original name '%s' in fd %d", name, fd)
	return unix.Fsetxattr(fd, OriginalNameXattr, []byte(name), 0)
}

// RemoveOriginal drops the stored name of path. A missing attribute is not
// an error.
func (c *caseStore) RemoveOriginal(path string) error {
	c.log.Debugf("removing original name of %s", path)
	err := unix.Lremovexattr(path, OriginalNameXattr)
	if errors.Is(err, unix.ENODATA) {
		return nil
	}
	return err
}

// recordResult accounts for the outcome of SetOriginal or SetOriginalFd.
// Failing to store a name never fails the operation that triggered it.
func (c *caseStore) recordResult(path, virtual string, err error) {
	if err != nil {
		c.metrics.NameStoreFailures.Inc()
		c.log.WithError(err).WithFields(logrus.Fields{
			"path": path,
			"name": finalComponent(virtual),
		}).Warn("Failed to store original name")
		return
	}
	c.metrics.NamesStored.Inc()
}

func (c *caseStore) remember(path, virtual string) {
	c.recordResult(path, virtual, c.SetOriginal(path, virtual))
}

func (c *caseStore) rememberFd(fd int, path, virtual string) {
	c.recordResult(path, virtual, c.SetOriginalFd(fd, virtual))
}

// DisplayName returns the name to list for the physical entry name in dir.
// A stored name that no longer folds to the physical name is stale, as is
// one too long to read: it is removed and the physical name is shown.
func (c *caseStore) DisplayName(dir, name string) string {
	p := filepath.Join(dir, name)
	orig, err := c.readOriginal(p)
	switch {
	case errors.Is(err, unix.ERANGE):
		c.log.WithField("path", p).Debug("Removing oversized original name")
	case err != nil || orig == "":
		return name
	default:
		if folded, err := c.folder.Fold(orig); err == nil && folded == name {
			return orig
		}
		c.log.WithFields(logrus.Fields{"path": p, "stored": orig}).Debug("Removing stale original name")
	}
	if err := c.RemoveOriginal(p); err != nil {
		c.log.WithError(err).WithField("path", p).Warn("Failed to remove stale original name")
	} else {
		c.metrics.StaleNamesHealed.Inc()
	}
	return name
}
