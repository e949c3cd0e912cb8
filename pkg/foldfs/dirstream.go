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
	"sync"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"
)

// backingDirStream is the set of operations provided by go-fuse's loopback
// directory stream.
type backingDirStream interface {
	fs.FileReaddirenter
	fs.FileSeekdirer
	fs.FileReleasedirer
	fs.FileFsyncdirer
}

// caseDirStream lists a backing directory the way clients should see it:
// entries that are not in folded form are hidden and the remaining entries
// are shown under their stored original name. Entry offsets are the backing
// stream's own cursors, so a listing can be resumed after the kernel's
// buffer fills up.
type caseDirStream struct {
	sess *Session
	dir  string
	id   handleID

	mu     sync.Mutex
	stream backingDirStream
}

var _ = (fs.FileReaddirenter)((*caseDirStream)(nil))
var _ = (fs.FileSeekdirer)((*caseDirStream)(nil))
var _ = (fs.FileReleasedirer)((*caseDirStream)(nil))
var _ = (fs.FileFsyncdirer)((*caseDirStream)(nil))

// openDirStream opens the backing directory dir for listing.
func (s *Session) openDirStream(dir string) (*caseDirStream, syscall.Errno) {
	if len(dir) >= unix.PathMax {
		return nil, syscall.ENAMETOOLONG
	}
	fd, err := syscall.Open(dir, syscall.O_DIRECTORY|syscall.O_RDONLY|syscall.O_CLOEXEC, 0)
	if err != nil {
		return nil, fs.ToErrno(err)
	}
	ds, errno := fs.NewLoopbackDirStreamFd(fd)
	if errno != 0 {
		syscall.Close(fd)
		return nil, errno
	}
	stream, ok := ds.(backingDirStream)
	if !ok {
		ds.Close()
		return nil, syscall.ENOTSUP
	}
	d := &caseDirStream{
		sess:   s,
		dir:    dir,
		stream: stream,
	}
	d.id = s.handles.register(dirHandle, d.close)
	return d, 0
}

func (d *caseDirStream) Readdirent(ctx context.Context) (*fuse.DirEntry, syscall.Errno) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stream == nil {
		return nil, syscall.EBADF
	}
	for {
		de, errno := d.stream.Readdirent(ctx)
		if errno != 0 || de == nil {
			return de, errno
		}
		if de.Name == "." || de.Name == ".." {
			return de, 0
		}
		if d.sess.folder.ContainsUpper(de.Name) {
			d.sess.metrics.HiddenEntries.Inc()
			d.sess.log.WithField("dir", d.dir).Debugf("hiding entry %q", de.Name)
			continue
		}
		de.Name = d.sess.store.DisplayName(d.dir, de.Name)
		return de, 0
	}
}

func (d *caseDirStream) Seekdir(ctx context.Context, off uint64) syscall.Errno {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stream == nil {
		return syscall.EBADF
	}
	return d.stream.Seekdir(ctx, off)
}

func (d *caseDirStream) Fsyncdir(ctx context.Context, flags uint32) syscall.Errno {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stream == nil {
		return syscall.EBADF
	}
	return d.stream.Fsyncdir(ctx, flags)
}

func (d *caseDirStream) Releasedir(ctx context.Context, releaseFlags uint32) {
	if err := d.sess.handles.release(d.id); err != nil {
		d.sess.log.WithError(err).WithField("dir", d.dir).Debug("Releasing directory handle")
	}
}

// close shuts the backing stream. It runs at most once, through the
// session's handle registry.
func (d *caseDirStream) close() syscall.Errno {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stream == nil {
		return syscall.EBADF
	}
	d.stream.Releasedir(context.Background(), 0)
	d.stream = nil
	return 0
}
