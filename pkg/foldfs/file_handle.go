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
	"context"
	"errors"
	"sync"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"
)

// loopbackFile is the set of operations implemented by the file handle
// returned from fs.NewLoopbackFile.
type loopbackFile interface {
	fs.FileReleaser
	fs.FileGetattrer
	fs.FileReader
	fs.FileWriter
	fs.FileGetlker
	fs.FileSetlker
	fs.FileSetlkwer
	fs.FileLseeker
	fs.FileFlusher
	fs.FileFsyncer
	fs.FileSetattrer
	fs.FileAllocater
}

// CaseFile is an open backing file. Reads, writes, locks and attribute
// changes go straight to the descriptor; names are not involved once the
// file is open.
type CaseFile struct {
	loopbackFile

	sess *Session
	path string
	id   handleID

	// mu keeps fd open while it is in use. Releasing the handle sets fd
	// to -1 before the descriptor is closed.
	mu sync.RWMutex
	fd int
}

var _ = (fs.FileHandle)((*CaseFile)(nil))
var _ = (fs.FileReleaser)((*CaseFile)(nil))
var _ = (fs.FileReader)((*CaseFile)(nil))
var _ = (fs.FileWriter)((*CaseFile)(nil))
var _ = (fs.FileFlusher)((*CaseFile)(nil))
var _ = (fs.FileFsyncer)((*CaseFile)(nil))
var _ = (fs.FileSetattrer)((*CaseFile)(nil))
var _ = (fs.FileGetlker)((*CaseFile)(nil))
var _ = (fs.FileStatxer)((*CaseFile)(nil))

// newFile wraps fd, which the returned handle owns from now on.
func (s *Session) newFile(fd int, path string) *CaseFile {
	f := &CaseFile{
		loopbackFile: fs.NewLoopbackFile(fd).(loopbackFile),
		sess:         s,
		fd:           fd,
		path:         path,
	}
	f.id = s.handles.register(fileHandle, f.closeFd)
	return f
}

func (f *CaseFile) closeFd() syscall.Errno {
	f.mu.Lock()
	f.fd = -1
	f.mu.Unlock()
	return f.loopbackFile.Release(context.Background())
}

// withFd runs fn on the descriptor, or fails with EBADF once the handle
// has been released.
func (f *CaseFile) withFd(fn func(fd int) error) syscall.Errno {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.fd < 0 {
		return syscall.EBADF
	}
	return fs.ToErrno(fn(f.fd))
}

// Fsync implements FileFsyncer. Bit 0 of flags requests a data-only sync.
func (f *CaseFile) Fsync(ctx context.Context, flags uint32) syscall.Errno {
	return f.withFd(func(fd int) error {
		if flags&1 != 0 {
			return unix.Fdatasync(fd)
		}
		return syscall.Fsync(fd)
	})
}

// Release implements FileReleaser. The descriptor is closed at most once,
// even if the session already closed it during shutdown.
func (f *CaseFile) Release(ctx context.Context) syscall.Errno {
	err := f.sess.handles.release(f.id)
	if errors.Is(err, ErrUnknownHandle) {
		return syscall.EBADF
	}
	return fs.ToErrno(err)
}

// Statx implements FileStatxer.
func (f *CaseFile) Statx(ctx context.Context, flags uint32, mask uint32, out *fuse.StatxOut) syscall.Errno {
	var st unix.Statx_t
	errno := f.withFd(func(fd int) error {
		return unix.Statx(fd, "", int(flags)|unix.AT_EMPTY_PATH, int(mask), &st)
	})
	if errno != 0 {
		return errno
	}
	out.FromStatx(&st)
	return 0
}
