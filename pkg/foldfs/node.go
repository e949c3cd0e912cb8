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
	"syscall"

	"github.com/cespare/xxhash/v2"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"
)

// CaseNode is a file or directory of the case-insensitive tree. Its backing
// path is derived on every request from the names in the inode tree, folded
// by the session's folder.
type CaseNode struct {
	fs.Inode
	sess *Session
}

var _ = (fs.NodeLookuper)((*CaseNode)(nil))
var _ = (fs.NodeGetattrer)((*CaseNode)(nil))
var _ = (fs.NodeSetattrer)((*CaseNode)(nil))
var _ = (fs.NodeStatxer)((*CaseNode)(nil))
var _ = (fs.NodeReadlinker)((*CaseNode)(nil))
var _ = (fs.NodeMknoder)((*CaseNode)(nil))
var _ = (fs.NodeMkdirer)((*CaseNode)(nil))
var _ = (fs.NodeSymlinker)((*CaseNode)(nil))
var _ = (fs.NodeUnlinker)((*CaseNode)(nil))
var _ = (fs.NodeRmdirer)((*CaseNode)(nil))
var _ = (fs.NodeRenamer)((*CaseNode)(nil))
var _ = (fs.NodeLinker)((*CaseNode)(nil))
var _ = (fs.NodeCreater)((*CaseNode)(nil))
var _ = (fs.NodeOpener)((*CaseNode)(nil))
var _ = (fs.NodeOpendirHandler)((*CaseNode)(nil))
var _ = (fs.NodeStatfser)((*CaseNode)(nil))
var _ = (fs.NodeAccesser)((*CaseNode)(nil))
var _ = (fs.NodeGetxattrer)((*CaseNode)(nil))
var _ = (fs.NodeSetxattrer)((*CaseNode)(nil))
var _ = (fs.NodeListxattrer)((*CaseNode)(nil))
var _ = (fs.NodeRemovexattrer)((*CaseNode)(nil))

// NewRoot returns the root node of the session's tree.
func (s *Session) NewRoot() *CaseNode {
	return &CaseNode{sess: s}
}

// idFromStat computes stable attributes from stat. Each spelling of a path
// gets its own inode so that the kernel never aliases directories and a
// rename that only changes capitalization reaches the filesystem.
func idFromStat(rootDev uint64, st *syscall.Stat_t, virtual string) fs.StableAttr {
	swapped := (uint64(st.Dev) << 32) | (uint64(st.Dev) >> 32)
	swappedRootDev := (rootDev << 32) | (rootDev >> 32)
	return fs.StableAttr{
		Mode: uint32(st.Mode),
		Gen:  1,
		Ino:  (swapped ^ swappedRootDev) ^ st.Ino ^ xxhash.Sum64String(virtual),
	}
}

func (n *CaseNode) virtualPath() string {
	return "/" + n.Path(n.Root())
}

func (n *CaseNode) path() (string, syscall.Errno) {
	return n.sess.physical(n.virtualPath())
}

// child returns the virtual and backing paths of name inside n.
func (n *CaseNode) child(name string) (string, string, syscall.Errno) {
	virtual := n.Path(n.Root())
	if virtual == "" {
		virtual = "/" + name
	} else {
		virtual = "/" + virtual + "/" + name
	}
	p, errno := n.sess.physical(virtual)
	return virtual, p, errno
}

func (n *CaseNode) newChild(ctx context.Context, st *syscall.Stat_t, virtual string) *fs.Inode {
	node := &CaseNode{sess: n.sess}
	return n.NewInode(ctx, node, idFromStat(n.sess.dev, st, virtual))
}

// entry looks up a freshly created backing path.
func (n *CaseNode) entry(ctx context.Context, p, virtual string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	st := syscall.Stat_t{}
	if err := syscall.Lstat(p, &st); err != nil {
		return nil, fs.ToErrno(err)
	}
	out.Attr.FromStat(&st)
	return n.newChild(ctx, &st, virtual), 0
}

// asCaller runs fn with the effective credentials of the requesting user.
func (n *CaseNode) asCaller(ctx context.Context, fn func() error) syscall.Errno {
	restore, errno := n.sess.switcher.Effective(ctx)
	if errno != 0 {
		return errno
	}
	err := fn()
	restore()
	return fs.ToErrno(err)
}

func (n *CaseNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	v, p, errno := n.child(name)
	if errno != 0 {
		return nil, errno
	}
	st := syscall.Stat_t{}
	if errno := n.asCaller(ctx, func() error { return syscall.Lstat(p, &st) }); errno != 0 {
		return nil, errno
	}
	out.Attr.FromStat(&st)
	return n.newChild(ctx, &st, v), 0
}

func (n *CaseNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	if fga, ok := f.(fs.FileGetattrer); ok {
		return fga.Getattr(ctx, out)
	}
	p, errno := n.path()
	if errno != 0 {
		return errno
	}
	st := syscall.Stat_t{}
	errno = n.asCaller(ctx, func() error {
		if n.IsRoot() {
			return syscall.Stat(p, &st)
		}
		return syscall.Lstat(p, &st)
	})
	if errno != 0 {
		return errno
	}
	out.FromStat(&st)
	return 0
}

func (n *CaseNode) Statx(ctx context.Context, f fs.FileHandle, flags uint32, mask uint32, out *fuse.StatxOut) syscall.Errno {
	if fsx, ok := f.(fs.FileStatxer); ok {
		return fsx.Statx(ctx, flags, mask, out)
	}
	p, errno := n.path()
	if errno != 0 {
		return errno
	}
	if !n.IsRoot() {
		flags |= unix.AT_SYMLINK_NOFOLLOW
	}
	st := unix.Statx_t{}
	errno = n.asCaller(ctx, func() error {
		return unix.Statx(unix.AT_FDCWD, p, int(flags), int(mask), &st)
	})
	if errno != 0 {
		return errno
	}
	out.FromStatx(&st)
	return 0
}

func (n *CaseNode) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if fsa, ok := f.(fs.FileSetattrer); ok {
		return fsa.Setattr(ctx, in, out)
	}
	p, errno := n.path()
	if errno != 0 {
		return errno
	}
	st := syscall.Stat_t{}
	errno = n.asCaller(ctx, func() error {
		if err := setattrPath(p, in); err != nil {
			return err
		}
		return syscall.Lstat(p, &st)
	})
	if errno != 0 {
		return errno
	}
	out.FromStat(&st)
	return 0
}

// setattrPath applies chmod, lchown, utimens and truncate in that order.
func setattrPath(p string, in *fuse.SetAttrIn) error {
	if m, ok := in.GetMode(); ok {
		if err := syscall.Chmod(p, m); err != nil {
			return err
		}
	}

	uid, uok := in.GetUID()
	gid, gok := in.GetGID()
	if uok || gok {
		suid := -1
		sgid := -1
		if uok {
			suid = int(uid)
		}
		if gok {
			sgid = int(gid)
		}
		if err := syscall.Lchown(p, suid, sgid); err != nil {
			return err
		}
	}

	mtime, mok := in.GetMTime()
	atime, aok := in.GetATime()
	if mok || aok {
		ta := unix.Timespec{Nsec: unix.UTIME_OMIT}
		tm := unix.Timespec{Nsec: unix.UTIME_OMIT}
		var err error
		if aok {
			if ta, err = unix.TimeToTimespec(atime); err != nil {
				return err
			}
		}
		if mok {
			if tm, err = unix.TimeToTimespec(mtime); err != nil {
				return err
			}
		}
		ts := []unix.Timespec{ta, tm}
		if err := unix.UtimesNanoAt(unix.AT_FDCWD, p, ts, unix.AT_SYMLINK_NOFOLLOW); err != nil {
			return err
		}
	}

	if sz, ok := in.GetSize(); ok {
		if err := syscall.Truncate(p, int64(sz)); err != nil {
			return err
		}
	}
	return nil
}

func (n *CaseNode) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	p, errno := n.path()
	if errno != 0 {
		return nil, errno
	}
	var target []byte
	errno = n.asCaller(ctx, func() error {
		for l := 256; ; l *= 2 {
			buf := make([]byte, l)
			sz, err := syscall.Readlink(p, buf)
			if err != nil {
				return err
			}
			if sz < len(buf) {
				target = buf[:sz]
				return nil
			}
		}
	})
	if errno != 0 {
		return nil, errno
	}
	return target, 0
}

// Mknod creates regular files through open so the original name can be
// recorded on the new descriptor.
func (n *CaseNode) Mknod(ctx context.Context, name string, mode, rdev uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	v, p, errno := n.child(name)
	if errno != 0 {
		return nil, errno
	}
	fd := -1
	errno = n.asCaller(ctx, func() error {
		switch mode & syscall.S_IFMT {
		case syscall.S_IFREG:
			var err error
			fd, err = syscall.Open(p, syscall.O_CREAT|syscall.O_EXCL|syscall.O_WRONLY|syscall.O_CLOEXEC, mode&07777)
			return err
		case syscall.S_IFIFO:
			return unix.Mkfifo(p, mode&07777)
		default:
			return syscall.Mknod(p, mode, int(rdev))
		}
	})
	if errno != 0 {
		return nil, errno
	}
	if fd >= 0 {
		n.sess.store.rememberFd(fd, p, v)
		syscall.Close(fd)
	} else {
		n.sess.store.remember(p, v)
	}
	return n.entry(ctx, p, v, out)
}

func (n *CaseNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	v, p, errno := n.child(name)
	if errno != 0 {
		return nil, errno
	}
	if errno := n.asCaller(ctx, func() error { return syscall.Mkdir(p, mode) }); errno != 0 {
		return nil, errno
	}
	n.sess.store.remember(p, v)
	return n.entry(ctx, p, v, out)
}

// Symlink stores target verbatim. Targets are resolved by the kernel
// through the mount, so they stay case-insensitive.
func (n *CaseNode) Symlink(ctx context.Context, target, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	v, p, errno := n.child(name)
	if errno != 0 {
		return nil, errno
	}
	if errno := n.asCaller(ctx, func() error { return syscall.Symlink(target, p) }); errno != 0 {
		return nil, errno
	}
	n.sess.store.remember(p, v)
	return n.entry(ctx, p, v, out)
}

func (n *CaseNode) Unlink(ctx context.Context, name string) syscall.Errno {
	_, p, errno := n.child(name)
	if errno != 0 {
		return errno
	}
	return n.asCaller(ctx, func() error { return syscall.Unlink(p) })
}

func (n *CaseNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	_, p, errno := n.child(name)
	if errno != 0 {
		return errno
	}
	return n.asCaller(ctx, func() error { return syscall.Rmdir(p) })
}

// Rename supports RENAME_NOREPLACE and RENAME_EXCHANGE through renameat2.
// Renaming to a different capitalization of the same name only updates the
// stored original name.
func (n *CaseNode) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	np, ok := newParent.(*CaseNode)
	if !ok || np.sess != n.sess {
		return syscall.EXDEV
	}
	fromV, from, errno := n.child(name)
	if errno != 0 {
		return errno
	}
	toV, to, errno := np.child(newName)
	if errno != 0 {
		return errno
	}
	errno = n.asCaller(ctx, func() error {
		if flags != 0 {
			return unix.Renameat2(unix.AT_FDCWD, from, unix.AT_FDCWD, to, uint(flags))
		}
		return syscall.Rename(from, to)
	})
	if errno != 0 {
		return errno
	}
	n.sess.store.remember(to, toV)
	if flags&unix.RENAME_EXCHANGE != 0 {
		n.sess.store.remember(from, fromV)
	}
	return 0
}

func (n *CaseNode) Link(ctx context.Context, target fs.InodeEmbedder, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	tn, ok := target.(*CaseNode)
	if !ok || tn.sess != n.sess {
		return nil, syscall.EXDEV
	}
	tp, errno := tn.path()
	if errno != 0 {
		return nil, errno
	}
	v, p, errno := n.child(name)
	if errno != 0 {
		return nil, errno
	}
	if errno := n.asCaller(ctx, func() error { return syscall.Link(tp, p) }); errno != 0 {
		return nil, errno
	}
	n.sess.store.remember(p, v)
	return n.entry(ctx, p, v, out)
}

func (n *CaseNode) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	v, p, errno := n.child(name)
	if errno != 0 {
		return nil, nil, 0, errno
	}

	// Writes carry explicit offsets.
	flags = flags &^ syscall.O_APPEND

	fd := -1
	errno = n.asCaller(ctx, func() error {
		var err error
		fd, err = syscall.Open(p, int(flags)|syscall.O_CREAT|syscall.O_CLOEXEC, mode)
		return err
	})
	if errno != 0 {
		return nil, nil, 0, errno
	}
	n.sess.store.rememberFd(fd, p, v)

	st := syscall.Stat_t{}
	if err := syscall.Fstat(fd, &st); err != nil {
		syscall.Close(fd)
		return nil, nil, 0, fs.ToErrno(err)
	}
	ch := n.newChild(ctx, &st, v)
	out.FromStat(&st)
	return ch, n.sess.newFile(fd, p), 0, 0
}

// Open records the original name when the flags still carry O_CREAT.
func (n *CaseNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	flags &^= syscall.O_APPEND | fuse.FMODE_EXEC
	v := n.virtualPath()
	p, errno := n.sess.physical(v)
	if errno != 0 {
		return nil, 0, errno
	}
	fd := -1
	errno = n.asCaller(ctx, func() error {
		var err error
		fd, err = syscall.Open(p, int(flags)|syscall.O_CLOEXEC, 0)
		return err
	})
	if errno != 0 {
		return nil, 0, errno
	}
	if flags&syscall.O_CREAT != 0 {
		n.sess.store.rememberFd(fd, p, v)
	}
	return n.sess.newFile(fd, p), 0, 0
}

func (n *CaseNode) OpendirHandle(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	p, errno := n.path()
	if errno != 0 {
		return nil, 0, errno
	}
	var ds *caseDirStream
	errno = n.asCaller(ctx, func() error {
		var openErrno syscall.Errno
		ds, openErrno = n.sess.openDirStream(p)
		if openErrno != 0 {
			return openErrno
		}
		return nil
	})
	if errno != 0 {
		return nil, 0, errno
	}
	return ds, 0, 0
}

func (n *CaseNode) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	p, errno := n.path()
	if errno != 0 {
		return errno
	}
	s := syscall.Statfs_t{}
	if errno := n.asCaller(ctx, func() error { return syscall.Statfs(p, &s) }); errno != 0 {
		return errno
	}
	out.FromStatfsT(&s)
	return 0
}

// Access checks permissions against the caller's real ids.
func (n *CaseNode) Access(ctx context.Context, mask uint32) syscall.Errno {
	p, errno := n.path()
	if errno != 0 {
		return errno
	}
	restore, errno := n.sess.switcher.Real(ctx)
	if errno != 0 {
		return errno
	}
	err := unix.Access(p, mask)
	restore()
	return fs.ToErrno(err)
}

// Getxattr passes every name through, including the reserved one, which
// clients may read.
func (n *CaseNode) Getxattr(ctx context.Context, attr string, dest []byte) (uint32, syscall.Errno) {
	p, errno := n.path()
	if errno != 0 {
		return 0, errno
	}
	var sz int
	errno = n.asCaller(ctx, func() error {
		var err error
		sz, err = unix.Lgetxattr(p, attr, dest)
		return err
	})
	if errno != 0 {
		return 0, errno
	}
	return uint32(sz), 0
}

func (n *CaseNode) Setxattr(ctx context.Context, attr string, data []byte, flags uint32) syscall.Errno {
	if IsReserved(attr) {
		n.sess.log.Debugf("denying setting value of extended attribute '%s'", attr)
		return syscall.EPERM
	}
	p, errno := n.path()
	if errno != 0 {
		return errno
	}
	return n.asCaller(ctx, func() error { return unix.Lsetxattr(p, attr, data, int(flags)) })
}

func (n *CaseNode) Listxattr(ctx context.Context, dest []byte) (uint32, syscall.Errno) {
	p, errno := n.path()
	if errno != 0 {
		return 0, errno
	}
	var sz int
	errno = n.asCaller(ctx, func() error {
		var err error
		sz, err = unix.Llistxattr(p, dest)
		return err
	})
	if errno != 0 {
		return 0, errno
	}
	return uint32(sz), 0
}

func (n *CaseNode) Removexattr(ctx context.Context, attr string) syscall.Errno {
	if IsReserved(attr) {
		n.sess.log.Debugf("denying removal of extended attribute '%s'", attr)
		return syscall.EPERM
	}
	p, errno := n.path()
	if errno != 0 {
		return errno
	}
	return n.asCaller(ctx, func() error { return unix.Lremovexattr(p, attr) })
}
