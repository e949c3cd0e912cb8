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
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"syscall"
	"testing"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func disallowOther(options *fs.Options) {
	options.MountOptions.AllowOther = false
	//options.Debug = true
}

type testMount struct {
	srcDir   string
	mountDir string
	server   *Server
}

// mountTest mounts a fresh backing directory. Tests are skipped where FUSE
// is not available.
func mountTest(t *testing.T, options ...MountOption) *testMount {
	t.Helper()
	if _, err := os.Stat("/dev/fuse"); err != nil {
		t.Skip("/dev/fuse not available")
	}
	m := &testMount{
		srcDir:   t.TempDir(),
		mountDir: t.TempDir(),
	}
	requireUserXattrs(t, m.srcDir)

	logger, _ := testLogger()
	options = append([]MountOption{WithLogger(logger), WithFuseOption(disallowOther)}, options...)
	server, err := Mount(m.srcDir, m.mountDir, options...)
	if err != nil {
		t.Skipf("cannot mount: %v", err)
	}
	m.server = server
	t.Cleanup(func() {
		if err := server.Unmount(); err != nil {
			t.Logf("unmount: %v", err)
		}
		server.Close()
	})
	return m
}

func (m *testMount) src(parts ...string) string {
	return filepath.Join(append([]string{m.srcDir}, parts...)...)
}

func (m *testMount) mnt(parts ...string) string {
	return filepath.Join(append([]string{m.mountDir}, parts...)...)
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestCaseInsensitiveTree(t *testing.T) {
	m := mountTest(t)

	require.NoError(t, os.Mkdir(m.mnt("DeMo"), 0755))
	require.NoError(t, os.Mkdir(m.mnt("DeMo", "SubFolder"), 0755))
	require.NoError(t, os.WriteFile(m.mnt("DeMo", "SubFolder", "MyFile"), []byte("content"), 0644))

	t.Run("backing store is folded", func(t *testing.T) {
		fi, err := os.Stat(m.src("demo", "subfolder", "myfile"))
		require.NoError(t, err)
		assert.Equal(t, int64(7), fi.Size())
		assert.Equal(t, []string{"demo"}, listNames(t, m.srcDir))

		assert.Equal(t, "DeMo", getOriginal(t, m.src("demo")))
		assert.Equal(t, "SubFolder", getOriginal(t, m.src("demo", "subfolder")))
		assert.Equal(t, "MyFile", getOriginal(t, m.src("demo", "subfolder", "myfile")))
		assert.Equal(t, 3.0, getCounterValue(m.server.Session.Metrics().NamesStored))
	})

	t.Run("any spelling resolves", func(t *testing.T) {
		for _, p := range []string{
			m.mnt("DeMo", "SubFolder", "MyFile"),
			m.mnt("demo", "subfolder", "myfile"),
			m.mnt("DEMO", "SUBFOLDER", "MYFILE"),
			m.mnt("dEmO", "sUbFoLdEr", "mYfIlE"),
		} {
			data, err := os.ReadFile(p)
			require.NoError(t, err, p)
			assert.Equal(t, "content", string(data), p)
		}
	})

	t.Run("listings show original names", func(t *testing.T) {
		assert.Equal(t, []string{"DeMo"}, listNames(t, m.mountDir))
		assert.Equal(t, []string{"SubFolder"}, listNames(t, m.mnt("demo")))
		assert.Equal(t, []string{"MyFile"}, listNames(t, m.mnt("DEMO", "subfolder")))
	})

	t.Run("creating a different spelling reuses the entry", func(t *testing.T) {
		err := os.Mkdir(m.mnt("DEMO"), 0755)
		assert.True(t, errors.Is(err, os.ErrExist), "got %v", err)

		f, err := os.OpenFile(m.mnt("demo", "subfolder", "MYFILE"), os.O_WRONLY|os.O_APPEND, 0)
		require.NoError(t, err)
		_, err = f.WriteString("+more")
		require.NoError(t, err)
		require.NoError(t, f.Close())

		data, err := os.ReadFile(m.src("demo", "subfolder", "myfile"))
		require.NoError(t, err)
		assert.Equal(t, "content+more", string(data))
	})
}

func TestRename(t *testing.T) {
	m := mountTest(t)
	require.NoError(t, os.Mkdir(m.mnt("Docs"), 0755))
	require.NoError(t, os.WriteFile(m.mnt("Docs", "Draft.txt"), []byte("v1"), 0644))

	t.Run("to a new name", func(t *testing.T) {
		require.NoError(t, os.Rename(m.mnt("docs", "draft.txt"), m.mnt("DOCS", "Final.TXT")))
		assert.Equal(t, []string{"Final.TXT"}, listNames(t, m.mnt("Docs")))
		assert.Equal(t, "Final.TXT", getOriginal(t, m.src("docs", "final.txt")))
		_, err := os.Stat(m.src("docs", "draft.txt"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("changing only the capitalization", func(t *testing.T) {
		require.NoError(t, os.Rename(m.mnt("Docs", "Final.TXT"), m.mnt("Docs", "final.txt")))
		assert.Equal(t, []string{"final.txt"}, listNames(t, m.mnt("Docs")))
		assert.Equal(t, "final.txt", getOriginal(t, m.src("docs", "final.txt")))

		data, err := os.ReadFile(m.mnt("DOCS", "FINAL.TXT"))
		require.NoError(t, err)
		assert.Equal(t, "v1", string(data))
	})

	t.Run("directories", func(t *testing.T) {
		require.NoError(t, os.Rename(m.mnt("docs"), m.mnt("Archive")))
		assert.Equal(t, []string{"Archive"}, listNames(t, m.mountDir))
		assert.Equal(t, []string{"final.txt"}, listNames(t, m.mnt("ARCHIVE")))
	})
}

func TestRemove(t *testing.T) {
	m := mountTest(t)
	require.NoError(t, os.Mkdir(m.mnt("Dir"), 0755))
	require.NoError(t, os.WriteFile(m.mnt("Dir", "File"), nil, 0644))

	require.NoError(t, os.Remove(m.mnt("DIR", "FILE")))
	require.NoError(t, os.Remove(m.mnt("dir")))
	assert.Empty(t, listNames(t, m.srcDir))

	err := os.Remove(m.mnt("Dir"))
	assert.True(t, os.IsNotExist(err), "got %v", err)
}

func TestReservedXattr(t *testing.T) {
	m := mountTest(t)
	require.NoError(t, os.WriteFile(m.mnt("Notes"), nil, 0644))

	buf := make([]byte, 64)
	sz, err := unix.Getxattr(m.mnt("notes"), OriginalNameXattr, buf)
	require.NoError(t, err)
	assert.Equal(t, "Notes", string(buf[:sz]))

	err = unix.Setxattr(m.mnt("Notes"), OriginalNameXattr, []byte("Other"), 0)
	assert.ErrorIs(t, err, syscall.EPERM)
	err = unix.Removexattr(m.mnt("Notes"), OriginalNameXattr)
	assert.ErrorIs(t, err, syscall.EPERM)
	assert.Equal(t, "Notes", getOriginal(t, m.src("notes")))

	require.NoError(t, unix.Setxattr(m.mnt("NOTES"), "user.comment", []byte("hi"), 0))
	sz, err = unix.Getxattr(m.src("notes"), "user.comment", buf)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(buf[:sz]))
	require.NoError(t, unix.Removexattr(m.mnt("notes"), "user.comment"))
}

func TestBackingStoreDrift(t *testing.T) {
	m := mountTest(t)

	// Entries created behind the mount's back.
	require.NoError(t, os.WriteFile(m.src("Hidden"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(m.src("report"), nil, 0644))
	setOriginal(t, m.src("report"), "Summary")
	require.NoError(t, os.WriteFile(m.src("plain"), nil, 0644))

	assert.Equal(t, []string{"plain", "report"}, listNames(t, m.mountDir))
	assert.Equal(t, "", getOriginal(t, m.src("report")))

	_, err := os.Stat(m.mnt("Hidden"))
	assert.True(t, os.IsNotExist(err), "got %v", err)

	metrics := m.server.Session.Metrics()
	assert.Equal(t, 1.0, getCounterValue(metrics.HiddenEntries))
	assert.Equal(t, 1.0, getCounterValue(metrics.StaleNamesHealed))
}

func TestSymlinkAndAttributes(t *testing.T) {
	m := mountTest(t)
	require.NoError(t, os.WriteFile(m.mnt("Target"), []byte("data"), 0644))
	require.NoError(t, os.Symlink("Target", m.mnt("Link")))

	dest, err := os.Readlink(m.mnt("LINK"))
	require.NoError(t, err)
	assert.Equal(t, "Target", dest)

	data, err := os.ReadFile(m.mnt("link"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	require.NoError(t, os.Chmod(m.mnt("TARGET"), 0600))
	fi, err := os.Stat(m.src("target"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), fi.Mode().Perm())

	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(m.mnt("target"), mtime, mtime))
	fi, err = os.Stat(m.mnt("Target"))
	require.NoError(t, err)
	assert.True(t, fi.ModTime().Equal(mtime))

	require.NoError(t, os.Truncate(m.mnt("Target"), 2))
	data, err = os.ReadFile(m.src("target"))
	require.NoError(t, err)
	assert.Equal(t, "da", string(data))

	var st syscall.Statfs_t
	require.NoError(t, syscall.Statfs(m.mountDir, &st))
	assert.NotZero(t, st.Blocks)
}

func TestOpenFilesAreTracked(t *testing.T) {
	m := mountTest(t)
	require.NoError(t, os.WriteFile(m.mnt("Open"), nil, 0644))

	f, err := os.Open(m.mnt("open"))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, 1, m.server.Session.handles.count(fileHandle))
}

func TestEndToEnd(t *testing.T) {
	m := mountTest(t)

	require.NoError(t, os.MkdirAll(m.mnt("DeMo", "SubFolder"), 0755))
	f, err := os.OpenFile(m.mnt("DEMO", "subFolder", "MyFile"), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("demo\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	for _, p := range []string{m.mnt("DEMO", "subFolder", "MyFile"), m.mnt("DeMo", "SubFolder", "MyFile")} {
		data, err := os.ReadFile(p)
		require.NoError(t, err, p)
		assert.Equal(t, "demo\n", string(data), p)
	}
	assert.Equal(t, []string{"DeMo"}, listNames(t, m.mountDir))
	assert.Equal(t, []string{"SubFolder"}, listNames(t, m.mnt("DeMo")))
	assert.Equal(t, []string{"MyFile"}, listNames(t, m.mnt("DeMo", "SubFolder")))

	_, err = os.Stat(m.src("demo", "subfolder", "myfile"))
	assert.NoError(t, err)
}

func TestCherokeeNames(t *testing.T) {
	m := mountTest(t)

	// Cherokee folds to its uppercase letters.
	capital, small := "\u13a0.txt", "\uab70.txt"
	require.NoError(t, os.WriteFile(m.mnt(capital), []byte("one"), 0644))
	assert.Equal(t, []string{capital}, listNames(t, m.srcDir))
	assert.Equal(t, []string{capital}, listNames(t, m.mountDir))

	require.NoError(t, os.WriteFile(m.mnt(small), []byte("two"), 0644))
	assert.Equal(t, []string{capital}, listNames(t, m.srcDir))
	data, err := os.ReadFile(m.mnt(capital))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestPrivateMountRunsAsDaemon(t *testing.T) {
	m := mountTest(t)
	assert.False(t, m.server.Session.Switcher().Active())

	require.NoError(t, os.WriteFile(m.mnt("Mine"), nil, 0644))
	fi, err := os.Stat(m.src("mine"))
	require.NoError(t, err)
	st := fi.Sys().(*syscall.Stat_t)
	assert.Equal(t, uint32(os.Getuid()), st.Uid)
	assert.Zero(t, getCounterValue(m.server.Session.Metrics().CredentialSwitches))
}

// runAs runs a shell snippet as uid and gid with the given supplementary
// groups. With switching active the test process itself must stay off the
// mount, so every access through it happens in a child.
func runAs(uid, gid uint32, groups []uint32, script string, args ...string) error {
	c := exec.Command("/bin/sh", append([]string{"-c", script}, args...)...)
	c.SysProcAttr = &syscall.SysProcAttr{
		Credential: &syscall.Credential{Uid: uid, Gid: gid, Groups: groups},
	}
	return c.Run()
}

func TestSharedMountAsRoot(t *testing.T) {
	if os.Getuid() != 0 {
		t.Skip("requires root")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	m := mountTest(t, WithAllowOther())
	require.True(t, m.server.Session.Switcher().Active())

	// Let other users reach the mount point and the backing root.
	require.NoError(t, os.Chmod(filepath.Dir(m.mountDir), 0755))
	require.NoError(t, os.Chmod(m.srcDir, 0755))

	const owner, other, member = 4001, 4002, 4003
	const create = `echo x > "$0"`

	t.Run("root caller", func(t *testing.T) {
		require.NoError(t, runAs(0, 0, nil, create, m.mnt("Shared")))
		fi, err := os.Stat(m.src("shared"))
		require.NoError(t, err)
		assert.Equal(t, uint32(0), fi.Sys().(*syscall.Stat_t).Uid)
		assert.Equal(t, "Shared", getOriginal(t, m.src("shared")))
	})

	t.Run("owner and other user", func(t *testing.T) {
		require.NoError(t, os.Mkdir(m.src("private"), 0755))
		require.NoError(t, os.Chown(m.src("private"), owner, owner))
		setOriginal(t, m.src("private"), "Private")

		require.NoError(t, runAs(owner, owner, nil, create, m.mnt("PRIVATE", "Owned")))
		fi, err := os.Stat(m.src("private", "owned"))
		require.NoError(t, err)
		st := fi.Sys().(*syscall.Stat_t)
		assert.Equal(t, uint32(owner), st.Uid)
		assert.Equal(t, uint32(owner), st.Gid)

		assert.Error(t, runAs(other, other, nil, create, m.mnt("PRIVATE", "Denied")))
		_, err = os.Stat(m.src("private", "denied"))
		assert.True(t, os.IsNotExist(err), "got %v", err)
	})

	t.Run("supplementary groups", func(t *testing.T) {
		require.NoError(t, os.Mkdir(m.src("rootgroup"), 0755))
		require.NoError(t, os.Chmod(m.src("rootgroup"), 0775))
		setOriginal(t, m.src("rootgroup"), "RootGroup")

		// A caller without supplementary groups must not inherit the
		// daemon's root group.
		assert.Error(t, runAs(other, other, nil, create, m.mnt("RootGroup", "Intruder")))
		_, err := os.Stat(m.src("rootgroup", "intruder"))
		assert.True(t, os.IsNotExist(err), "got %v", err)

		require.NoError(t, runAs(member, member, []uint32{0}, create, m.mnt("RootGroup", "Member")))
		fi, err := os.Stat(m.src("rootgroup", "member"))
		require.NoError(t, err)
		assert.Equal(t, uint32(member), fi.Sys().(*syscall.Stat_t).Uid)
	})

	assert.Positive(t, getCounterValue(m.server.Session.Metrics().CredentialSwitches))
}
