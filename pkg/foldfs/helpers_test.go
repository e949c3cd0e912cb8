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
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func getCounterValue(counter prometheus.Counter) float64 {
	var m dto.Metric
	if err := counter.Write(&m); err != nil {
		return 0
	}
	return m.Counter.GetValue()
}

func getGaugeValue(gauge prometheus.Gauge) float64 {
	var m dto.Metric
	if err := gauge.Write(&m); err != nil {
		return 0
	}
	return m.Gauge.GetValue()
}

func testLogger() (*logrus.Logger, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

// newTestSession returns a session over a fresh backing directory.
func newTestSession(t *testing.T, opts SessionOptions) *Session {
	t.Helper()
	if opts.Root == "" {
		opts.Root = t.TempDir()
	}
	if opts.Logger == nil {
		opts.Logger, _ = testLogger()
	}
	sess, err := NewSession(opts)
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })
	return sess
}

// requireUserXattrs skips the test when dir's filesystem has no user xattrs.
func requireUserXattrs(t *testing.T, dir string) {
	t.Helper()
	probe := filepath.Join(dir, ".xattr-probe")
	require.NoError(t, os.WriteFile(probe, nil, 0644))
	defer os.Remove(probe)
	err := unix.Lsetxattr(probe, "user.probe", []byte("x"), 0)
	if errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.EOPNOTSUPP) {
		t.Skipf("user xattrs not supported in %s", dir)
	}
	require.NoError(t, err)
}

func getOriginal(t *testing.T, path string) string {
	t.Helper()
	buf := make([]byte, maxStoredNameLen)
	sz, err := unix.Lgetxattr(path, OriginalNameXattr, buf)
	if errors.Is(err, unix.ENODATA) {
		return ""
	}
	require.NoError(t, err)
	return string(buf[:sz])
}

func setOriginal(t *testing.T, path, name string) {
	t.Helper()
	require.NoError(t, unix.Lsetxattr(path, OriginalNameXattr, []byte(name), 0))
}

// staticIdentity reports the same caller for every request.
type staticIdentity struct {
	id CallerIdentity
	ok bool
}

func (s staticIdentity) Identity(ctx context.Context) (CallerIdentity, bool) {
	return s.id, s.ok
}

// fakeCredentials records credential calls instead of making them.
type fakeCredentials struct {
	mu     sync.Mutex
	calls  []string
	groups [][]int
	failOn string
	err    error
}

func (f *fakeCredentials) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if call == f.failOn {
		return f.err
	}
	return nil
}

func (f *fakeCredentials) Setgroups(gids []int) error {
	f.mu.Lock()
	f.groups = append(f.groups, append([]int(nil), gids...))
	f.mu.Unlock()
	return f.record("setgroups")
}

func (f *fakeCredentials) Setegid(egid int) error {
	return f.record("setegid")
}

func (f *fakeCredentials) Seteuid(euid int) error {
	return f.record("seteuid")
}

func (f *fakeCredentials) Setregid(rgid, egid int) error {
	return f.record("setregid")
}

func (f *fakeCredentials) Setreuid(ruid, euid int) error {
	return f.record("setreuid")
}

// groupLists returns the arguments of every Setgroups call.
func (f *fakeCredentials) groupLists() [][]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]int(nil), f.groups...)
}

func (f *fakeCredentials) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
