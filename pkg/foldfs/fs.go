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
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"velda.io/foldfs/pkg/casefold"
)

const (
	DefaultEntryTimeout    = time.Second
	DefaultAttrTimeout     = time.Second
	DefaultNegativeTimeout = time.Duration(0)

	// Upper bound for retrying a busy unmount after a termination signal.
	unmountRetryTimeout = time.Minute
)

type mountConfig struct {
	fs.Options
	session    SessionOptions
	registerer prometheus.Registerer
}

type MountOption func(*mountConfig)

// WithFolder selects the case folding strategy.
func WithFolder(folder casefold.Folder) MountOption {
	return func(c *mountConfig) {
		c.session.Folder = folder
	}
}

// WithAllowOther makes the mount visible to all users. When the daemon runs
// as root this also switches to the caller's credentials for every
// operation and serializes request dispatch.
//
// Credential changes apply to every thread of the process, so while
// switching is active the daemon process must not access its own mount: a
// thread blocked in such a request stalls the switch and the server with it.
func WithAllowOther() MountOption {
	return func(c *mountConfig) {
		c.MountOptions.AllowOther = true
		c.session.Shared = true
	}
}

func WithLogger(logger logrus.FieldLogger) MountOption {
	return func(c *mountConfig) {
		c.session.Logger = logger
	}
}

// WithMetrics records into m and, when reg is not nil, registers m with reg.
func WithMetrics(m *Metrics, reg prometheus.Registerer) MountOption {
	return func(c *mountConfig) {
		c.session.Metrics = m
		c.registerer = reg
	}
}

// WithTimeouts sets the kernel's entry, attribute and negative lookup cache
// lifetimes.
func WithTimeouts(entry, attr, negative time.Duration) MountOption {
	return func(c *mountConfig) {
		c.EntryTimeout = &entry
		c.AttrTimeout = &attr
		c.NegativeTimeout = &negative
	}
}

// WithMountOptions passes raw -o options to the kernel mount.
func WithMountOptions(opts ...string) MountOption {
	return func(c *mountConfig) {
		c.MountOptions.Options = append(c.MountOptions.Options, opts...)
	}
}

// WithFsName sets the source shown in the mount table.
func WithFsName(name string) MountOption {
	return func(c *mountConfig) {
		c.MountOptions.FsName = name
	}
}

// WithSubtype sets the filesystem type suffix shown as fuse.<subtype>.
func WithSubtype(name string) MountOption {
	return func(c *mountConfig) {
		c.MountOptions.Name = name
	}
}

// WithDebug logs every request and reply.
func WithDebug() MountOption {
	return func(c *mountConfig) {
		c.MountOptions.Debug = true
	}
}

// WithFuseOption gives direct access to the go-fuse options.
func WithFuseOption(fn func(*fs.Options)) MountOption {
	return func(c *mountConfig) {
		fn(&c.Options)
	}
}

// withIdentities overrides how callers are resolved.
func withIdentities(ids IdentityLookup) MountOption {
	return func(c *mountConfig) {
		c.session.Identities = ids
	}
}

// Server is a mounted case-insensitive filesystem.
type Server struct {
	*fuse.Server
	Session *Session
	Root    *CaseNode

	mountpoint string
	log        logrus.FieldLogger
	stopOnce   sync.Once
	stop       chan struct{}
}

// Mount exposes source at mountpoint.
func Mount(source, mountpoint string, options ...MountOption) (*Server, error) {
	entryTimeout := DefaultEntryTimeout
	attrTimeout := DefaultAttrTimeout
	negativeTimeout := DefaultNegativeTimeout

	cfg := &mountConfig{
		Options: fs.Options{
			EntryTimeout:    &entryTimeout,
			AttrTimeout:     &attrTimeout,
			NegativeTimeout: &negativeTimeout,
			MountOptions: fuse.MountOptions{
				DisableReadDirPlus: true,
				Name:               "foldfs",
				FsName:             source,
				MaxWrite:           1024 * 1024,
				EnableLocks:        true,
			},
		},
		session: SessionOptions{Root: source},
	}
	for _, opt := range options {
		opt(cfg)
	}

	sess, err := NewSession(cfg.session)
	if err != nil {
		return nil, err
	}
	if cfg.registerer != nil {
		if err := sess.metrics.Register(cfg.registerer); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	if sess.switcher.Active() {
		cfg.MountOptions.SingleThreaded = true
		sess.log.Info("disabling multithreaded mode for root mounted filesystem that is accessible for other users via the `-o allow_other' option")
	}
	if cfg.MountOptions.Logger == nil {
		cfg.MountOptions.Logger = stdLogger(sess.log)
	}
	if cfg.Logger == nil {
		cfg.Logger = cfg.MountOptions.Logger
	}

	root := sess.NewRoot()
	server, err := fs.Mount(mountpoint, root, &cfg.Options)
	if err != nil {
		sess.Close()
		return nil, err
	}
	server.RecordLatencies(sess.metrics)

	s := &Server{
		Server:     server,
		Session:    sess,
		Root:       root,
		mountpoint: mountpoint,
		log:        sess.log.WithField("mountpoint", mountpoint),
		stop:       make(chan struct{}),
	}
	s.log.Info("Mounted")

	go s.handleSignals()
	return s, nil
}

// handleSignals unmounts on SIGINT or SIGTERM.
func (s *Server) handleSignals() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sig)
	select {
	case <-sig:
	case <-s.stop:
		return
	}
	s.log.Infof("Unmounting %s", s.mountpoint)
	ctx, cancel := context.WithTimeout(context.Background(), unmountRetryTimeout)
	defer cancel()
	if err := s.unmountWithRetry(ctx); err != nil {
		s.log.WithError(err).Error("Unmount failed")
	}
}

// unmountWithRetry keeps trying while the mount point is busy.
func (s *Server) unmountWithRetry(ctx context.Context) error {
	op := func() (struct{}, error) {
		return struct{}{}, s.Server.Unmount()
	}
	notifier := func(err error, d time.Duration) {
		s.log.WithError(err).Warnf("Unmount of %s failed. Retrying in %v", s.mountpoint, d)
	}
	_, err := backoff.Retry(
		ctx,
		op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithNotify(notifier),
		backoff.WithMaxElapsedTime(unmountRetryTimeout),
	)
	return err
}

// Unmount detaches the filesystem and stops listening for signals.
func (s *Server) Unmount() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return s.Server.Unmount()
}

// Close releases handles the kernel left open. Call it after Wait returns.
func (s *Server) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	err := s.Session.Close()
	s.log.Info("Unmounted")
	return err
}

// stdLogger adapts logger for go-fuse, which logs through the log package.
func stdLogger(logger logrus.FieldLogger) *log.Logger {
	type levelWriter interface {
		WriterLevel(logrus.Level) *io.PipeWriter
	}
	if lw, ok := logger.(levelWriter); ok {
		return log.New(lw.WriterLevel(logrus.DebugLevel), "", 0)
	}
	return log.New(io.Discard, "", 0)
}
