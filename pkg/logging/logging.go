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

// Package logging builds the process logger. The destination is chosen once
// at startup: stderr for foreground and debug runs, the system log otherwise.
package logging

import (
	"io"
	"log/syslog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	lsyslog "github.com/sirupsen/logrus/hooks/syslog"
)

const SyslogTag = "foldfs"

type Options struct {
	// Foreground logs to stderr instead of the system log.
	Foreground bool
	// Debug implies Foreground and the debug level.
	Debug bool
	// Level is a logrus level name. Empty means info.
	Level string

	// Stderr defaults to os.Stderr.
	Stderr *os.File
	// dial connects to the system log. Defaults to the local syslog socket.
	dial func() (logrus.Hook, error)
}

func dialSyslog() (logrus.Hook, error) {
	return lsyslog.NewSyslogHook("", "", syslog.LOG_NOTICE|syslog.LOG_DAEMON, SyslogTag)
}

// New returns a logger configured from opts. An unknown level is reported
// as an error together with a usable logger at info level.
func New(opts Options) (*logrus.Logger, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:   isatty.IsTerminal(stderr.Fd()),
		FullTimestamp: true,
	})

	var levelErr error
	level := logrus.InfoLevel
	if opts.Level != "" {
		level, levelErr = logrus.ParseLevel(opts.Level)
		if levelErr != nil {
			level = logrus.InfoLevel
		}
	}
	if opts.Debug {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	if opts.Foreground || opts.Debug {
		return logger, levelErr
	}

	dial := opts.dial
	if dial == nil {
		dial = dialSyslog
	}
	hook, err := dial()
	if err != nil {
		logger.WithError(err).Warn("System log unavailable, logging to stderr")
		return logger, levelErr
	}
	logger.AddHook(hook)
	logger.SetOutput(io.Discard)
	return logger, levelErr
}
