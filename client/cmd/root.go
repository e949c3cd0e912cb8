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

package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"velda.io/foldfs"
	"velda.io/foldfs/pkg/casefold"
	"velda.io/foldfs/pkg/config"
	pkgfs "velda.io/foldfs/pkg/foldfs"
	"velda.io/foldfs/pkg/logging"
)

const fuseModule = "github.com/hanwen/go-fuse/v2"

var rootCmd = &cobra.Command{
	Use:   "foldfs <source_directory> <mount_point>",
	Short: "Mount a directory as a case-insensitive, case-preserving filesystem",
	Long: `foldfs exposes source_directory at mount_point. Names are matched without
regard to case and stored in lowercase in the source directory; the spelling
used at creation time is kept in the user.filename extended attribute and
shown in listings.`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE:         runMount,
}

func runMount(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	foreground, _ := cmd.Flags().GetBool("foreground")
	debugMode, _ := cmd.Flags().GetBool("debug")
	logger, err := logging.New(logging.Options{
		Foreground: foreground,
		Debug:      debugMode,
		Level:      cfg.LogLevel,
	})
	if err != nil {
		return err
	}

	folder, err := cfg.Folder()
	if err != nil {
		return err
	}
	source, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve source directory %q: %w", args[0], err)
	}
	mountpoint := args[1]

	rawOpts, _ := cmd.Flags().GetStringSlice("options")
	opts := []pkgfs.MountOption{
		pkgfs.WithFolder(folder),
		pkgfs.WithLogger(logger),
		pkgfs.WithTimeouts(cfg.EntryTimeout, cfg.AttrTimeout, cfg.NegativeTimeout),
	}
	opts = append(opts, parseFuseOptions(rawOpts).mountOptions()...)
	if debugMode {
		opts = append(opts, pkgfs.WithDebug())
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	opts = append(opts, pkgfs.WithMetrics(pkgfs.NewMetrics(), reg))

	// Requested modes reach the source directory unchanged.
	unix.Umask(0)

	server, err := pkgfs.Mount(source, mountpoint, opts...)
	if err != nil {
		return fmt.Errorf("mount %s on %s: %w", source, mountpoint, err)
	}
	if cfg.MetricsAddress != "" {
		go serveMetrics(logger, cfg.MetricsAddress, reg)
	}

	server.Wait()
	return server.Close()
}

func serveMetrics(logger logrus.FieldLogger, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	logger.Infof("Serving metrics on %s", addr)
	err := http.ListenAndServe(addr, mux)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("Metrics server stopped")
	}
}

func fuseVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range info.Deps {
		if dep.Path == fuseModule {
			return dep.Version
		}
	}
	return "unknown"
}

func version() string {
	if foldfs.Version == "" {
		return "dev"
	}
	return foldfs.Version
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version()
	rootCmd.SetVersionTemplate(fmt.Sprintf("foldfs {{.Version}}\nFUSE library version: %s %s\n", fuseModule, fuseVersion()))

	flags := rootCmd.Flags()
	flags.StringSliceP("options", "o", nil, "Mount options, comma separated (allow_other, fsname=, subtype=, or any kernel option)")
	flags.BoolP("foreground", "f", false, "Log to stderr instead of the system log")
	flags.BoolP("debug", "d", false, "Log every request, implies -f")
	flags.String("fold", casefold.Default, "Case folding strategy: "+strings.Join(casefold.Names(), ", "))
	flags.String("log-level", "info", "Log level")
	flags.String("config", "", "YAML configuration file")
	flags.String("metrics-address", "", "Serve Prometheus metrics on this address")
	flags.Duration("entry-timeout", pkgfs.DefaultEntryTimeout, "Kernel cache lifetime for names")
	flags.Duration("attr-timeout", pkgfs.DefaultAttrTimeout, "Kernel cache lifetime for attributes")
}
