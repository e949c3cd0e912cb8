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
	"strings"

	"velda.io/foldfs/pkg/foldfs"
)

// fuseOptions is the parsed form of the -o arguments.
type fuseOptions struct {
	allowOther  bool
	fsName      string
	subtype     string
	passthrough []string
}

// parseFuseOptions interprets the options foldfs handles itself and keeps
// everything else for the kernel mount, in order.
func parseFuseOptions(raw []string) fuseOptions {
	var opts fuseOptions
	for _, item := range raw {
		for _, opt := range strings.Split(item, ",") {
			opt = strings.TrimSpace(opt)
			switch {
			case opt == "":
			case opt == "allow_other":
				opts.allowOther = true
			case strings.HasPrefix(opt, "fsname="):
				opts.fsName = strings.TrimPrefix(opt, "fsname=")
			case strings.HasPrefix(opt, "subtype="):
				opts.subtype = strings.TrimPrefix(opt, "subtype=")
			default:
				opts.passthrough = append(opts.passthrough, opt)
			}
		}
	}
	return opts
}

func (o fuseOptions) mountOptions() []foldfs.MountOption {
	var res []foldfs.MountOption
	if o.allowOther {
		res = append(res, foldfs.WithAllowOther())
	}
	if o.fsName != "" {
		res = append(res, foldfs.WithFsName(o.fsName))
	}
	if o.subtype != "" {
		res = append(res, foldfs.WithSubtype(o.subtype))
	}
	if len(o.passthrough) > 0 {
		res = append(res, foldfs.WithMountOptions(o.passthrough...))
	}
	return res
}
