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

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/shirou/gopsutil/v3/process"
)

// CallerIdentity is the identity of the process that issued a request.
type CallerIdentity struct {
	Uid    uint32
	Gid    uint32
	Groups []uint32
	// Pid is the thread id reported by the kernel.
	Pid uint32
}

// IdentityLookup resolves the caller of the request carried by ctx.
type IdentityLookup interface {
	Identity(ctx context.Context) (CallerIdentity, bool)
}

// ProcIdentityLookup takes uid and gid from the request header and reads the
// supplementary groups of the calling thread from /proc on every call.
// When the groups cannot be read, for example because the thread has already
// exited, the caller is given its primary gid as the only group.
type ProcIdentityLookup struct{}

func (ProcIdentityLookup) Identity(ctx context.Context) (CallerIdentity, bool) {
	caller, ok := fuse.FromContext(ctx)
	if !ok {
		return CallerIdentity{}, false
	}
	id := CallerIdentity{
		Uid: caller.Uid,
		Gid: caller.Gid,
		Pid: caller.Pid,
	}
	if caller.Pid == 0 {
		id.Groups = []uint32{caller.Gid}
		return id, true
	}
	// Built directly to skip the existence probe done by process.NewProcess.
	proc := &process.Process{Pid: int32(caller.Pid)}
	groups, err := proc.GroupsWithContext(ctx)
	if err != nil {
		id.Groups = []uint32{caller.Gid}
		return id, true
	}
	id.Groups = make([]uint32, 0, len(groups))
	for _, g := range groups {
		id.Groups = append(id.Groups, uint32(g))
	}
	return id, true
}
