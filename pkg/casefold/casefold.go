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

// Package casefold normalizes file names to the canonical lowercase form
// used as the on-disk lookup key of a case-insensitive tree.
package casefold

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidEncoding is returned by Fold when a name cannot be decoded
// by the folder's text model.
var ErrInvalidEncoding = errors.New("casefold: invalid name encoding")

// Folder is a case-folding strategy. Implementations are stateless and safe
// for concurrent use.
type Folder interface {
	// Name identifies the strategy in configuration.
	Name() string

	// Fold returns the canonical form of name. Fold(Fold(x)) == Fold(x).
	Fold(name string) (string, error)

	// ContainsUpper reports whether Fold would change name. Names that
	// cannot be folded report true, so they are never treated as
	// reachable physical names.
	ContainsUpper(name string) bool
}

const (
	NameASCII  = "ascii"
	NameSimple = "simple"
	NameFull   = "full"

	// Default is used when no strategy is configured.
	Default = NameFull
)

var folders = map[string]Folder{
	NameASCII:  ASCII{},
	NameSimple: Simple{},
	NameFull:   Full{},
}

// Lookup returns the folder registered under name.
func Lookup(name string) (Folder, error) {
	if name == "" {
		name = Default
	}
	f, ok := folders[name]
	if !ok {
		return nil, fmt.Errorf("unknown case folding strategy %q (available: %v)", name, Names())
	}
	return f, nil
}

// Names lists the registered strategies in sorted order.
func Names() []string {
	names := make([]string, 0, len(folders))
	for name := range folders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
