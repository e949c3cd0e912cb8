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

package casefold

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Simple implements full case folding on the Go unicode tables: the
// single-rune foldings come from the case mappings of each rune and the
// multi-rune foldings from the expansions table. It produces the same
// result as Full without depending on golang.org/x/text.
type Simple struct{}

func (Simple) Name() string { return NameSimple }

func (Simple) Fold(name string) (string, error) {
	if !utf8.ValidString(name) {
		return "", ErrInvalidEncoding
	}
	if !simpleChanges(name) {
		return name, nil
	}
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		if exp, ok := expansions[r]; ok {
			sb.WriteString(exp)
			continue
		}
		sb.WriteRune(foldRune(r))
	}
	return sb.String(), nil
}

func (Simple) ContainsUpper(name string) bool {
	if !utf8.ValidString(name) {
		return true
	}
	return simpleChanges(name)
}

func simpleChanges(name string) bool {
	for _, r := range name {
		if _, ok := expansions[r]; ok {
			return true
		}
		if foldRune(r) != r {
			return true
		}
	}
	return false
}

// foldRune maps every member of a case orbit to its lowercase member, so
// that title case letters and final sigma fold like their siblings.
// Cherokee is the exception and folds to its uppercase letters.
func foldRune(r rune) rune {
	if r < utf8.RuneSelf {
		if 'A' <= r && r <= 'Z' {
			return r + 'a' - 'A'
		}
		return r
	}
	if r == '\u0131' {
		// Dotless i only folds to i under Turkic rules.
		return r
	}
	upper := unicode.ToUpper(r)
	if isCherokeeUpper(upper) {
		return upper
	}
	return unicode.ToLower(upper)
}

func isCherokeeUpper(r rune) bool {
	return '\u13a0' <= r && r <= '\u13f5'
}
