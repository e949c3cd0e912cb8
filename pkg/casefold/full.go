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

	"golang.org/x/text/cases"
)

// Full applies Unicode full case folding as implemented by
// golang.org/x/text/cases. The Turkic special-I mappings are not applied.
type Full struct{}

func (Full) Name() string { return NameFull }

func (Full) Fold(name string) (string, error) {
	if !utf8.ValidString(name) {
		return "", ErrInvalidEncoding
	}
	// A Caser carries state and must not be shared between goroutines.
	folded := cases.Fold().String(name)
	if !hasCherokeeLower(folded) {
		return folded, nil
	}
	return strings.Map(cherokeeToUpper, folded), nil
}

func (f Full) ContainsUpper(name string) bool {
	folded, err := f.Fold(name)
	if err != nil {
		return true
	}
	return folded != name
}

// x/text folds uppercase Cherokee to lowercase while CaseFolding.txt maps
// lowercase Cherokee to uppercase. Without the correction a folded name
// would fold again.
func isCherokeeLower(r rune) bool {
	return ('\u13f8' <= r && r <= '\u13fd') || ('\uab70' <= r && r <= '\uabbf')
}

func hasCherokeeLower(s string) bool {
	for _, r := range s {
		if isCherokeeLower(r) {
			return true
		}
	}
	return false
}

func cherokeeToUpper(r rune) rune {
	if isCherokeeLower(r) {
		return unicode.ToUpper(r)
	}
	return r
}
