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

// ASCII folds only the bytes A-Z. Every other byte, including the bytes of
// multi-byte UTF-8 sequences, is left untouched, so names outside the ASCII
// range are compared case-sensitively.
type ASCII struct{}

func (ASCII) Name() string { return NameASCII }

func (ASCII) Fold(name string) (string, error) {
	i := 0
	for ; i < len(name); i++ {
		if isASCIIUpper(name[i]) {
			break
		}
	}
	if i == len(name) {
		return name, nil
	}
	b := []byte(name)
	for ; i < len(b); i++ {
		if isASCIIUpper(b[i]) {
			b[i] += 'a' - 'A'
		}
	}
	return string(b), nil
}

func (ASCII) ContainsUpper(name string) bool {
	for i := 0; i < len(name); i++ {
		if isASCIIUpper(name[i]) {
			return true
		}
	}
	return false
}

func isASCIIUpper(c byte) bool {
	return 'A' <= c && c <= 'Z'
}
