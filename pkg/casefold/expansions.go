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

// expansions are the full case folding mappings (CaseFolding.txt status F,
// Unicode 15.0.0) that produce more than one rune. The Turkic mappings of
// status T are not part of it.
var expansions = map[rune]string{
	'\u00df': "ss",                 // LATIN SMALL LETTER SHARP S
	'\u0130': "i\u0307",            // LATIN CAPITAL LETTER I WITH DOT ABOVE
	'\u0149': "\u02bcn",            // LATIN SMALL LETTER N PRECEDED BY APOSTROPHE
	'\u01f0': "j\u030c",            // LATIN SMALL LETTER J WITH CARON
	'\u0390': "\u03b9\u0308\u0301", // GREEK SMALL LETTER IOTA WITH DIALYTIKA AND TONOS
	'\u03b0': "\u03c5\u0308\u0301", // GREEK SMALL LETTER UPSILON WITH DIALYTIKA AND TONOS
	'\u0587': "\u0565\u0582",       // ARMENIAN SMALL LIGATURE ECH YIWN
	'\u1e96': "h\u0331",            // LATIN SMALL LETTER H WITH LINE BELOW
	'\u1e97': "t\u0308",            // LATIN SMALL LETTER T WITH DIAERESIS
	'\u1e98': "w\u030a",            // LATIN SMALL LETTER W WITH RING ABOVE
	'\u1e99': "y\u030a",            // LATIN SMALL LETTER Y WITH RING ABOVE
	'\u1e9a': "a\u02be",            // LATIN SMALL LETTER A WITH RIGHT HALF RING
	'\u1e9e': "ss",                 // LATIN CAPITAL LETTER SHARP S
	'\u1f50': "\u03c5\u0313",       // GREEK SMALL LETTER UPSILON WITH PSILI
	'\u1f52': "\u03c5\u0313\u0300", // GREEK SMALL LETTER UPSILON WITH PSILI AND VARIA
	'\u1f54': "\u03c5\u0313\u0301", // GREEK SMALL LETTER UPSILON WITH PSILI AND OXIA
	'\u1f56': "\u03c5\u0313\u0342", // GREEK SMALL LETTER UPSILON WITH PSILI AND PERISPOMENI
	'\u1f80': "\u1f00\u03b9",       // GREEK SMALL LETTER ALPHA WITH PSILI AND YPOGEGRAMMENI
	'\u1f81': "\u1f01\u03b9",       // GREEK SMALL LETTER ALPHA WITH DASIA AND YPOGEGRAMMENI
	'\u1f82': "\u1f02\u03b9",       // GREEK SMALL LETTER ALPHA WITH PSILI AND VARIA AND YPOGEGRAMMENI
	'\u1f83': "\u1f03\u03b9",       // GREEK SMALL LETTER ALPHA WITH DASIA AND VARIA AND YPOGEGRAMMENI
	'\u1f84': "\u1f04\u03b9",       // GREEK SMALL LETTER ALPHA WITH PSILI AND OXIA AND YPOGEGRAMMENI
	'\u1f85': "\u1f05\u03b9",       // GREEK SMALL LETTER ALPHA WITH DASIA AND OXIA AND YPOGEGRAMMENI
	'\u1f86': "\u1f06\u03b9",       // GREEK SMALL LETTER ALPHA WITH PSILI AND PERISPOMENI AND YPOGEGRAMMENI
	'\u1f87': "\u1f07\u03b9",       // GREEK SMALL LETTER ALPHA WITH DASIA AND PERISPOMENI AND YPOGEGRAMMENI
	'\u1f88': "\u1f00\u03b9",       // GREEK CAPITAL LETTER ALPHA WITH PSILI AND PROSGEGRAMMENI
	'\u1f89': "\u1f01\u03b9",       // GREEK CAPITAL LETTER ALPHA WITH DASIA AND PROSGEGRAMMENI
	'\u1f8a': "\u1f02\u03b9",       // GREEK CAPITAL LETTER ALPHA WITH PSILI AND VARIA AND PROSGEGRAMMENI
	'\u1f8b': "\u1f03\u03b9",       // GREEK CAPITAL LETTER ALPHA WITH DASIA AND VARIA AND PROSGEGRAMMENI
	'\u1f8c': "\u1f04\u03b9",       // GREEK CAPITAL LETTER ALPHA WITH PSILI AND OXIA AND PROSGEGRAMMENI
	'\u1f8d': "\u1f05\u03b9",       // GREEK CAPITAL LETTER ALPHA WITH DASIA AND OXIA AND PROSGEGRAMMENI
	'\u1f8e': "\u1f06\u03b9",       // GREEK CAPITAL LETTER ALPHA WITH PSILI AND PERISPOMENI AND PROSGEGRAMMENI
	'\u1f8f': "\u1f07\u03b9",       // GREEK CAPITAL LETTER ALPHA WITH DASIA AND PERISPOMENI AND PROSGEGRAMMENI
	'\u1f90': "\u1f20\u03b9",       // GREEK SMALL LETTER ETA WITH PSILI AND YPOGEGRAMMENI
	'\u1f91': "\u1f21\u03b9",       // GREEK SMALL LETTER ETA WITH DASIA AND YPOGEGRAMMENI
	'\u1f92': "\u1f22\u03b9",       // GREEK SMALL LETTER ETA WITH PSILI AND VARIA AND YPOGEGRAMMENI
	'\u1f93': "\u1f23\u03b9",       // GREEK SMALL LETTER ETA WITH DASIA AND VARIA AND YPOGEGRAMMENI
	'\u1f94': "\u1f24\u03b9",       // GREEK SMALL LETTER ETA WITH PSILI AND OXIA AND YPOGEGRAMMENI
	'\u1f95': "\u1f25\u03b9",       // GREEK SMALL LETTER ETA WITH DASIA AND OXIA AND YPOGEGRAMMENI
	'\u1f96': "\u1f26\u03b9",       // GREEK SMALL LETTER ETA WITH PSILI AND PERISPOMENI AND YPOGEGRAMMENI
	'\u1f97': "\u1f27\u03b9",       // GREEK SMALL LETTER ETA WITH DASIA AND PERISPOMENI AND YPOGEGRAMMENI
	'\u1f98': "\u1f20\u03b9",       // GREEK CAPITAL LETTER ETA WITH PSILI AND PROSGEGRAMMENI
	'\u1f99': "\u1f21\u03b9",       // GREEK CAPITAL LETTER ETA WITH DASIA AND PROSGEGRAMMENI
	'\u1f9a': "\u1f22\u03b9",       // GREEK CAPITAL LETTER ETA WITH PSILI AND VARIA AND PROSGEGRAMMENI
	'\u1f9b': "\u1f23\u03b9",       // GREEK CAPITAL LETTER ETA WITH DASIA AND VARIA AND PROSGEGRAMMENI
	'\u1f9c': "\u1f24\u03b9",       // GREEK CAPITAL LETTER ETA WITH PSILI AND OXIA AND PROSGEGRAMMENI
	'\u1f9d': "\u1f25\u03b9",       // GREEK CAPITAL LETTER ETA WITH DASIA AND OXIA AND PROSGEGRAMMENI
	'\u1f9e': "\u1f26\u03b9",       // GREEK CAPITAL LETTER ETA WITH PSILI AND PERISPOMENI AND PROSGEGRAMMENI
	'\u1f9f': "\u1f27\u03b9",       // GREEK CAPITAL LETTER ETA WITH DASIA AND PERISPOMENI AND PROSGEGRAMMENI
	'\u1fa0': "\u1f60\u03b9",       // GREEK SMALL LETTER OMEGA WITH PSILI AND YPOGEGRAMMENI
	'\u1fa1': "\u1f61\u03b9",       // GREEK SMALL LETTER OMEGA WITH DASIA AND YPOGEGRAMMENI
	'\u1fa2': "\u1f62\u03b9",       // GREEK SMALL LETTER OMEGA WITH PSILI AND VARIA AND YPOGEGRAMMENI
	'\u1fa3': "\u1f63\u03b9",       // GREEK SMALL LETTER OMEGA WITH DASIA AND VARIA AND YPOGEGRAMMENI
	'\u1fa4': "\u1f64\u03b9",       // GREEK SMALL LETTER OMEGA WITH PSILI AND OXIA AND YPOGEGRAMMENI
	'\u1fa5': "\u1f65\u03b9",       // GREEK SMALL LETTER OMEGA WITH DASIA AND OXIA AND YPOGEGRAMMENI
	'\u1fa6': "\u1f66\u03b9",       // GREEK SMALL LETTER OMEGA WITH PSILI AND PERISPOMENI AND YPOGEGRAMMENI
	'\u1fa7': "\u1f67\u03b9",       // GREEK SMALL LETTER OMEGA WITH DASIA AND PERISPOMENI AND YPOGEGRAMMENI
	'\u1fa8': "\u1f60\u03b9",       // GREEK CAPITAL LETTER OMEGA WITH PSILI AND PROSGEGRAMMENI
	'\u1fa9': "\u1f61\u03b9",       // GREEK CAPITAL LETTER OMEGA WITH DASIA AND PROSGEGRAMMENI
	'\u1faa': "\u1f62\u03b9",       // GREEK CAPITAL LETTER OMEGA WITH PSILI AND VARIA AND PROSGEGRAMMENI
	'\u1fab': "\u1f63\u03b9",       // GREEK CAPITAL LETTER OMEGA WITH DASIA AND VARIA AND PROSGEGRAMMENI
	'\u1fac': "\u1f64\u03b9",       // GREEK CAPITAL LETTER OMEGA WITH PSILI AND OXIA AND PROSGEGRAMMENI
	'\u1fad': "\u1f65\u03b9",       // GREEK CAPITAL LETTER OMEGA WITH DASIA AND OXIA AND PROSGEGRAMMENI
	'\u1fae': "\u1f66\u03b9",       // GREEK CAPITAL LETTER OMEGA WITH PSILI AND PERISPOMENI AND PROSGEGRAMMENI
	'\u1faf': "\u1f67\u03b9",       // GREEK CAPITAL LETTER OMEGA WITH DASIA AND PERISPOMENI AND PROSGEGRAMMENI
	'\u1fb2': "\u1f70\u03b9",       // GREEK SMALL LETTER ALPHA WITH VARIA AND YPOGEGRAMMENI
	'\u1fb3': "\u03b1\u03b9",       // GREEK SMALL LETTER ALPHA WITH YPOGEGRAMMENI
	'\u1fb4': "\u03ac\u03b9",       // GREEK SMALL LETTER ALPHA WITH OXIA AND YPOGEGRAMMENI
	'\u1fb6': "\u03b1\u0342",       // GREEK SMALL LETTER ALPHA WITH PERISPOMENI
	'\u1fb7': "\u03b1\u0342\u03b9", // GREEK SMALL LETTER ALPHA WITH PERISPOMENI AND YPOGEGRAMMENI
	'\u1fbc': "\u03b1\u03b9",       // GREEK CAPITAL LETTER ALPHA WITH PROSGEGRAMMENI
	'\u1fc2': "\u1f74\u03b9",       // GREEK SMALL LETTER ETA WITH VARIA AND YPOGEGRAMMENI
	'\u1fc3': "\u03b7\u03b9",       // GREEK SMALL LETTER ETA WITH YPOGEGRAMMENI
	'\u1fc4': "\u03ae\u03b9",       // GREEK SMALL LETTER ETA WITH OXIA AND YPOGEGRAMMENI
	'\u1fc6': "\u03b7\u0342",       // GREEK SMALL LETTER ETA WITH PERISPOMENI
	'\u1fc7': "\u03b7\u0342\u03b9", // GREEK SMALL LETTER ETA WITH PERISPOMENI AND YPOGEGRAMMENI
	'\u1fcc': "\u03b7\u03b9",       // GREEK CAPITAL LETTER ETA WITH PROSGEGRAMMENI
	'\u1fd2': "\u03b9\u0308\u0300", // GREEK SMALL LETTER IOTA WITH DIALYTIKA AND VARIA
	'\u1fd3': "\u03b9\u0308\u0301", // GREEK SMALL LETTER IOTA WITH DIALYTIKA AND OXIA
	'\u1fd6': "\u03b9\u0342",       // GREEK SMALL LETTER IOTA WITH PERISPOMENI
	'\u1fd7': "\u03b9\u0308\u0342", // GREEK SMALL LETTER IOTA WITH DIALYTIKA AND PERISPOMENI
	'\u1fe2': "\u03c5\u0308\u0300", // GREEK SMALL LETTER UPSILON WITH DIALYTIKA AND VARIA
	'\u1fe3': "\u03c5\u0308\u0301", // GREEK SMALL LETTER UPSILON WITH DIALYTIKA AND OXIA
	'\u1fe4': "\u03c1\u0313",       // GREEK SMALL LETTER RHO WITH PSILI
	'\u1fe6': "\u03c5\u0342",       // GREEK SMALL LETTER UPSILON WITH PERISPOMENI
	'\u1fe7': "\u03c5\u0308\u0342", // GREEK SMALL LETTER UPSILON WITH DIALYTIKA AND PERISPOMENI
	'\u1ff2': "\u1f7c\u03b9",       // GREEK SMALL LETTER OMEGA WITH VARIA AND YPOGEGRAMMENI
	'\u1ff3': "\u03c9\u03b9",       // GREEK SMALL LETTER OMEGA WITH YPOGEGRAMMENI
	'\u1ff4': "\u03ce\u03b9",       // GREEK SMALL LETTER OMEGA WITH OXIA AND YPOGEGRAMMENI
	'\u1ff6': "\u03c9\u0342",       // GREEK SMALL LETTER OMEGA WITH PERISPOMENI
	'\u1ff7': "\u03c9\u0342\u03b9", // GREEK SMALL LETTER OMEGA WITH PERISPOMENI AND YPOGEGRAMMENI
	'\u1ffc': "\u03c9\u03b9",       // GREEK CAPITAL LETTER OMEGA WITH PROSGEGRAMMENI
	'\ufb00': "ff",                 // LATIN SMALL LIGATURE FF
	'\ufb01': "fi",                 // LATIN SMALL LIGATURE FI
	'\ufb02': "fl",                 // LATIN SMALL LIGATURE FL
	'\ufb03': "ffi",                // LATIN SMALL LIGATURE FFI
	'\ufb04': "ffl",                // LATIN SMALL LIGATURE FFL
	'\ufb05': "st",                 // LATIN SMALL LIGATURE LONG S T
	'\ufb06': "st",                 // LATIN SMALL LIGATURE ST
	'\ufb13': "\u0574\u0576",       // ARMENIAN SMALL LIGATURE MEN NOW
	'\ufb14': "\u0574\u0565",       // ARMENIAN SMALL LIGATURE MEN ECH
	'\ufb15': "\u0574\u056b",       // ARMENIAN SMALL LIGATURE MEN INI
	'\ufb16': "\u057e\u0576",       // ARMENIAN SMALL LIGATURE VEW NOW
	'\ufb17': "\u0574\u056d",       // ARMENIAN SMALL LIGATURE MEN XEH
}
