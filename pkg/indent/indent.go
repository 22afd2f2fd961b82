// Copyright 2023 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package indent prepends a prefix to each line written through it.
package indent

import (
	"bytes"
	"io"
	"strings"
)

// String returns s with each line prefixed by prefix.
func String(prefix, s string) string {
	if prefix == "" || s == "" {
		return s
	}
	var b strings.Builder
	w := NewWriter(&b, prefix)
	io.WriteString(w, s)
	return b.String()
}

// Bytes returns b with each line prefixed by prefix.
func Bytes(prefix, b []byte) []byte {
	if len(prefix) == 0 || len(b) == 0 {
		return b
	}
	var buf bytes.Buffer
	w := NewWriter(&buf, string(prefix))
	w.Write(b)
	return buf.Bytes()
}

type writer struct {
	out    io.Writer
	prefix []byte
	bol    bool // at the beginning of a line
}

// NewWriter returns a writer that prepends prefix to each line written
// through it before writing to w.  The count returned by Write covers
// only the caller's bytes, never the inserted prefixes, even when the
// underlying writer fails partway.
func NewWriter(w io.Writer, prefix string) io.Writer {
	if prefix == "" {
		return w
	}
	return &writer{
		out:    w,
		prefix: []byte(prefix),
		bol:    true,
	}
}

func (w *writer) Write(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	// Build the prefixed rendering, remembering where each inserted
	// prefix begins so a short underlying write can be mapped back to a
	// count of caller bytes.
	var b bytes.Buffer
	var prefixAt []int
	bol := w.bol
	for _, c := range buf {
		if bol {
			prefixAt = append(prefixAt, b.Len())
			b.Write(w.prefix)
			bol = false
		}
		b.WriteByte(c)
		if c == '\n' {
			bol = true
		}
	}

	m, err := w.out.Write(b.Bytes())
	if m >= b.Len() {
		w.bol = bol
		return len(buf), err
	}

	// Subtract the prefix bytes that fit within m.
	n := m
	for _, at := range prefixAt {
		if at >= m {
			break
		}
		overlap := m - at
		if overlap > len(w.prefix) {
			overlap = len(w.prefix)
		}
		n -= overlap
	}
	if n < 0 {
		n = 0
	}
	if err == nil {
		err = io.ErrShortWrite
	}
	return n, err
}
