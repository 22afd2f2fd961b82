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

package yang

import (
	"math"
	"testing"
)

func TestParseRangesCoalesce(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want string
	}{
		{"1..4|5|6|7..9", "1..9"},
		{"1..5|6..10", "1..10"},
		{"1|3|5", "1|3|5"},
		{"min..max", "min..max"},
		{"5|1..4", "1..5"},
		{"-5..-1|0..5", "-5..5"},
	} {
		t.Run(tt.in, func(t *testing.T) {
			r, err := ParseRangesInt(tt.in)
			if err != nil {
				t.Fatalf("ParseRangesInt(%q): %v", tt.in, err)
			}
			if got := r.String(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseRangesErrors(t *testing.T) {
	for _, in := range []string{
		"9..1",
		"1..2..3",
		"bob",
		"",
	} {
		if _, err := ParseRangesInt(in); err == nil {
			t.Errorf("ParseRangesInt(%q) did not fail", in)
		}
	}
}

// Ranges must come out strictly ascending and non-overlapping after
// normalization, no matter the input order.
func TestRangeInvariant(t *testing.T) {
	r, err := ParseRangesInt("20..30|1..5|10..15")
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(r); i++ {
		if !r[i-1].Max.Less(r[i].Min) {
			t.Errorf("ranges not ascending: %s then %s", r[i-1], r[i])
		}
	}
}

func TestNumberCompare(t *testing.T) {
	for _, tt := range []struct {
		a, b string
		less bool
		fd   uint8
	}{
		{"1", "2", true, 0},
		{"2", "1", false, 0},
		{"-2", "1", true, 0},
		{"min", "-9223372036854775808", true, 0},
		{"max", "1", false, 0},
		{"1.5", "1.6", true, 2},
		{"-1.5", "-1.4", true, 2},
	} {
		var a, b Number
		var err error
		if tt.fd > 0 {
			a, err = ParseDecimal(tt.a, tt.fd)
			if err == nil {
				b, err = ParseDecimal(tt.b, tt.fd)
			}
		} else {
			a, err = ParseInt(tt.a)
			if err == nil {
				b, err = ParseInt(tt.b)
			}
		}
		if err != nil {
			t.Fatalf("%s vs %s: %v", tt.a, tt.b, err)
		}
		if got := a.Less(b); got != tt.less {
			t.Errorf("%s < %s = %v, want %v", tt.a, tt.b, got, tt.less)
		}
	}
}

func TestDecimalString(t *testing.T) {
	for _, tt := range []struct {
		in   string
		fd   uint8
		want string
	}{
		{"3.14", 2, "3.14"},
		{"0.1", 1, "0.1"},
		{"-0.5", 1, "-0.5"},
		{"42", 2, "42.00"},
	} {
		n, err := ParseDecimal(tt.in, tt.fd)
		if err != nil {
			t.Fatalf("ParseDecimal(%q, %d): %v", tt.in, tt.fd, err)
		}
		if got := n.String(); got != tt.want {
			t.Errorf("ParseDecimal(%q, %d) = %s, want %s", tt.in, tt.fd, got, tt.want)
		}
	}
}

func TestDecimalPrecisionOverflow(t *testing.T) {
	if _, err := ParseDecimal("1.234", 2); err == nil {
		t.Error("expected an error for excess precision")
	}
	if _, err := ParseDecimal("1.2", 19); err == nil {
		t.Error("expected an error for fraction-digits > 18")
	}
	if _, err := ParseDecimal("1.2", 0); err == nil {
		t.Error("expected an error for fraction-digits 0")
	}
}

func TestParseNumber(t *testing.T) {
	n, err := ParseNumber("10")
	if err != nil || n.IsDecimal() {
		t.Errorf("ParseNumber(10) = %v, %v; want integer", n, err)
	}
	n, err = ParseNumber("10.5")
	if err != nil || !n.IsDecimal() {
		t.Errorf("ParseNumber(10.5) = %v, %v; want decimal", n, err)
	}
}

func TestNumberFloat(t *testing.T) {
	n, _ := ParseDecimal("2.5", 1)
	if got := n.Float(); got != 2.5 {
		t.Errorf("2.5 as float = %v", got)
	}
	if got := minNumber.Float(); !math.IsInf(got, -1) {
		t.Errorf("min as float = %v, want -Inf", got)
	}
	if got := maxNumber.Float(); !math.IsInf(got, 1) {
		t.Errorf("max as float = %v, want +Inf", got)
	}
}

func TestRangeAccepts(t *testing.T) {
	r := mustParseRangesInt("1..5|10..20")
	for _, tt := range []struct {
		in   int64
		want bool
	}{
		{0, false},
		{1, true},
		{5, true},
		{7, false},
		{10, true},
		{20, true},
		{21, false},
	} {
		if got := r.Accepts(FromInt(tt.in)); got != tt.want {
			t.Errorf("Accepts(%d) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
