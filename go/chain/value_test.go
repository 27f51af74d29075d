// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package chain

import (
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"pgregory.net/rand"
)

func TestValue_NewValue(t *testing.T) {
	tests := map[string]struct {
		args []uint64
		want string
	}{
		"zero":        {nil, "0"},
		"small":       {[]uint64{123456}, "123456"},
		"max uint64":  {[]uint64{math.MaxUint64}, "18446744073709551615"},
		"two words":   {[]uint64{1, 0}, "18446744073709551616"},
		"full width":  {[]uint64{1, 0, 0, 0}, "6277101735386680763835789423207666416102355444464034512896"},
		"leading one": {[]uint64{0, 0, 0, 1}, "1"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if want, got := test.want, NewValue(test.args...).String(); want != got {
				t.Errorf("unexpected value, want %v, got %v", want, got)
			}
		})
	}
}

func TestValue_NewValueWithTooManyArgumentsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic")
		}
	}()
	NewValue(1, 2, 3, 4, 5)
}

func TestValue_ParseValue(t *testing.T) {
	tests := map[string]struct {
		input string
		want  Value
	}{
		"decimal":          {"123456", NewValue(123456)},
		"hex":              {"0x1e240", NewValue(123456)},
		"upper hex prefix": {"0X1E240", NewValue(123456)},
		"leading zeros":    {"0x0000ff", NewValue(255)},
		"surrounding":      {"  42 ", NewValue(42)},
		"zero":             {"0", NewValue()},
		"max": {
			"115792089237316195423570985008687907853269984665640564039457584007913129639935",
			NewValue(math.MaxUint64, math.MaxUint64, math.MaxUint64, math.MaxUint64),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseValue(test.input)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", test.input, err)
			}
			if want := test.want; want != got {
				t.Errorf("unexpected value, want %v, got %v", want, got)
			}
		})
	}
}

func TestValue_ParseValueRejectsInvalidInput(t *testing.T) {
	tests := map[string]struct {
		input string
		want  error
	}{
		"empty":      {"", ErrInvalidValue},
		"empty hex":  {"0x", ErrInvalidValue},
		"not number": {"abc", ErrInvalidValue},
		"float":      {"1.5", ErrInvalidValue},
		"negative":   {"-1", ErrNegativeValue},
		"overflow": {
			"115792089237316195423570985008687907853269984665640564039457584007913129639936",
			ErrValueOverflow,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseValue(test.input)
			if !errors.Is(err, test.want) {
				t.Errorf("unexpected error, want %v, got %v", test.want, err)
			}
		})
	}
}

func TestValue_ValueFromBigIsChecked(t *testing.T) {
	if _, err := ValueFromBig(nil); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("nil should be rejected, got %v", err)
	}
	if _, err := ValueFromBig(big.NewInt(-1)); !errors.Is(err, ErrNegativeValue) {
		t.Errorf("negative values should be rejected, got %v", err)
	}
	tooLarge := new(big.Int).Lsh(big.NewInt(1), 256)
	if _, err := ValueFromBig(tooLarge); !errors.Is(err, ErrValueOverflow) {
		t.Errorf("values exceeding 256 bits should be rejected, got %v", err)
	}
	got, err := ValueFromBig(big.NewInt(123456))
	if err != nil {
		t.Fatalf("failed to convert: %v", err)
	}
	if want := NewValue(123456); want != got {
		t.Errorf("unexpected value, want %v, got %v", want, got)
	}
}

func TestValue_Uint64IsChecked(t *testing.T) {
	got, err := NewValue(math.MaxUint64).Uint64()
	if err != nil {
		t.Fatalf("failed to convert: %v", err)
	}
	if want := uint64(math.MaxUint64); want != got {
		t.Errorf("unexpected value, want %v, got %v", want, got)
	}
	if _, err := NewValue(1, 0).Uint64(); !errors.Is(err, ErrValueOverflow) {
		t.Errorf("expected overflow error, got %v", err)
	}
}

func TestValue_ConversionsRoundTrip(t *testing.T) {
	rnd := rand.New(42)
	for i := 0; i < 100; i++ {
		value := NewValue(rnd.Uint64(), rnd.Uint64(), rnd.Uint64(), rnd.Uint64())

		fromBig, err := ValueFromBig(value.ToBig())
		if err != nil {
			t.Fatalf("failed to convert %v: %v", value, err)
		}
		if want, got := value, fromBig; want != got {
			t.Errorf("big round trip failed, want %v, got %v", want, got)
		}
		if want, got := value, ValueFromUint256(value.ToUint256()); want != got {
			t.Errorf("uint256 round trip failed, want %v, got %v", want, got)
		}
		parsed, err := ParseValue(value.String())
		if err != nil {
			t.Fatalf("failed to parse %v: %v", value, err)
		}
		if want, got := value, parsed; want != got {
			t.Errorf("string round trip failed, want %v, got %v", want, got)
		}
	}
}

func TestValue_ValueFromUint256HandlesNil(t *testing.T) {
	if want, got := (Value{}), ValueFromUint256(nil); want != got {
		t.Errorf("unexpected value, want %v, got %v", want, got)
	}
	if want, got := NewValue(7), ValueFromUint256(uint256.NewInt(7)); want != got {
		t.Errorf("unexpected value, want %v, got %v", want, got)
	}
}

func TestValue_Cmp(t *testing.T) {
	if NewValue(1).Cmp(NewValue(2)) >= 0 {
		t.Errorf("1 should be less than 2")
	}
	if NewValue(1, 0).Cmp(NewValue(math.MaxUint64)) <= 0 {
		t.Errorf("2^64 should be greater than 2^64-1")
	}
	if NewValue(5).Cmp(NewValue(5)) != 0 {
		t.Errorf("equal values should compare equal")
	}
	if !NewValue().IsZero() || NewValue(1).IsZero() {
		t.Errorf("unexpected zero check result")
	}
}

func TestValue_JSONEncodingUsesDecimal(t *testing.T) {
	data, err := json.Marshal(NewValue(123456))
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if want, got := `"123456"`, string(data); want != got {
		t.Errorf("unexpected encoding, want %v, got %v", want, got)
	}

	var decoded Value
	if err := json.Unmarshal([]byte(`"0xff"`), &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if want, got := NewValue(255), decoded; want != got {
		t.Errorf("unexpected value, want %v, got %v", want, got)
	}
	if err := json.Unmarshal([]byte(`"-3"`), &decoded); err == nil {
		t.Errorf("negative values should be rejected")
	}
}
