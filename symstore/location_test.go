package symstore

import "testing"

// TestLocationDescriptorWireRoundTrip exercises the wire forms from spec 6:
// hex image offsets, @register, register-relative, and
// register-relative-indirect, each round-tripped through String and
// ParseLocationDescriptor.
func TestLocationDescriptorWireRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		loc  LocationDescriptor
		wire string
	}{
		{"image offset", ImageOffset(0x1000), "1000"},
		{"register", LocationDescriptor{Kind: LocRegister, Register: "rax"}, "@rax"},
		{"register relative positive", LocationDescriptor{Kind: LocRegisterRelative, Register: "rbp", RelOffset: 0x10}, "[@rbp + 10]"},
		{"register relative negative", LocationDescriptor{Kind: LocRegisterRelative, Register: "rbp", RelOffset: -0x8}, "[@rbp - 8]"},
		{"register relative indirect", LocationDescriptor{Kind: LocRegisterRelativeIndirect, Register: "rbp", RelOffset: 0x10, PostOffset: -0x4}, "[@rbp + 10] - 4"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.loc.String(); got != c.wire {
				t.Fatalf("String() = %q, want %q", got, c.wire)
			}

			parsed, err := ParseLocationDescriptor(c.wire)
			if err != nil {
				t.Fatalf("ParseLocationDescriptor(%q): %v", c.wire, err)
			}

			if parsed != c.loc {
				t.Errorf("round trip = %+v, want %+v", parsed, c.loc)
			}
		})
	}
}

// TestParseLocationDescriptorRejectsMalformed verifies a handful of
// malformed wire strings are rejected rather than silently misparsed.
func TestParseLocationDescriptorRejectsMalformed(t *testing.T) {
	cases := []string{
		"[@rbp + 10",    // unterminated
		"[rbp + 10]",    // missing @
		"not-hex",       // bad image offset
		"[@rbp + zzzz]", // bad offset term
	}

	for _, in := range cases {
		if _, err := ParseLocationDescriptor(in); err == nil {
			t.Errorf("ParseLocationDescriptor(%q) = nil error, want error", in)
		}
	}
}

// TestConstantSuccessorWraparound exercises successor() wraparound across
// every packed constant width, both signed and unsigned.
func TestConstantSuccessorWraparound(t *testing.T) {
	cases := []struct {
		name string
		in   ConstantValue
		want ConstantValue
	}{
		{"i1 wraps", ConstantValue{Kind: ConstI1, I: 127}, ConstantValue{Kind: ConstI1, I: -128}},
		{"i1 normal", ConstantValue{Kind: ConstI1, I: 5}, ConstantValue{Kind: ConstI1, I: 6}},
		{"u1 wraps", ConstantValue{Kind: ConstU1, U: 255}, ConstantValue{Kind: ConstU1, U: 0}},
		{"i4 wraps", ConstantValue{Kind: ConstI4, I: 1<<31 - 1}, ConstantValue{Kind: ConstI4, I: -(1 << 31)}},
		{"u4 wraps", ConstantValue{Kind: ConstU4, U: 1<<32 - 1}, ConstantValue{Kind: ConstU4, U: 0}},
		{"u8 wraps", ConstantValue{Kind: ConstU8, U: ^uint64(0)}, ConstantValue{Kind: ConstU8, U: 0}},
		{"i8 wraps", ConstantValue{Kind: ConstI8, I: 1<<63 - 1}, ConstantValue{Kind: ConstI8, I: -(1 << 63)}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := c.in.successor()
			if got != c.want {
				t.Errorf("successor(%+v) = %+v, want %+v", c.in, got, c.want)
			}
		})
	}
}

// TestZeroConstantPreservesKind verifies the first auto-increment
// enumerant's zero value carries its packing kind (spec 3).
func TestZeroConstantPreservesKind(t *testing.T) {
	z := zeroConstant(ConstU2)
	if z.Kind != ConstU2 || z.U != 0 {
		t.Errorf("zeroConstant(ConstU2) = %+v, want Kind=ConstU2 U=0", z)
	}
}
