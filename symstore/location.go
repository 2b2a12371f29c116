package symstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/orizon-lang/symbuilder/symstore/symerr"
)

// LocationKind discriminates the location-descriptor variants a data
// symbol may carry (spec 4.3).
type LocationKind uint8

const (
	LocStructureOffset LocationKind = iota + 1
	LocAutoAppend
	LocConstant
	LocAutoIncrementConstant
	LocImageOffset
	LocRegister
	LocRegisterRelative
	LocRegisterRelativeIndirect
)

// ConstantKind discriminates the packed representation of a constant
// value (spec 4.3's i1..i8/u1..u8/bool variant set).
type ConstantKind uint8

const (
	ConstEmpty ConstantKind = iota
	ConstBool
	ConstI1
	ConstI2
	ConstI4
	ConstI8
	ConstU1
	ConstU2
	ConstU4
	ConstU8
)

// ConstantValue is the tagged variant used for constant-valued data
// symbols (enumerants, and values discovered during import). Empty is the
// placeholder used for auto-increment enumerants prior to the layout pass.
type ConstantValue struct {
	Kind ConstantKind
	I    int64
	U    uint64
	B    bool
}

func (c ConstantValue) signed() bool {
	switch c.Kind {
	case ConstI1, ConstI2, ConstI4, ConstI8:
		return true
	default:
		return false
	}
}

// bitWidth returns the bit width of the packed representation, used to
// implement wrapping successor arithmetic for auto-increment enumerants.
func (c ConstantKind) bitWidth() uint {
	switch c {
	case ConstI1, ConstU1:
		return 8
	case ConstI2, ConstU2:
		return 16
	case ConstI4, ConstU4:
		return 32
	case ConstI8, ConstU8:
		return 64
	case ConstBool:
		return 8
	default:
		return 0
	}
}

// successor returns c+1 wrapped per the underlying intrinsic's bit width
// (spec 8: "wrapping on overflow per the underlying intrinsic's rules").
func (c ConstantValue) successor() ConstantValue {
	width := c.Kind.bitWidth()
	if width == 0 {
		return ConstantValue{Kind: c.Kind}
	}

	if c.signed() {
		mask := int64(1)<<width - 1
		next := (c.I + 1) << (64 - width) >> (64 - width)
		_ = mask

		return ConstantValue{Kind: c.Kind, I: next}
	}

	mask := uint64(1)<<width - 1
	if width == 64 {
		mask = ^uint64(0)
	}

	return ConstantValue{Kind: c.Kind, U: (c.U + 1) & mask}
}

// zeroConstant returns the 0 value for the given constant kind, used for the
// first auto-increment enumerant (spec 3).
func zeroConstant(kind ConstantKind) ConstantValue {
	return ConstantValue{Kind: kind}
}

// LocationDescriptor is the tagged union describing where a data symbol
// lives: a structure-relative offset, the auto-append layout sentinel, a
// constant (possibly an unresolved auto-increment), an image-relative
// offset, or one of the register-based forms used by parameters/locals.
type LocationDescriptor struct {
	Kind LocationKind

	// LocStructureOffset, LocImageOffset
	Offset int64

	// LocConstant, LocAutoIncrementConstant (resolved value after layout)
	Constant ConstantValue

	// LocRegister, LocRegisterRelative, LocRegisterRelativeIndirect
	Register   string
	RelOffset  int64 // pre-offset for indirect, the sole offset otherwise
	PostOffset int64 // post-offset, indirect only
}

// AutoAppend is the automatic-layout sentinel location descriptor.
func AutoAppend() LocationDescriptor { return LocationDescriptor{Kind: LocAutoAppend} }

// ExplicitOffset builds a structure-relative explicit-offset descriptor.
func ExplicitOffset(off int64) LocationDescriptor {
	return LocationDescriptor{Kind: LocStructureOffset, Offset: off}
}

// ImageOffset builds an image-relative (global data) descriptor.
func ImageOffset(off int64) LocationDescriptor {
	return LocationDescriptor{Kind: LocImageOffset, Offset: off}
}

// Constant builds a resolved constant-value descriptor.
func Constant(v ConstantValue) LocationDescriptor {
	return LocationDescriptor{Kind: LocConstant, Constant: v}
}

// AutoIncrement builds the auto-increment enumerant sentinel, carrying the
// packing kind it will eventually be resolved to.
func AutoIncrement(kind ConstantKind) LocationDescriptor {
	return LocationDescriptor{Kind: LocAutoIncrementConstant, Constant: zeroConstant(kind)}
}

// String renders the canonical wire form described in spec 6.
func (l LocationDescriptor) String() string {
	switch l.Kind {
	case LocImageOffset, LocStructureOffset:
		return fmt.Sprintf("%x", uint64(l.Offset))
	case LocRegister:
		return "@" + l.Register
	case LocRegisterRelative:
		return fmt.Sprintf("[@%s %s]", l.Register, signedHex(l.RelOffset))
	case LocRegisterRelativeIndirect:
		return fmt.Sprintf("[@%s %s] %s", l.Register, signedHex(l.RelOffset), signedHex(l.PostOffset))
	case LocConstant, LocAutoIncrementConstant:
		return fmt.Sprintf("const(%v)", l.Constant)
	case LocAutoAppend:
		return "auto"
	default:
		return "?"
	}
}

func signedHex(v int64) string {
	if v < 0 {
		return fmt.Sprintf("- %x", -v)
	}

	return fmt.Sprintf("+ %x", v)
}

// ParseLocationDescriptor parses the wire forms from spec 6: hex "NNNN" for
// an image virtual address, "@regname" for a register, "[@regname ± NNNN]"
// for register-relative memory, and "[@regname ± NNNN] ± NNNN" for
// register-relative-indirect with pre- and post-offset.
func ParseLocationDescriptor(s string) (LocationDescriptor, error) {
	s = strings.TrimSpace(s)

	switch {
	case strings.HasPrefix(s, "@"):
		return LocationDescriptor{Kind: LocRegister, Register: s[1:]}, nil

	case strings.HasPrefix(s, "["):
		closeIdx := strings.IndexByte(s, ']')
		if closeIdx < 0 {
			return LocationDescriptor{}, symerr.InvalidArgumentf("BAD_LOCATION", map[string]interface{}{"input": s}, "unterminated register-relative expression %q", s)
		}

		inner := strings.TrimSpace(s[1:closeIdx])
		if !strings.HasPrefix(inner, "@") {
			return LocationDescriptor{}, symerr.InvalidArgumentf("BAD_LOCATION", map[string]interface{}{"input": s}, "register-relative expression missing @register: %q", s)
		}

		reg, pre, err := splitRegAndOffset(inner[1:])
		if err != nil {
			return LocationDescriptor{}, err
		}

		rest := strings.TrimSpace(s[closeIdx+1:])
		if rest == "" {
			return LocationDescriptor{Kind: LocRegisterRelative, Register: reg, RelOffset: pre}, nil
		}

		post, err := parseSignedHexTerm(rest)
		if err != nil {
			return LocationDescriptor{}, err
		}

		return LocationDescriptor{Kind: LocRegisterRelativeIndirect, Register: reg, RelOffset: pre, PostOffset: post}, nil

	default:
		v, err := strconv.ParseUint(s, 16, 64)
		if err != nil {
			return LocationDescriptor{}, symerr.InvalidArgumentf("BAD_LOCATION", map[string]interface{}{"input": s}, "cannot parse location descriptor %q: %v", s, err)
		}

		return LocationDescriptor{Kind: LocImageOffset, Offset: int64(v)}, nil
	}
}

// splitRegAndOffset splits "regname ± NNNN" (offset optional) into the
// register name and a signed offset.
func splitRegAndOffset(s string) (string, int64, error) {
	s = strings.TrimSpace(s)

	if i := strings.IndexAny(s, "+-"); i > 0 {
		reg := strings.TrimSpace(s[:i])
		off, err := parseSignedHexTerm(s[i:])

		return reg, off, err
	}

	return s, 0, nil
}

func parseSignedHexTerm(s string) (int64, error) {
	s = strings.TrimSpace(s)

	neg := false
	if strings.HasPrefix(s, "+") {
		s = strings.TrimSpace(s[1:])
	} else if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(s[1:])
	}

	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, symerr.InvalidArgumentf("BAD_LOCATION", map[string]interface{}{"input": s}, "cannot parse offset term %q: %v", s, err)
	}

	if neg {
		return -int64(v), nil
	}

	return int64(v), nil
}
