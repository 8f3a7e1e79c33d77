// Package codec encodes and decodes the fixed-width little-endian numeric
// types that binlens can search for and rewrite.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"binlens/internal/errs"
)

// Kind identifies one of the supported numeric encodings.
type Kind int

const (
	Float32 Kind = iota
	Int32
	Uint32
	Int16
	Uint16
)

// FloatTolerance is the absolute difference under which two Float32 values
// compare equal. It does not scale with magnitude.
const FloatTolerance = 0.001

// Kinds lists every supported kind in display order.
var Kinds = []Kind{Float32, Int32, Uint32, Int16, Uint16}

// keys maps the user-facing type keys to kinds.
var keys = map[string]Kind{
	"float":          Float32,
	"int":            Int32,
	"unsigned int":   Uint32,
	"short":          Int16,
	"unsigned short": Uint16,
}

// ParseKind resolves a user-facing type key such as "unsigned short".
func ParseKind(key string) (Kind, error) {
	k, ok := keys[key]
	if !ok {
		return 0, fmt.Errorf("unknown type %q: %w", key, errs.ErrInvalidInput)
	}
	return k, nil
}

// Width returns the encoded size in bytes.
func (k Kind) Width() int {
	switch k {
	case Int16, Uint16:
		return 2
	default:
		return 4
	}
}

// Key returns the user-facing type key.
func (k Kind) Key() string {
	switch k {
	case Float32:
		return "float"
	case Int32:
		return "int"
	case Uint32:
		return "unsigned int"
	case Int16:
		return "short"
	case Uint16:
		return "unsigned short"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) String() string {
	switch k {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a number tagged with its kind. Integer kinds use i or u
// depending on signedness; Float32 uses f.
type Value struct {
	kind Kind
	f    float32
	i    int64
	u    uint64
}

func FromFloat32(v float32) Value { return Value{kind: Float32, f: v} }
func FromInt32(v int32) Value     { return Value{kind: Int32, i: int64(v)} }
func FromUint32(v uint32) Value   { return Value{kind: Uint32, u: uint64(v)} }
func FromInt16(v int16) Value     { return Value{kind: Int16, i: int64(v)} }
func FromUint16(v uint16) Value   { return Value{kind: Uint16, u: uint64(v)} }

// Kind returns the value's type tag.
func (v Value) Kind() Kind { return v.kind }

func (v Value) Float32() float32 { return v.f }
func (v Value) Int() int64       { return v.i }
func (v Value) Uint() uint64     { return v.u }

func (v Value) String() string {
	switch v.kind {
	case Float32:
		return strconv.FormatFloat(float64(v.f), 'g', -1, 32)
	case Int32, Int16:
		return strconv.FormatInt(v.i, 10)
	default:
		return strconv.FormatUint(v.u, 10)
	}
}

// Matches reports whether other is equal to v under the comparison rule of
// v's kind: absolute tolerance for Float32, exact equality otherwise.
// Values of different kinds never match.
func (v Value) Matches(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case Float32:
		return math.Abs(float64(other.f)-float64(v.f)) < FloatTolerance
	case Int32, Int16:
		return v.i == other.i
	default:
		return v.u == other.u
	}
}

// Encode returns the little-endian encoding of v, Width() bytes long.
func Encode(v Value) []byte {
	out := make([]byte, v.kind.Width())
	switch v.kind {
	case Float32:
		binary.LittleEndian.PutUint32(out, math.Float32bits(v.f))
	case Int32:
		binary.LittleEndian.PutUint32(out, uint32(int32(v.i)))
	case Uint32:
		binary.LittleEndian.PutUint32(out, uint32(v.u))
	case Int16:
		binary.LittleEndian.PutUint16(out, uint16(int16(v.i)))
	case Uint16:
		binary.LittleEndian.PutUint16(out, uint16(v.u))
	}
	return out
}

// Decode interprets window as kind. Every bit pattern is valid; the only
// failure is a window whose length is not kind.Width().
func Decode(kind Kind, window []byte) (Value, error) {
	if len(window) != kind.Width() {
		return Value{}, fmt.Errorf("decode %s from %d bytes: %w", kind, len(window), errs.ErrOutOfBounds)
	}
	return decode(kind, window), nil
}

// decode assumes len(window) == kind.Width().
func decode(kind Kind, window []byte) Value {
	switch kind {
	case Float32:
		return FromFloat32(math.Float32frombits(binary.LittleEndian.Uint32(window)))
	case Int32:
		return FromInt32(int32(binary.LittleEndian.Uint32(window)))
	case Uint32:
		return FromUint32(binary.LittleEndian.Uint32(window))
	case Int16:
		return FromInt16(int16(binary.LittleEndian.Uint16(window)))
	default:
		return FromUint16(binary.LittleEndian.Uint16(window))
	}
}

// Parse reads a value of the given kind from user-supplied text. Floats
// accept decimal and scientific notation; integers accept base-10 digits,
// with an optional sign for signed kinds.
func Parse(kind Kind, text string) (Value, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Value{}, fmt.Errorf("empty %s value: %w", kind.Key(), errs.ErrInvalidInput)
	}

	switch kind {
	case Float32:
		// Hex floats, digit separators, NaN and Inf are valid Go syntax but
		// not decimal notation.
		if strings.ContainsAny(text, "xXpPnN_") {
			return Value{}, fmt.Errorf("%q is not a valid %s: %w", text, kind.Key(), errs.ErrInvalidInput)
		}
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return Value{}, parseError(kind, text, err)
		}
		return FromFloat32(float32(f)), nil
	case Int32, Int16:
		n, err := strconv.ParseInt(text, 10, kind.Width()*8)
		if err != nil {
			return Value{}, parseError(kind, text, err)
		}
		if kind == Int16 {
			return FromInt16(int16(n)), nil
		}
		return FromInt32(int32(n)), nil
	case Uint32, Uint16:
		n, err := strconv.ParseUint(text, 10, kind.Width()*8)
		if err != nil {
			return Value{}, parseError(kind, text, err)
		}
		if kind == Uint16 {
			return FromUint16(uint16(n)), nil
		}
		return FromUint32(uint32(n)), nil
	default:
		return Value{}, fmt.Errorf("unsupported kind %s: %w", kind, errs.ErrInvalidInput)
	}
}

func parseError(kind Kind, text string, err error) error {
	var nerr *strconv.NumError
	if errors.As(err, &nerr) {
		switch {
		case errors.Is(nerr.Err, strconv.ErrRange):
			return fmt.Errorf("%s %q out of range: %w", kind.Key(), text, errs.ErrInvalidInput)
		case errors.Is(nerr.Err, strconv.ErrSyntax):
			return fmt.Errorf("%q is not a valid %s: %w", text, kind.Key(), errs.ErrInvalidInput)
		}
	}
	return fmt.Errorf("invalid %s %q: %v: %w", kind.Key(), text, err, errs.ErrInvalidInput)
}
