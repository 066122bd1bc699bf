// Package pointer resolves address tokens and dereferences typed structures
// from target memory. Every structure read funnels through Resolver so that
// corruption is detected in one place.
package pointer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Bitness is the address width of the inspected target.
type Bitness int

const (
	Bits32 Bitness = 32
	Bits64 Bitness = 64
)

// BitnessOf converts an address width in bits.
func BitnessOf(bits int) (Bitness, error) {
	switch Bitness(bits) {
	case Bits32, Bits64:
		return Bitness(bits), nil
	}
	return 0, fmt.Errorf("unsupported bitness %d (want 32 or 64)", bits)
}

// PointerSize returns the size of a target pointer in bytes.
func (b Bitness) PointerSize() uint64 {
	return uint64(b) / 8
}

func (b Bitness) String() string {
	return strconv.Itoa(int(b)) + "-bit"
}

// Address identifies a location in target memory. It may be invalid.
type Address uint64

// IsNull reports whether the address is zero.
func (a Address) IsNull() bool {
	return a == 0
}

// Add offsets the address, wrapping like target pointer arithmetic.
func (a Address) Add(off uint64) Address {
	return a + Address(off)
}

func (a Address) String() string {
	return fmt.Sprintf("0x%x", uint64(a))
}

// InvalidAddressError reports a malformed address token.
type InvalidAddressError struct {
	Token  string
	Reason string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %s", e.Token, e.Reason)
}

// ParseAddress parses a hexadecimal address token, with or without a 0x
// prefix. Values that do not fit the target bitness are rejected.
func ParseAddress(token string, bits Bitness) (Address, error) {
	if bits != Bits32 && bits != Bits64 {
		return 0, &InvalidAddressError{Token: token, Reason: "unknown target bitness " + strconv.Itoa(int(bits))}
	}

	digits := strings.TrimSpace(token)
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		digits = digits[2:]
	}
	if digits == "" {
		return 0, &InvalidAddressError{Token: token, Reason: "empty"}
	}

	v, err := strconv.ParseUint(digits, 16, int(bits))
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &InvalidAddressError{Token: token, Reason: "does not fit in a " + bits.String() + " address"}
		}
		return 0, &InvalidAddressError{Token: token, Reason: "not a hexadecimal number"}
	}
	return Address(v), nil
}
