// Package barcode encodes EAN-13 symbols and renders them as SVG fragments
// or raster images.
package barcode

import (
	"fmt"
	"strings"
)

const (
	// ModuleCount is the number of bar/space modules in an EAN-13 symbol,
	// guards included.
	ModuleCount = 95

	leftGuard   = "101"
	centerGuard = "01010"
	rightGuard  = "101"
)

// Code13 is a complete, checksummed 13-digit EAN code.
type Code13 string

// InvalidCodeError is returned when an input does not carry 12 or 13 digits.
type InvalidCodeError struct {
	Input  string
	Digits int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid EAN-13 input %q: expected 12 or 13 digits, got %d", e.Input, e.Digits)
}

var (
	lCodes = [10]string{
		"0001101", "0011001", "0010011", "0111101", "0100011",
		"0110001", "0101111", "0111011", "0110111", "0001011",
	}
	gCodes = [10]string{
		"0100111", "0110011", "0011011", "0100001", "0011101",
		"0111001", "0000101", "0010001", "0001001", "0010111",
	}
	rCodes = [10]string{
		"1110010", "1100110", "1101100", "1000010", "1011100",
		"1001110", "1010000", "1000100", "1001000", "1110100",
	}
	// parity of the left half, selected by the leading digit
	parity = [10]string{
		"LLLLLL", "LLGLGG", "LLGGLG", "LLGGGL", "LGLLGG",
		"LGGLLG", "LGGGLL", "LGLGLG", "LGLGGL", "LGGLGL",
	}
)

// Checksum computes the check digit for a 12-digit string.
func Checksum(digits string) int {
	sum := 0
	for i := 0; i < 12 && i < len(digits); i++ {
		d := int(digits[i] - '0')
		if i%2 == 0 {
			sum += d
		} else {
			sum += 3 * d
		}
	}
	return (10 - sum%10) % 10
}

// Encode strips non-digit characters from value and returns the checksummed
// code. A 12-digit input is completed; a 13-digit input with a wrong check
// digit is corrected.
func Encode(value string) (Code13, error) {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch len(digits) {
	case 12, 13:
		body := digits[:12]
		return Code13(fmt.Sprintf("%s%d", body, Checksum(body))), nil
	default:
		return "", &InvalidCodeError{Input: value, Digits: len(digits)}
	}
}

// Valid reports whether s is 13 digits with a correct check digit.
func Valid(s string) bool {
	if len(s) != 13 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return int(s[12]-'0') == Checksum(s[:12])
}

func (c Code13) String() string {
	return string(c)
}

// Modules returns the 95 bar/space modules of the symbol, '1' for ink.
func (c Code13) Modules() string {
	s := string(c)
	first := int(s[0] - '0')
	pattern := parity[first]

	var b strings.Builder
	b.Grow(ModuleCount)
	b.WriteString(leftGuard)
	for i := 0; i < 6; i++ {
		d := int(s[1+i] - '0')
		if pattern[i] == 'L' {
			b.WriteString(lCodes[d])
		} else {
			b.WriteString(gCodes[d])
		}
	}
	b.WriteString(centerGuard)
	for i := 0; i < 6; i++ {
		b.WriteString(rCodes[int(s[7+i]-'0')])
	}
	b.WriteString(rightGuard)
	return b.String()
}

// isGuardModule reports whether module index i belongs to a guard pattern.
func isGuardModule(i int) bool {
	return i < 3 || (i >= 45 && i < 50) || i >= 92
}
