package script

import (
	"errors"
)

// Maximum length of a stack element that is interpreted as a number.
const maxNumLen = 4

var errNumTooLong = errors.New("numeric operand exceeds 4 bytes")

// Encodes n as a minimal little-endian sign-magnitude script number.
// Zero is the empty byte string.
func encodeNum(n int64) []byte {
	if n == 0 {
		return nil
	}
	neg := n < 0
	m := uint64(n)
	if neg {
		m = uint64(-n)
	}
	var ret []byte
	for m > 0 {
		ret = append(ret, byte(m))
		m >>= 8
	}
	if ret[len(ret)-1]&0x80 != 0 {
		if neg {
			ret = append(ret, 0x80)
		} else {
			ret = append(ret, 0x00)
		}
	} else if neg {
		ret[len(ret)-1] |= 0x80
	}
	return ret
}

// Interprets buf as a script number of at most maxLen bytes.
func decodeNum(buf []byte, maxLen int) (int64, error) {
	if len(buf) > maxLen {
		return 0, errNumTooLong
	}
	if len(buf) == 0 {
		return 0, nil
	}
	var ret int64
	for i, b := range buf {
		ret |= int64(b) << uint(8*i)
	}
	last := len(buf) - 1
	if buf[last]&0x80 != 0 {
		ret &= ^(int64(0x80) << uint(8*last))
		return -ret, nil
	}
	return ret, nil
}

// Returns whether the stack element counts as true: anything except
// (negative) zero.
func asBool(buf []byte) bool {
	for i, b := range buf {
		if b != 0 {
			if i == len(buf)-1 && b == 0x80 {
				return false
			}
			return true
		}
	}
	return false
}
