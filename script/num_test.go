package script

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestEncodeNum(t *testing.T) {
	for _, tc := range []struct {
		n      int64
		expect string
	}{
		{0, ""},
		{1, "01"},
		{-1, "81"},
		{16, "10"},
		{127, "7f"},
		{128, "8000"},
		{-128, "8080"},
		{255, "ff00"},
		{256, "0001"},
		{-256, "0081"},
		{60, "3c"},
		{32767, "ff7f"},
		{32768, "008000"},
	} {
		val := hex.EncodeToString(encodeNum(tc.n))
		if val != tc.expect {
			t.Errorf("encodeNum(%d) = %s instead of %s", tc.n, val, tc.expect)
		}
		n, err := decodeNum(encodeNum(tc.n), maxNumLen)
		if err != nil {
			t.Errorf("decodeNum(%s): %v", tc.expect, err)
			continue
		}
		if n != tc.n {
			t.Errorf("decodeNum(%s) = %d instead of %d", tc.expect, n, tc.n)
		}
	}
}

func TestDecodeNumTooLong(t *testing.T) {
	if _, err := decodeNum([]byte{1, 2, 3, 4, 5}, maxNumLen); err != errNumTooLong {
		t.Fatalf("decodeNum accepted a 5 byte operand")
	}
	n, err := decodeNum([]byte{0xff, 0xff, 0xff, 0x7f}, maxNumLen)
	if err != nil || n != 0x7fffffff {
		t.Fatalf("decodeNum(ffffff7f) = %d, %v", n, err)
	}
}

func TestAsBool(t *testing.T) {
	for _, v := range [][]byte{nil, {0}, {0, 0}, {0x80}, {0, 0x80}} {
		if asBool(v) {
			t.Errorf("%x should be false", v)
		}
	}
	for _, v := range [][]byte{{1}, {0x81}, {0x80, 0}, {0, 1}} {
		if !asBool(v) {
			t.Errorf("%x should be true", v)
		}
	}
	if !bytes.Equal(encodeNum(1), []byte{1}) {
		t.Errorf("true is not encoded as 01")
	}
}
