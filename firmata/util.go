// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package firmata

// Firmata data bytes carry 7 bits. Wider values are split LSB first.
const (
	SevenBitMask byte   = 0b01111111
	MaxUInt14    uint16 = 1<<14 - 1
)

func TwoByteToByte(a, b byte) byte {
	return (a & SevenBitMask) | ((b & SevenBitMask) << 7)
}

func TwoByteToWord(a, b byte) uint16 {
	return uint16(a&SevenBitMask) | (uint16(b&SevenBitMask) << 7)
}

func ByteToTwoByte(b byte) (lsb, msb byte) {
	return b & SevenBitMask, (b >> 7) & SevenBitMask
}

func WordToTwoByte(w uint16) (lsb, msb byte) {
	return byte(w) & SevenBitMask, byte(w>>7) & SevenBitMask
}

// TwoByteRepresentationToByteSlice joins pairs of 7 bit bytes. An odd
// trailing byte is treated as a pair with a zero MSB.
func TwoByteRepresentationToByteSlice(bytes []byte) []byte {
	d := make([]byte, (len(bytes)+1)/2)
	for i := range d {
		var msb byte
		if 2*i+1 < len(bytes) {
			msb = bytes[2*i+1]
		}
		d[i] = TwoByteToByte(bytes[2*i], msb)
	}
	return d
}

func ByteSliceToTwoByteRepresentation(bytes []byte) []byte {
	d := make([]byte, 0, len(bytes)*2)
	for _, b := range bytes {
		lsb, msb := ByteToTwoByte(b)
		d = append(d, lsb, msb)
	}
	return d
}

// TwoByteString decodes a string sent with 14 bits per character.
func TwoByteString(bytes []byte) string {
	return string(TwoByteRepresentationToByteSlice(bytes))
}
