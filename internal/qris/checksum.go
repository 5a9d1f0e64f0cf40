package qris

import "fmt"

const (
	crcPoly = 0x1021
	crcInit = 0xFFFF
)

// CRC16 is a streaming CRC-16/CCITT-FALSE calculator (poly 0x1021, init
// 0xFFFF, no reflection, no final xor), the checksum QRIS places in tag 63.
type CRC16 struct {
	value uint16
}

// NewCRC16 returns a calculator primed with the initial register value.
func NewCRC16() *CRC16 {
	return &CRC16{value: crcInit}
}

// Write feeds p into the register.
func (c *CRC16) Write(p []byte) {
	if c == nil {
		return
	}
	for _, b := range p {
		c.value ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if c.value&0x8000 != 0 {
				c.value = (c.value << 1) ^ crcPoly
			} else {
				c.value <<= 1
			}
		}
	}
}

// Sum16 returns the current register value.
func (c *CRC16) Sum16() uint16 {
	if c == nil {
		return 0
	}
	return c.value
}

// Checksum computes the CRC of s and formats it as four uppercase hex digits.
func Checksum(s string) string {
	calc := NewCRC16()
	calc.Write([]byte(s))
	return fmt.Sprintf("%04X", calc.Sum16())
}
