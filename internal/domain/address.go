package domain

import "fmt"

// Address is a LoRaMesher node address.
type Address uint16

// AddressFromBytes rebuilds an address from its trailer bytes.
func AddressFromBytes(high, low byte) Address {
	return Address(uint16(high)<<8 | uint16(low))
}

// High returns addr / 256.
func (a Address) High() byte {
	return byte(a >> 8)
}

// Low returns addr % 256.
func (a Address) Low() byte {
	return byte(a & 0xff)
}

// String formats the address the way the mesher prints it.
func (a Address) String() string {
	return fmt.Sprintf("%x", uint16(a))
}
