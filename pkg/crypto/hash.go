package crypto

import (
	"golang.org/x/crypto/sha3"
)

const (
	// ChecksumPrefix domain-separates the address checksum from any other
	// use of SHA3-256 over the same key material.
	ChecksumPrefix = ".onion checksum"

	// ChecksumSize is the number of hash bytes kept in an address
	ChecksumSize = 2
)

// Hash generates a SHA3-256 hash over the concatenation of parts
func Hash(parts ...[]byte) []byte {
	hash := sha3.New256()
	for _, part := range parts {
		hash.Write(part)
	}
	return hash.Sum(nil)
}

// AddressChecksum computes the two checksum bytes embedded in a service
// address for the given key and version.
func AddressChecksum(key []byte, version byte) [ChecksumSize]byte {
	var sum [ChecksumSize]byte
	copy(sum[:], Hash([]byte(ChecksumPrefix), key, []byte{version}))
	return sum
}
