package crypto

import (
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
)

const (
	// PublicKeySize is the length of a raw service public key
	PublicKeySize = 32

	// AddressVersion is the only address version understood by this codec
	AddressVersion = 3

	// AddressSize is the decoded length of an address: key, checksum, version
	AddressSize = PublicKeySize + ChecksumSize + 1

	// AddressSuffix is appended to every encoded address
	AddressSuffix = ".onion"
)

var (
	ErrDecode = errors.New("address decode failed")
	ErrEncode = errors.New("address encode failed")

	ErrInvalidEncoding    = fmt.Errorf("%w: invalid base32", ErrDecode)
	ErrInvalidLength      = fmt.Errorf("%w: invalid base32 length", ErrDecode)
	ErrUnsupportedVersion = fmt.Errorf("%w: invalid version", ErrDecode)
	ErrChecksumMismatch   = fmt.Errorf("%w: invalid checksum", ErrDecode)

	ErrInvalidKeyLength = fmt.Errorf("%w: invalid pubkey length", ErrEncode)
)

// addressEncoding is RFC 4648 base32 without padding
var addressEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// PublicKey identifies a peer of the relay service
type PublicKey [PublicKeySize]byte

// ParsePublicKey copies a raw 32-byte key
func ParsePublicKey(b []byte) (PublicKey, error) {
	var key PublicKey
	if len(b) != PublicKeySize {
		return key, ErrInvalidKeyLength
	}
	copy(key[:], b)
	return key, nil
}

// Address returns the service address of the key
func (k PublicKey) Address() string {
	addr, _ := EncodeAddress(k[:])
	return addr
}

// Label returns the key as lowercase unpadded base32, without checksum or
// version. The relay uses this form in query strings.
func (k PublicKey) Label() string {
	return strings.ToLower(addressEncoding.EncodeToString(k[:]))
}

// DecodeKeyLabel parses the output of PublicKey.Label
func DecodeKeyLabel(label string) (PublicKey, error) {
	raw, err := addressEncoding.DecodeString(strings.ToUpper(label))
	if err != nil {
		return PublicKey{}, ErrInvalidEncoding
	}
	if len(raw) != PublicKeySize {
		return PublicKey{}, ErrInvalidLength
	}
	var key PublicKey
	copy(key[:], raw)
	return key, nil
}

// String implements fmt.Stringer
func (k PublicKey) String() string {
	return k.Address()
}

// IsZero reports whether every byte of the key is zero
func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}

// DecodeAddress extracts the public key from a service address. Anything
// from the first '.' on is ignored.
func DecodeAddress(text string) (PublicKey, error) {
	var key PublicKey

	label, _, _ := strings.Cut(text, ".")
	raw, err := addressEncoding.DecodeString(strings.ToUpper(label))
	if err != nil {
		return key, ErrInvalidEncoding
	}

	if len(raw) < AddressSize {
		return key, ErrInvalidLength
	}

	if raw[AddressSize-1] != AddressVersion {
		return key, ErrUnsupportedVersion
	}

	sum := AddressChecksum(raw[:PublicKeySize], AddressVersion)
	if raw[PublicKeySize] != sum[0] || raw[PublicKeySize+1] != sum[1] {
		return key, ErrChecksumMismatch
	}

	copy(key[:], raw[:PublicKeySize])
	return key, nil
}

// EncodeAddress builds the service address for a raw public key
func EncodeAddress(key []byte) (string, error) {
	if len(key) != PublicKeySize {
		return "", ErrInvalidKeyLength
	}

	sum := AddressChecksum(key, AddressVersion)

	raw := make([]byte, 0, AddressSize)
	raw = append(raw, key...)
	raw = append(raw, sum[:]...)
	raw = append(raw, AddressVersion)

	return strings.ToLower(addressEncoding.EncodeToString(raw)) + AddressSuffix, nil
}
