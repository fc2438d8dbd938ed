// Package ethaddr validates and normalizes hex account addresses,
// including EIP-55 mixed-case checksum encoding.
package ethaddr

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

const hexLen = 40

// IsHex reports whether addr is a 0x-prefixed 20-byte hex string,
// ignoring letter case.
func IsHex(addr string) bool {
	if !strings.HasPrefix(addr, "0x") && !strings.HasPrefix(addr, "0X") {
		return false
	}
	body := addr[2:]
	if len(body) != hexLen {
		return false
	}
	_, err := hex.DecodeString(body)
	return err == nil
}

// Checksum returns the EIP-55 mixed-case encoding of addr. addr must already
// be a valid hex address.
func Checksum(addr string) string {
	body := strings.ToLower(addr[2:])
	hash := keccak256([]byte(body))

	out := make([]byte, hexLen)
	for i := 0; i < hexLen; i++ {
		c := body[i]
		if c >= 'a' && c <= 'f' {
			// Uppercase when the corresponding hash nibble is >= 8.
			nibble := hash[i/2]
			if i%2 == 0 {
				nibble >>= 4
			}
			if nibble&0x0f >= 8 {
				c = c - 'a' + 'A'
			}
		}
		out[i] = c
	}
	return "0x" + string(out)
}

// IsValid reports whether addr is a well-formed address. All-lowercase and
// all-uppercase bodies are accepted without a checksum; mixed-case bodies must
// carry a correct EIP-55 checksum.
func IsValid(addr string) bool {
	if !IsHex(addr) {
		return false
	}
	body := addr[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return Checksum(addr) == "0x"+body
}

// Normalize returns the checksummed form of a valid address, or the input
// unchanged if it is not a valid address.
func Normalize(addr string) string {
	if !IsHex(addr) {
		return addr
	}
	return Checksum(addr)
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}
