// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package keys holds the two immutable key tables used by the robot
// authentication handshake and the 16-bit checksum arithmetic built on
// top of them.
package keys

import "fmt"

// Server and client key tables, indexed by KeyId (0..4). Process-wide,
// immutable, safely shared across every session without locking.
var (
	Server = [5]uint16{23019, 32037, 18789, 16443, 18189}
	Client = [5]uint16{32037, 29295, 13603, 29533, 21952}
)

// MaxKeyID is the highest valid KeyId; anything above it is
// KeyOutOfRangeError territory.
const MaxKeyID = 4

// Hash sums the raw bytes of the name (no trimming, no case folding)
// and multiplies by 1000, all mod 2^16.
func Hash(name string) uint16 {
	var sum uint32
	for i := 0; i < len(name); i++ {
		sum += uint32(name[i])
	}
	return uint16((sum * 1000) & 0xFFFF)
}

// Confirmation computes the value the server sends back after a name
// hash and a chosen key id: (hash + Server[keyID]) mod 2^16.
func Confirmation(hash uint16, keyID int) (uint16, error) {
	if keyID < 0 || keyID > MaxKeyID {
		return 0, fmt.Errorf("keys: key id %d out of range [0,%d]", keyID, MaxKeyID)
	}
	return hash + Server[keyID], nil
}

// Verify reports whether the client's confirm value matches the
// expected hash for the given key id: (confirm - Client[keyID]) mod 2^16 == hash.
func Verify(hash uint16, keyID int, confirm uint16) (bool, error) {
	if keyID < 0 || keyID > MaxKeyID {
		return false, fmt.Errorf("keys: key id %d out of range [0,%d]", keyID, MaxKeyID)
	}
	return confirm-Client[keyID] == hash, nil
}
