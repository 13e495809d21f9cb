package frame

import (
	"crypto/md5"
	"encoding/hex"
)

// IdentifierSize is the length in bytes of every channel identifier.
const IdentifierSize = md5.Size

// Identifier is the digest of a channel name that prefixes every frame
// sent on that channel.
type Identifier [IdentifierSize]byte

// ComputeIdentifier derives the identifier for a channel name.
func ComputeIdentifier(name string) Identifier {
	return Identifier(md5.Sum([]byte(name)))
}

func (id Identifier) String() string {
	return hex.EncodeToString(id[:])
}
