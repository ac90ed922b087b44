package records

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

type hasher struct{ h hash.Hash }

func newHasher() *hasher { return &hasher{h: sha256.New()} }

// add writes length-prefixed fields so that field boundaries are part of
// the digest.
func (h *hasher) add(path, id string, data []byte) {
	for _, b := range [][]byte{[]byte(path), []byte(id), data} {
		h.h.Write(binary.LittleEndian.AppendUint64(nil, uint64(len(b))))
		h.h.Write(b)
	}
}

func (h *hasher) sum() string { return hex.EncodeToString(h.h.Sum(nil)) }
