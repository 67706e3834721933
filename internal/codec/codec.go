// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package codec provides the canonical encoding and storage-key hashing
// conventions named in spec.md §6: "Values are canonical encodings of
// typed structs" and "Keys are tuples with hash kinds: Blake2-128-concat
// for user-controlled keys; Identity for integer keys."
package codec

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/minio/blake2b-simd"
)

// Encode produces the canonical RLP encoding of v, used wherever the
// persisted-state contract requires a deterministic byte representation
// (e.g. RPC return values per spec.md §6, or hashing a struct for a
// commit in core/overwatch).
func Encode(v interface{}) ([]byte, error) {
	return rlp.EncodeToBytes(v)
}

// Decode is the inverse of Encode.
func Decode(data []byte, v interface{}) error {
	return rlp.DecodeBytes(data, v)
}

// Blake2_128 hashes data with a 128-bit (16-byte) blake2b digest: the
// first 16 bytes of blake2b-256, matching the truncation convention
// Substrate-style chains use for their "Blake2_128" storage hasher. This
// is the exact primitive spec.md §4.K names for commit-reveal binding:
// blake2_128(weight ∥ salt).
func Blake2_128(data []byte) [16]byte {
	full := blake2b.Sum256(data)
	var out [16]byte
	copy(out[:], full[:16])
	return out
}

// Blake2128Concat implements the "Blake2-128-concat" storage hasher named
// in spec.md §6: the 16-byte blake2b digest of the key's canonical
// encoding, concatenated with the encoding itself (so the preimage can be
// recovered from a storage iteration the way Substrate-style storage maps
// allow key enumeration without a separate index).
func Blake2128Concat(keyEncoded []byte) []byte {
	digest := Blake2_128(keyEncoded)
	out := make([]byte, 0, len(digest)+len(keyEncoded))
	out = append(out, digest[:]...)
	out = append(out, keyEncoded...)
	return out
}

// IdentityKey implements the "Identity" hash kind named in spec.md §6 for
// integer keys: the big-endian encoding of the integer itself, with no
// hashing (the key IS its own encoding, guaranteeing ordered iteration).
func IdentityKey(id uint64) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, id)
	return out
}
