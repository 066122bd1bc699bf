package hashtable

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// HashRule is the hashing function a table declares in its header.
type HashRule uint64

const (
	// HashJava is the 31-multiplier string hash over the key bytes.
	HashJava HashRule = iota
	// HashXX is xxhash64 over the key bytes.
	HashXX
	// HashIdentity uses an integer key as its own hash.
	HashIdentity
)

func (h HashRule) String() string {
	switch h {
	case HashJava:
		return "java"
	case HashXX:
		return "xxhash64"
	case HashIdentity:
		return "identity"
	}
	return fmt.Sprintf("HashRule(%d)", uint64(h))
}

func (h HashRule) valid() bool {
	return h <= HashIdentity
}

// Hash computes the hash of key under the rule.
func (h HashRule) Hash(key Key) (uint64, error) {
	data := key.bytes()
	switch h {
	case HashJava:
		var v uint32
		for _, b := range data {
			v = 31*v + uint32(b)
		}
		return uint64(v), nil
	case HashXX:
		return xxhash.Sum64(data), nil
	case HashIdentity:
		if !key.numeric {
			return 0, fmt.Errorf("identity hash needs an integer key")
		}
		return key.num, nil
	}
	return 0, fmt.Errorf("unknown hash rule %d", uint64(h))
}

// Key is a caller-supplied lookup key, either a string or an integer.
type Key struct {
	text    string
	num     uint64
	numeric bool
}

// StringKey returns a string key.
func StringKey(s string) Key {
	return Key{text: s}
}

// IntKey returns an integer key.
func IntKey(v uint64) Key {
	return Key{num: v, numeric: true}
}

func (k Key) bytes() []byte {
	if k.numeric {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], k.num)
		return b[:]
	}
	return []byte(k.text)
}

func (k Key) String() string {
	if k.numeric {
		return fmt.Sprintf("0x%x", k.num)
	}
	return k.text
}
