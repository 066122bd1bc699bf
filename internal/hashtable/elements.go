package hashtable

import (
	"fmt"
	"strconv"

	"corescope/internal/pointer"
)

// ElementType selects how node keys and values are extracted and compared.
type ElementType uint64

const (
	// UTF8ToUTF8 nodes hold pointers to a J9UTF8 key and a J9UTF8 value.
	UTF8ToUTF8 ElementType = iota
	// UTF8ToUDATA nodes hold a J9UTF8 key pointer and a pointer-sized value.
	UTF8ToUDATA
	// UDATAToUTF8 nodes hold a pointer-sized key and a J9UTF8 value pointer.
	UDATAToUTF8
)

func (e ElementType) String() string {
	switch e {
	case UTF8ToUTF8:
		return "utf8->utf8"
	case UTF8ToUDATA:
		return "utf8->udata"
	case UDATAToUTF8:
		return "udata->utf8"
	}
	return fmt.Sprintf("ElementType(%d)", uint64(e))
}

func (e ElementType) valid() bool {
	return e <= UDATAToUTF8
}

func (e ElementType) numericKeys() bool {
	return e == UDATAToUTF8
}

// ParseKey converts a command-line key for this element type.
func (e ElementType) ParseKey(s string) (Key, error) {
	if !e.numericKeys() {
		return StringKey(s), nil
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return Key{}, fmt.Errorf("key %q is not an integer", s)
	}
	return IntKey(v), nil
}

// keyEquals compares the key stored in a node with the caller's key.
func (e ElementType) keyEquals(r *pointer.Resolver, stored pointer.Field, key Key) (bool, error) {
	if e.numericKeys() {
		return stored.Value == key.num, nil
	}
	s, err := r.ReadUTF8(stored.Pointer())
	if err != nil {
		return false, err
	}
	return s == key.text, nil
}

// decodeValue renders the value stored in a node.
func (e ElementType) decodeValue(r *pointer.Resolver, stored pointer.Field) (string, error) {
	if e == UTF8ToUDATA {
		return fmt.Sprintf("0x%x", stored.Value), nil
	}
	return r.ReadUTF8(stored.Pointer())
}
