// Package hashtable resolves keys in hash tables that live in target memory.
//
// A lookup is a small state machine:
//
//	ResolveTable -> ComputeBucket -> ScanChain -> Found | NotFound
//	      any state -> Corrupt | Failed
//
// Found and NotFound are ordinary outcomes. Corrupt is returned together
// with a *pointer.CorruptDataError describing the inconsistency. Failed means
// the lookup could not run at all: the key does not suit the table or the
// catalog layout lacks a field. Chain walks
// are bounded, so a cyclic or runaway chain ends in Corrupt rather than
// looping forever.
package hashtable

import (
	"fmt"

	"github.com/charmbracelet/log"

	"corescope/internal/catalog"
	"corescope/internal/logging"
	"corescope/internal/pointer"
)

// Limits on header values; anything larger is garbage.
const (
	MaxBuckets = 1 << 24
	MaxNodes   = 1 << 28
)

// State is a step of a lookup.
type State int

const (
	ResolveTable State = iota
	ComputeBucket
	ScanChain
	Found
	NotFound
	Corrupt
	Failed
)

func (s State) String() string {
	switch s {
	case ResolveTable:
		return "ResolveTable"
	case ComputeBucket:
		return "ComputeBucket"
	case ScanChain:
		return "ScanChain"
	case Found:
		return "Found"
	case NotFound:
		return "NotFound"
	case Corrupt:
		return "Corrupt"
	case Failed:
		return "Failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Layout names the catalog structures and fields a table is made of.
type Layout struct {
	Header      string
	BucketArray string // pointer to the array of chain heads
	BucketCount string
	NodeCount   string // optional
	HashRule    string
	ElementType string

	Node  string
	Key   string
	Value string
	Next  string
}

// DefaultLayout matches the J9HashTable and J9HashTableNode catalog entries.
var DefaultLayout = Layout{
	Header:      "J9HashTable",
	BucketArray: "nodes",
	BucketCount: "tableSize",
	NodeCount:   "numberOfNodes",
	HashRule:    "hashRule",
	ElementType: "elementType",
	Node:        "J9HashTableNode",
	Key:         "key",
	Value:       "value",
	Next:        "next",
}

// Result is the outcome of a lookup.
type Result struct {
	State   State
	Value   string // decoded value when State is Found
	Bucket  uint64
	Visited int // chain nodes examined
}

// View looks up keys in tables described by a Layout.
type View struct {
	resolver *pointer.Resolver
	header   *catalog.StructureDescriptor
	node     *catalog.StructureDescriptor
	layout   Layout
	logger   *log.Logger
}

// NewView binds a layout to the catalog. It fails if the catalog lacks the
// header or node structure.
func NewView(r *pointer.Resolver, c *catalog.Catalog, layout Layout) (*View, error) {
	header, ok := c.Structure(layout.Header)
	if !ok {
		return nil, fmt.Errorf("catalog has no structure %s", layout.Header)
	}
	node, ok := c.Structure(layout.Node)
	if !ok {
		return nil, fmt.Errorf("catalog has no structure %s", layout.Node)
	}
	return &View{resolver: r, header: header, node: node, layout: layout, logger: logging.Discard()}, nil
}

// WithLogger returns a copy of the view that logs state transitions at debug level.
func (v *View) WithLogger(lg *log.Logger) *View {
	cp := *v
	cp.logger = lg
	return &cp
}

// table is the decoded header of one hash table.
type table struct {
	addr      pointer.Address
	buckets   pointer.Address
	count     uint64
	nodeCount uint64
	rule      HashRule
	elem      ElementType
}

// lookup carries the state of one walk.
type lookup struct {
	view   *View
	addr   pointer.Address
	rawKey string
	key    Key
	table  table
	result Result
	err    error
}

// Lookup resolves key in the table at addr. The returned State is always
// terminal. Corrupt outcomes return a *pointer.CorruptDataError; Failed ones
// return the error that stopped the walk.
func (v *View) Lookup(addr pointer.Address, key string) (Result, error) {
	l := &lookup{view: v, addr: addr, rawKey: key}
	state := ResolveTable
	for {
		var next State
		var err error
		switch state {
		case ResolveTable:
			next, err = l.resolveTable()
		case ComputeBucket:
			next, err = l.computeBucket()
		case ScanChain:
			next, err = l.scanChain()
		case Found, NotFound:
			l.result.State = state
			return l.result, nil
		case Corrupt:
			l.result.State = state
			return l.result, l.err
		}
		if err != nil {
			v.logger.Debug("hashtable lookup failed", "table", addr, "state", state, "err", err)
			l.result.State = Failed
			return l.result, err
		}
		v.logger.Debug("hashtable transition", "table", addr, "from", state, "to", next)
		state = next
	}
}

// corrupt records a CorruptDataError and moves to the Corrupt state.
func (l *lookup) corrupt(err error) (State, error) {
	l.err = err
	return Corrupt, nil
}

func (l *lookup) corruptf(format string, args ...any) (State, error) {
	return l.corrupt(pointer.Corrupt(l.addr, l.view.header.Name, format, args...))
}

func (l *lookup) resolveTable() (State, error) {
	lay := l.view.layout
	fields, err := l.view.resolver.Read(l.addr, l.view.header)
	if err != nil {
		if pointer.IsCorrupt(err) {
			return l.corrupt(err)
		}
		return Corrupt, err
	}

	t := table{addr: l.addr}
	if t.buckets, err = fields.Pointer(lay.BucketArray); err != nil {
		return Corrupt, err
	}
	if t.count, err = fields.Uint(lay.BucketCount); err != nil {
		return Corrupt, err
	}
	if lay.NodeCount != "" {
		if t.nodeCount, err = fields.Uint(lay.NodeCount); err != nil {
			return Corrupt, err
		}
	}
	rule, err := fields.Uint(lay.HashRule)
	if err != nil {
		return Corrupt, err
	}
	elem, err := fields.Uint(lay.ElementType)
	if err != nil {
		return Corrupt, err
	}
	t.rule, t.elem = HashRule(rule), ElementType(elem)
	l.table = t

	switch {
	case t.count > MaxBuckets:
		return l.corruptf("implausible bucket count %d", t.count)
	case t.nodeCount > MaxNodes:
		return l.corruptf("implausible node count %d", t.nodeCount)
	case t.count == 0 && !t.buckets.IsNull():
		return l.corruptf("bucket array %s with zero buckets", t.buckets)
	case t.count != 0 && t.buckets.IsNull():
		return l.corruptf("%d buckets with a null bucket array", t.count)
	case t.count == 0 && t.nodeCount != 0:
		return l.corruptf("%d nodes with zero buckets", t.nodeCount)
	case !t.rule.valid():
		return l.corruptf("unknown hash rule %d", rule)
	case !t.elem.valid():
		return l.corruptf("unknown element type %d", elem)
	case t.rule == HashIdentity && !t.elem.numericKeys():
		return l.corruptf("identity hash declared for %s elements", t.elem)
	}

	if t.count == 0 {
		return NotFound, nil
	}

	l.key, err = t.elem.ParseKey(l.rawKey)
	if err != nil {
		return Corrupt, err
	}
	return ComputeBucket, nil
}

func (l *lookup) computeBucket() (State, error) {
	h, err := l.table.rule.Hash(l.key)
	if err != nil {
		return Corrupt, err
	}
	l.result.Bucket = h % l.table.count
	return ScanChain, nil
}

func (l *lookup) scanChain() (State, error) {
	r := l.view.resolver
	lay := l.view.layout

	slot := l.table.buckets.Add(l.result.Bucket * r.Bitness().PointerSize())
	cur, err := r.ReadPointer(slot)
	if err != nil {
		return l.corrupt(err)
	}

	limit := max(l.table.count, l.table.nodeCount)
	visited := make(map[pointer.Address]struct{})
	for !cur.IsNull() {
		if _, seen := visited[cur]; seen {
			return l.corruptf("cycle in bucket %d chain at %s", l.result.Bucket, cur)
		}
		if uint64(len(visited)) >= limit {
			return l.corruptf("bucket %d chain exceeds %d nodes", l.result.Bucket, limit)
		}
		visited[cur] = struct{}{}
		l.result.Visited = len(visited)

		node, err := r.Read(cur, l.view.node)
		if err != nil {
			if pointer.IsCorrupt(err) {
				return l.corrupt(err)
			}
			return Corrupt, err
		}

		keyField, ok := node.Get(lay.Key)
		if !ok {
			return Corrupt, fmt.Errorf("structure %s has no field %s", l.view.node.Name, lay.Key)
		}
		match, err := l.table.elem.keyEquals(r, keyField, l.key)
		if err != nil {
			return l.corrupt(err)
		}
		if match {
			valueField, ok := node.Get(lay.Value)
			if !ok {
				return Corrupt, fmt.Errorf("structure %s has no field %s", l.view.node.Name, lay.Value)
			}
			value, err := l.table.elem.decodeValue(r, valueField)
			if err != nil {
				return l.corrupt(err)
			}
			l.result.Value = value
			return Found, nil
		}

		if cur, err = node.Pointer(lay.Next); err != nil {
			return Corrupt, err
		}
	}
	return NotFound, nil
}
