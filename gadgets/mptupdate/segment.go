// Package mptupdate implements the update-circuit core: a row-based state
// machine over segment and path kinds that encodes, as algebraic constraints,
// the legality of a trie authentication-path transition together with
// leaf-level value decoding, plus the assigner that turns update claims into
// rows satisfying those constraints.
package mptupdate

// SegmentKind is the position of a row within the authentication path or the
// leaf encoding.
type SegmentKind uint8

const (
	SegmentStart SegmentKind = iota
	SegmentAccountTrie
	SegmentAccountLeaf0
	SegmentAccountLeaf1
	SegmentAccountLeaf2
	SegmentAccountLeaf3
	SegmentAccountLeaf4
	SegmentStorageTrie
	SegmentStorageLeaf0
	SegmentStorageLeaf1
)

func segmentKinds() []SegmentKind {
	return []SegmentKind{
		SegmentStart,
		SegmentAccountTrie,
		SegmentAccountLeaf0,
		SegmentAccountLeaf1,
		SegmentAccountLeaf2,
		SegmentAccountLeaf3,
		SegmentAccountLeaf4,
		SegmentStorageTrie,
		SegmentStorageLeaf0,
		SegmentStorageLeaf1,
	}
}

// segmentBackwardTransitions lists, per segment kind, the kinds its
// predecessor row may have. Transitions are constrained backward so that the
// same row-enabling pattern works for any number of active rows; start rows
// and padding are unconstrained.
func segmentBackwardTransitions() []struct {
	sink    SegmentKind
	sources []SegmentKind
} {
	return []struct {
		sink    SegmentKind
		sources []SegmentKind
	}{
		{SegmentAccountTrie, []SegmentKind{SegmentStart, SegmentAccountTrie}},
		{SegmentAccountLeaf0, []SegmentKind{SegmentAccountTrie}},
		{SegmentAccountLeaf1, []SegmentKind{SegmentAccountLeaf0}},
		{SegmentAccountLeaf2, []SegmentKind{SegmentAccountLeaf1}},
		{SegmentAccountLeaf3, []SegmentKind{SegmentAccountLeaf2}},
		{SegmentAccountLeaf4, []SegmentKind{SegmentAccountLeaf3}},
		{SegmentStorageTrie, []SegmentKind{SegmentAccountLeaf4, SegmentStorageTrie}},
		{SegmentStorageLeaf0, []SegmentKind{SegmentStorageTrie}},
		{SegmentStorageLeaf1, []SegmentKind{SegmentStorageLeaf0}},
	}
}

func (s SegmentKind) String() string {
	switch s {
	case SegmentStart:
		return "start"
	case SegmentAccountTrie:
		return "account_trie"
	case SegmentAccountLeaf0:
		return "account_leaf_0"
	case SegmentAccountLeaf1:
		return "account_leaf_1"
	case SegmentAccountLeaf2:
		return "account_leaf_2"
	case SegmentAccountLeaf3:
		return "account_leaf_3"
	case SegmentAccountLeaf4:
		return "account_leaf_4"
	case SegmentStorageTrie:
		return "storage_trie"
	case SegmentStorageLeaf0:
		return "storage_leaf_0"
	case SegmentStorageLeaf1:
		return "storage_leaf_1"
	}
	return "unknown"
}
