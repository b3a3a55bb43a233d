package mptupdate

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/zkmpt/mpt-circuit/constraint"
	"github.com/zkmpt/mpt-circuit/witness"
)

// Config is the update circuit: the columns, indicator sets and derived
// gadgets over which the constraint generator registers its relations, and
// into which the row assigner writes claim witnesses.
type Config struct {
	oldHash  constraint.Column
	newHash  constraint.Column
	oldValue constraint.Column
	newValue constraint.Column

	proofKind  *constraint.OneHot[witness.ProofKind]
	address    constraint.Column
	storageKey constraint.Column

	segment *constraint.OneHot[SegmentKind]
	path    *constraint.OneHot[PathKind]
	depth   constraint.Column

	key constraint.Column

	// Type 1 non-existence witnesses: the key, key marker hash and data hash
	// of the leaf occupying the claimed slot.
	otherKey          constraint.Column
	otherKeyHash      constraint.Column
	otherLeafDataHash constraint.Column

	// Type 2 non-existence witnesses.
	oldHashIsZero *constraint.IsZeroGadget
	newHashIsZero *constraint.IsZeroGadget

	keyEqualsOtherKey *constraint.IsEqualGadget

	direction constraint.Column
	sibling   constraint.Column

	// Most significant 128 bits of the address or storage key.
	upperAddressBits constraint.Column
}

func pow2(n uint) fr.Element {
	var e, two fr.Element
	e.SetOne()
	two.SetUint64(2)
	for i := uint(0); i < n; i++ {
		e.Mul(&e, &two)
	}
	return e
}

func pow2Inv(n uint) fr.Element {
	e := pow2(n)
	e.Inverse(&e)
	return e
}

// Configure allocates the circuit's columns and registers every constraint
// and lookup over them. poseidon, keyBit and byteRange are the external
// oracle relations of the hash, bit-decomposition and byte-range
// collaborators. Registration is a pure function of static configuration;
// unsupported claim kinds are guarded with unsatisfiable constraints so that
// a row claiming one can never verify.
func Configure(cb *constraint.Builder, poseidon, keyBit, byteRange constraint.Oracle) *Config {
	cfg := &Config{}

	cols := cb.AdviceColumns(4)
	cfg.oldHash, cfg.newHash, cfg.oldValue, cfg.newValue = cols[0], cols[1], cols[2], cols[3]
	cols = cb.AdviceColumns(2)
	cfg.address, cfg.storageKey = cols[0], cols[1]
	cols = cb.AdviceColumns(5)
	cfg.depth, cfg.key, cfg.direction, cfg.sibling, cfg.upperAddressBits = cols[0], cols[1], cols[2], cols[3], cols[4]
	cols = cb.AdviceColumns(3)
	cfg.otherKey, cfg.otherKeyHash, cfg.otherLeafDataHash = cols[0], cols[1], cols[2]

	cfg.proofKind = constraint.NewOneHot(cb, witness.Kinds())
	cfg.segment = constraint.NewOneHot(cb, segmentKinds())
	cfg.path = constraint.NewOneHot(cb, pathKinds())

	isTrie := cfg.segment.CurrentMatches(SegmentAccountTrie, SegmentStorageTrie)

	cb.Condition(isTrie, func(cb *constraint.Builder) {
		cb.AddLookup(
			"direction is correct for key and depth",
			[]constraint.Query{cfg.key.Current(), cfg.depth.Current().Sub(constraint.One()), cfg.direction.Current()},
			keyBit,
		)
		cb.AssertEqual(
			"depth increases by 1 in trie segments",
			cfg.depth.Current(),
			cfg.depth.Previous().Add(constraint.One()),
		)
		cb.Condition(cfg.path.CurrentMatches(PathCommon), func(cb *constraint.Builder) {
			cb.AddLookup(
				"direction is correct for other_key and depth",
				[]constraint.Query{cfg.otherKey.Current(), cfg.depth.Current().Sub(constraint.One()), cfg.direction.Current()},
				keyBit,
			)
		})
	})
	cb.Condition(isTrie.Not(), func(cb *constraint.Builder) {
		cb.AssertZero("key is 0 in non-trie segments", cfg.key.Current())
		cb.AssertZero("depth is 0 in non-trie segments", cfg.depth.Current())
	})

	cb.AddLookup(
		"upper address bits fit in 16 bytes",
		[]constraint.Query{cfg.upperAddressBits.Current(), constraint.Value(15)},
		byteRange,
	)

	cfg.oldHashIsZero = constraint.NewIsZero(cb, cfg.oldHash)
	cfg.newHashIsZero = constraint.NewIsZero(cb, cfg.newHash)
	cfg.keyEqualsOtherKey = constraint.NewIsEqual(cb, cfg.key.Current(), cfg.otherKey.Current())

	for _, t := range segmentBackwardTransitions() {
		t := t
		cb.Condition(cfg.segment.CurrentMatches(t.sink), func(cb *constraint.Builder) {
			cb.Assert(
				"previous segment kind for "+t.sink.String(),
				cfg.segment.PreviousMatches(t.sources...),
			)
		})
	}
	for _, t := range pathBackwardTransitions() {
		t := t
		cb.Condition(cfg.path.CurrentMatches(t.sink), func(cb *constraint.Builder) {
			cb.Assert(
				"previous path kind for "+t.sink.String(),
				cfg.path.PreviousMatches(t.sources...),
			)
		})
	}

	for _, variant := range pathKinds() {
		var conditional func(*constraint.Builder)
		switch variant {
		case PathStart:
			continue
		case PathCommon:
			conditional = func(cb *constraint.Builder) { cfg.configureCommonPath(cb, poseidon) }
		case PathExtensionOld:
			conditional = func(cb *constraint.Builder) { cfg.configureExtensionOld(cb, poseidon) }
		case PathExtensionNew:
			conditional = func(cb *constraint.Builder) { cfg.configureExtensionNew(cb, poseidon) }
		}
		cb.Condition(cfg.path.CurrentMatches(variant), conditional)
	}

	for _, kind := range witness.Kinds() {
		kind := kind
		var conditional func(*constraint.Builder)
		switch kind {
		case witness.NonceChanged:
			conditional = func(cb *constraint.Builder) { cfg.configureNonce(cb, byteRange, poseidon) }
		case witness.BalanceChanged:
			conditional = func(cb *constraint.Builder) { cfg.configureBalance(cb, poseidon) }
		default:
			conditional = func(cb *constraint.Builder) {
				cb.AssertUnreachable("unimplemented proof kind " + kind.String())
			}
		}
		cb.Condition(cfg.proofKind.CurrentMatches(kind), conditional)
	}

	return cfg
}

// Child selection: the node hash and the sibling swap sides depending on the
// direction bit, feeding the hash lookup (left, right, H(left, right)).
func (c *Config) oldLeft() constraint.Query {
	return c.direction.Current().Mul(c.sibling.Current()).
		Add(c.direction.Current().Not().Mul(c.oldHash.Current()))
}

func (c *Config) oldRight() constraint.Query {
	return c.direction.Current().Mul(c.oldHash.Current()).
		Add(c.direction.Current().Not().Mul(c.sibling.Current()))
}

func (c *Config) newLeft() constraint.Query {
	return c.direction.Current().Mul(c.sibling.Current()).
		Add(c.direction.Current().Not().Mul(c.newHash.Current()))
}

func (c *Config) newRight() constraint.Query {
	return c.direction.Current().Mul(c.newHash.Current()).
		Add(c.direction.Current().Not().Mul(c.sibling.Current()))
}

func (c *Config) isTrieSegment() constraint.Query {
	return c.segment.CurrentMatches(SegmentAccountTrie, SegmentStorageTrie)
}

func (c *Config) configureCommonPath(cb *constraint.Builder, poseidon constraint.Oracle) {
	cb.AddLookup(
		"poseidon hash correct for old common path",
		[]constraint.Query{c.oldLeft(), c.oldRight(), c.oldHash.Previous()},
		poseidon,
	)
	cb.AddLookup(
		"poseidon hash correct for new common path",
		[]constraint.Query{c.newLeft(), c.newRight(), c.newHash.Previous()},
		poseidon,
	)
	// The row before a leaf block that diverges must show the frozen side
	// resolving to the canonical empty subtree value, which is zero.
	cb.Condition(
		c.path.NextMatches(PathExtensionNew).Mul(c.segment.NextMatches(SegmentAccountLeaf0)),
		func(cb *constraint.Builder) {
			cb.AssertZero("old hash is the empty value for a type 2 empty old side", c.oldHash.Current())
		},
	)
	cb.Condition(
		c.path.NextMatches(PathExtensionOld).Mul(c.segment.NextMatches(SegmentAccountLeaf0)),
		func(cb *constraint.Builder) {
			cb.AssertZero("new hash is the empty value for a type 2 empty new side", c.newHash.Current())
		},
	)
}

func (c *Config) configureExtensionOld(cb *constraint.Builder, poseidon constraint.Oracle) {
	cb.AssertZero("new value is 0 when the new side is empty", c.newValue.Current())

	cb.Condition(c.isTrieSegment(), func(cb *constraint.Builder) {
		isFinal := c.segment.NextMatches(SegmentAccountTrie, SegmentStorageTrie).Not()
		cb.Condition(isFinal.Not(), func(cb *constraint.Builder) {
			cb.AssertZero("sibling is zero for non-final old extension rows", c.sibling.Current())
		})
		cb.Condition(isFinal, func(cb *constraint.Builder) {
			cb.AssertEqual(
				"sibling is the displaced new hash on the final old extension trie row",
				c.sibling.Current(),
				c.newHash.Current(),
			)
		})
	})

	cb.AssertEqual(
		"new hash unchanged on old extension path",
		c.newHash.Current(),
		c.newHash.Previous(),
	)
	cb.AddLookup(
		"poseidon hash correct for old extension path",
		[]constraint.Query{c.oldLeft(), c.oldRight(), c.oldHash.Previous()},
		poseidon,
	)

	cb.Condition(c.segment.CurrentMatches(SegmentAccountLeaf0), func(cb *constraint.Builder) {
		cb.AddLookup(
			"other key hash is H(1, other_key)",
			[]constraint.Query{constraint.One(), c.otherKey.Current(), c.otherKeyHash.Current()},
			poseidon,
		)
		cb.Condition(c.newHashIsZero.Current().Not(), func(cb *constraint.Builder) {
			cb.AddLookup(
				"previous new hash is H(other_key_hash, other_leaf_data_hash)",
				[]constraint.Query{c.otherKeyHash.Current(), c.otherLeafDataHash.Current(), c.newHash.Previous()},
				poseidon,
			)
		})
		cb.Condition(c.keyEqualsOtherKey.Current().Not(), func(cb *constraint.Builder) {
			cb.AssertZero("new value is 0 for a type 1 new side", c.newValue.Current())
		})
	})
}

func (c *Config) configureExtensionNew(cb *constraint.Builder, poseidon constraint.Oracle) {
	cb.AssertZero("old value is 0 when the old side is empty", c.oldValue.Current())

	cb.Condition(c.isTrieSegment(), func(cb *constraint.Builder) {
		isFinal := c.segment.NextMatches(SegmentAccountTrie, SegmentStorageTrie).Not()
		cb.Condition(isFinal.Not(), func(cb *constraint.Builder) {
			cb.AssertZero("sibling is zero for non-final new extension rows", c.sibling.Current())
		})
		cb.Condition(isFinal, func(cb *constraint.Builder) {
			cb.AssertEqual(
				"sibling is the displaced old hash on the final new extension trie row",
				c.sibling.Current(),
				c.oldHash.Current(),
			)
		})
	})

	cb.AssertEqual(
		"old hash unchanged on new extension path",
		c.oldHash.Current(),
		c.oldHash.Previous(),
	)
	cb.AddLookup(
		"poseidon hash correct for new extension path",
		[]constraint.Query{c.newLeft(), c.newRight(), c.newHash.Previous()},
		poseidon,
	)

	cb.Condition(c.segment.CurrentMatches(SegmentAccountLeaf0), func(cb *constraint.Builder) {
		cb.AddLookup(
			"other key hash is H(1, other_key)",
			[]constraint.Query{constraint.One(), c.otherKey.Current(), c.otherKeyHash.Current()},
			poseidon,
		)
		// A non-empty old subtree under an empty old account means another
		// leaf occupies the slot: tie it to the type 1 witness columns.
		cb.Condition(c.oldHashIsZero.Current().Not(), func(cb *constraint.Builder) {
			cb.AddLookup(
				"previous old hash is H(other_key_hash, other_leaf_data_hash)",
				[]constraint.Query{c.otherKeyHash.Current(), c.otherLeafDataHash.Current(), c.oldHash.Previous()},
				poseidon,
			)
		})
		cb.Condition(c.keyEqualsOtherKey.Current().Not(), func(cb *constraint.Builder) {
			cb.AssertZero("old value is 0 for a type 1 old side", c.oldValue.Current())
		})
	})
}

// addressLowQuery reconstructs the low half of the address from the packed
// address column and the upper 128 bits, split at the 128-bit boundary:
// address = upper*2^32 + low32, address_low = low32 * 2^96.
func (c *Config) addressLowQuery() constraint.Query {
	return c.address.Current().
		Sub(c.upperAddressBits.Current().MulConst(pow2(32))).
		MulConst(pow2(96))
}

func (c *Config) configureAccountLeaf0(cb *constraint.Builder, poseidon constraint.Oracle) {
	cb.AssertEqual("direction is 1 on the account leaf row", c.direction.Current(), constraint.One())
	cb.AddLookup(
		"key is H(address_high, address_low)",
		[]constraint.Query{c.upperAddressBits.Current(), c.addressLowQuery(), c.key.Previous()},
		poseidon,
	)
	cb.AddLookup(
		"sibling is H(1, key)",
		[]constraint.Query{constraint.One(), c.key.Previous(), c.sibling.Current()},
		poseidon,
	)
}

func (c *Config) configureNonce(cb *constraint.Builder, byteRange, poseidon constraint.Oracle) {
	for _, variant := range segmentKinds() {
		variant := variant
		var conditional func(*constraint.Builder)
		switch variant {
		case SegmentStart, SegmentAccountTrie:
			continue
		case SegmentAccountLeaf0:
			conditional = func(cb *constraint.Builder) { c.configureAccountLeaf0(cb, poseidon) }
		case SegmentAccountLeaf1, SegmentAccountLeaf2:
			conditional = func(cb *constraint.Builder) {
				cb.AssertZero("direction is 0 on reserved leaf rows", c.direction.Current())
			}
		case SegmentAccountLeaf3:
			conditional = func(cb *constraint.Builder) {
				cb.AssertZero("direction is 0 on the nonce leaf row", c.direction.Current())

				// The hash column holds code_size*2^64 + nonce and the value
				// column the nonce alone.
				oldCodeSize := c.oldHash.Current().Sub(c.oldValue.Current()).MulConst(pow2Inv(64))
				newCodeSize := c.newHash.Current().Sub(c.newValue.Current()).MulConst(pow2Inv(64))

				cb.Condition(c.path.CurrentMatches(PathCommon), func(cb *constraint.Builder) {
					cb.AddLookup(
						"old nonce fits in 8 bytes",
						[]constraint.Query{c.oldValue.Current(), constraint.Value(7)},
						byteRange,
					)
					cb.AddLookup(
						"new nonce fits in 8 bytes",
						[]constraint.Query{c.newValue.Current(), constraint.Value(7)},
						byteRange,
					)
					cb.AssertEqual("code size unchanged by nonce update", oldCodeSize, newCodeSize)
					cb.AddLookup(
						"existing code size fits in 8 bytes",
						[]constraint.Query{oldCodeSize, constraint.Value(7)},
						byteRange,
					)
				})
				cb.Condition(c.path.CurrentMatches(PathExtensionNew), func(cb *constraint.Builder) {
					cb.AddLookup(
						"new nonce fits in 8 bytes",
						[]constraint.Query{c.newValue.Current(), constraint.Value(7)},
						byteRange,
					)
					cb.AssertZero("code size is 0 for a created account", newCodeSize)
				})
				cb.Condition(c.path.CurrentMatches(PathExtensionOld), func(cb *constraint.Builder) {
					cb.AddLookup(
						"old nonce fits in 8 bytes",
						[]constraint.Query{c.oldValue.Current(), constraint.Value(7)},
						byteRange,
					)
					cb.AssertZero("code size is 0 for a removed account", oldCodeSize)
				})
			}
		default:
			conditional = func(cb *constraint.Builder) {
				cb.AssertUnreachable("unreachable segment kind for nonce update")
			}
		}
		cb.Condition(c.segment.CurrentMatches(variant), conditional)
	}
}

func (c *Config) configureBalance(cb *constraint.Builder, poseidon constraint.Oracle) {
	for _, variant := range segmentKinds() {
		variant := variant
		var conditional func(*constraint.Builder)
		switch variant {
		case SegmentStart, SegmentAccountTrie:
			continue
		case SegmentAccountLeaf0:
			conditional = func(cb *constraint.Builder) { c.configureAccountLeaf0(cb, poseidon) }
		case SegmentAccountLeaf1, SegmentAccountLeaf2:
			conditional = func(cb *constraint.Builder) {
				cb.AssertZero("direction is 0 on reserved leaf rows", c.direction.Current())
			}
		case SegmentAccountLeaf3:
			conditional = func(cb *constraint.Builder) {
				cb.AssertEqual("direction is 1 on the balance leaf row", c.direction.Current(), constraint.One())

				// The balance is the raw leaf field: wherever a side is
				// present, its hash column is the claimed value directly.
				cb.Condition(c.path.CurrentMatches(PathCommon, PathExtensionOld), func(cb *constraint.Builder) {
					cb.AssertEqual("old hash is the old balance", c.oldValue.Current(), c.oldHash.Current())
				})
				cb.Condition(c.path.CurrentMatches(PathCommon, PathExtensionNew), func(cb *constraint.Builder) {
					cb.AssertEqual("new hash is the new balance", c.newValue.Current(), c.newHash.Current())
				})
			}
		default:
			conditional = func(cb *constraint.Builder) {
				cb.AssertUnreachable("unreachable segment kind for balance update")
			}
		}
		cb.Condition(c.segment.CurrentMatches(variant), conditional)
	}
}

// LookupQueries exposes the per-claim tuple other circuits look up to consume
// a proven update: kind, roots, values, address and storage key, all gated to
// the claim's start row.
func (c *Config) LookupQueries() [7]constraint.Query {
	isStart := c.segment.CurrentMatches(SegmentStart)
	return [7]constraint.Query{
		c.proofKind.Current(),
		c.oldHash.Current().Mul(isStart),
		c.newHash.Current().Mul(isStart),
		c.oldValue.Current().Mul(isStart),
		c.newValue.Current().Mul(isStart),
		c.address.Current().Mul(isStart),
		c.storageKey.Current().Mul(isStart),
	}
}
