// Package witness defines the update-claim data model consumed by the
// constraint core: claims, authentication steps, leaf records and account
// encoding. A claim plus its steps is the decoded form of one trie update;
// how it is extracted from an on-disk trie snapshot is a concern of the
// producer, not of this module.
package witness

// ProofKind identifies what fact about the trie a claim asserts.
type ProofKind uint8

const (
	NonceChanged ProofKind = iota + 1
	BalanceChanged
	CodeHashChanged
	AccountDoesNotExist
	AccountDestructed
	StorageChanged
	StorageDoesNotExist
)

// Kinds returns every claim kind, supported or not; the constraint generator
// iterates them exhaustively so that unimplemented kinds are guarded, not
// silently ignored.
func Kinds() []ProofKind {
	return []ProofKind{
		NonceChanged,
		BalanceChanged,
		CodeHashChanged,
		AccountDoesNotExist,
		AccountDestructed,
		StorageChanged,
		StorageDoesNotExist,
	}
}

// Supported reports whether the update circuit implements this claim kind.
func (k ProofKind) Supported() bool {
	return k == NonceChanged || k == BalanceChanged
}

func (k ProofKind) String() string {
	switch k {
	case NonceChanged:
		return "nonce_changed"
	case BalanceChanged:
		return "balance_changed"
	case CodeHashChanged:
		return "code_hash_changed"
	case AccountDoesNotExist:
		return "account_does_not_exist"
	case AccountDestructed:
		return "account_destructed"
	case StorageChanged:
		return "storage_changed"
	case StorageDoesNotExist:
		return "storage_does_not_exist"
	}
	return "unknown"
}
