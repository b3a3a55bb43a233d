package utils

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// Hasher is an in-circuit hash function over the compiler field. Tree
// verifiers take one so the same walk works under any arity-2 hash.
type Hasher func(frontend.API, ...frontend.Variable) (frontend.Variable, error)

// MiMCHasher hashes the provided data with the MiMC hash function over the
// current compiler field. Its native counterpart lives in gnark-crypto, which
// makes it the default choice for tests that hash on both sides.
func MiMCHasher(api frontend.API, data ...frontend.Variable) (frontend.Variable, error) {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return 0, err
	}
	h.Write(data...)
	return h.Sum(), nil
}
