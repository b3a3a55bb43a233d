package mpt

import (
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	fr_bn254 "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/profile"
	"github.com/consensys/gnark/test"

	"github.com/zkmpt/mpt-circuit/utils"
)

const nLevels = 8

type testInclusionBN254 struct {
	Root     frontend.Variable
	Key      frontend.Variable
	DataHash frontend.Variable
	Siblings [nLevels]frontend.Variable
	Enabled  [nLevels]frontend.Variable
}

func (circuit *testInclusionBN254) Define(api frontend.API) error {
	return CheckInclusionProof(api, utils.MiMCHasher, circuit.Key, circuit.DataHash,
		circuit.Root, circuit.Siblings[:], circuit.Enabled[:])
}

type testUpdateBN254 struct {
	OldRoot  frontend.Variable
	NewRoot  frontend.Variable
	Key      frontend.Variable
	OldData  frontend.Variable
	NewData  frontend.Variable
	Siblings [nLevels]frontend.Variable
	Enabled  [nLevels]frontend.Variable
}

func (circuit *testUpdateBN254) Define(api frontend.API) error {
	return CheckUpdateProof(api, utils.MiMCHasher, circuit.Key, circuit.OldData, circuit.NewData,
		circuit.OldRoot, circuit.NewRoot, circuit.Siblings[:], circuit.Enabled[:])
}

func mimcHash(inputs ...*big.Int) *big.Int {
	h := mimc.NewMiMC()
	for _, in := range inputs {
		var e fr_bn254.Element
		e.SetBigInt(in)
		b := e.Bytes()
		_, _ = h.Write(b[:])
	}
	return new(big.Int).SetBytes(h.Sum(nil))
}

func mimcLeaf(key, data *big.Int) *big.Int {
	return mimcHash(mimcHash(big.NewInt(1), key), data)
}

// a depth-2 tree around key 2 (path: left at the root, then right)
type fixtureBN254 struct {
	key, data          *big.Int
	root               *big.Int
	siblings, enabled  [nLevels]frontend.Variable
	coSibling, farSide *big.Int
}

func newFixtureBN254() fixtureBN254 {
	f := fixtureBN254{key: big.NewInt(2), data: big.NewInt(777)}
	f.coSibling = mimcLeaf(big.NewInt(4), big.NewInt(888))
	f.farSide = mimcLeaf(big.NewInt(1), big.NewInt(999))
	inner := mimcHash(f.coSibling, mimcLeaf(f.key, f.data))
	f.root = mimcHash(inner, f.farSide)
	for i := 0; i < nLevels; i++ {
		f.siblings[i], f.enabled[i] = big.NewInt(0), big.NewInt(0)
	}
	f.siblings[0], f.enabled[0] = f.farSide, big.NewInt(1)
	f.siblings[1], f.enabled[1] = f.coSibling, big.NewInt(1)
	return f
}

func TestInclusionVerifierBN254(t *testing.T) {
	p := profile.Start()
	now := time.Now()
	_, _ = frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &testInclusionBN254{})
	fmt.Println("elapsed", time.Since(now))
	p.Stop()
	fmt.Println("constraints", p.NbConstraints())

	f := newFixtureBN254()
	inputs := testInclusionBN254{
		Root:     f.root,
		Key:      f.key,
		DataHash: f.data,
		Siblings: f.siblings,
		Enabled:  f.enabled,
	}
	assert := test.NewAssert(t)
	assert.SolvingSucceeded(&testInclusionBN254{}, &inputs,
		test.WithCurves(ecc.BN254), test.WithBackends(backend.GROTH16))

	badRoot := inputs
	badRoot.Root = new(big.Int).Add(f.root, big.NewInt(1))
	assert.SolvingFailed(&testInclusionBN254{}, &badRoot,
		test.WithCurves(ecc.BN254), test.WithBackends(backend.GROTH16))
}

func TestUpdateVerifierBN254(t *testing.T) {
	f := newFixtureBN254()
	newData := big.NewInt(1234)
	newInner := mimcHash(f.coSibling, mimcLeaf(f.key, newData))
	newRoot := mimcHash(newInner, f.farSide)

	inputs := testUpdateBN254{
		OldRoot:  f.root,
		NewRoot:  newRoot,
		Key:      f.key,
		OldData:  f.data,
		NewData:  newData,
		Siblings: f.siblings,
		Enabled:  f.enabled,
	}
	assert := test.NewAssert(t)
	assert.SolvingSucceeded(&testUpdateBN254{}, &inputs,
		test.WithCurves(ecc.BN254), test.WithBackends(backend.GROTH16))

	// a non-monotone level mask must not satisfy the occupancy constraint
	badMask := inputs
	badMask.Enabled[0] = big.NewInt(0)
	assert.SolvingFailed(&testUpdateBN254{}, &badMask,
		test.WithCurves(ecc.BN254), test.WithBackends(backend.GROTH16))
}
