// Package merkle provides an implementation of a merkle tree so a voter can
// be handed a receipt proving their vote is inside a block.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"hash"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable interface {
	Hash() ([]byte, error)
}

// Order values for a proof step.
const (
	SiblingLeft  int64 = 0 // sibling hash is concatenated first.
	SiblingRight int64 = 1 // sibling hash is concatenated second.
)

// =============================================================================

// Tree represents a merkle tree built level by level from the leaf hashes.
// When a level has an odd number of nodes the last node is paired with
// itself.
type Tree[T Hashable] struct {
	values       []T
	levels       [][][]byte
	hashStrategy func() hash.Hash
}

// WithHashStrategy is used to change the default hash strategy of using sha256
// when constructing a new tree.
func WithHashStrategy[T Hashable](hashStrategy func() hash.Hash) func(t *Tree[T]) {
	return func(t *Tree[T]) {
		t.hashStrategy = hashStrategy
	}
}

// NewTree constructs a new merkle tree from the specified values.
func NewTree[T Hashable](values []T, options ...func(t *Tree[T])) (*Tree[T], error) {
	if len(values) == 0 {
		return nil, errors.New("cannot construct tree with no content")
	}

	t := Tree[T]{
		values:       append([]T(nil), values...),
		hashStrategy: sha256.New,
	}

	for _, option := range options {
		option(&t)
	}

	leafs := make([][]byte, len(values))
	for i, value := range values {
		h, err := value.Hash()
		if err != nil {
			return nil, err
		}
		leafs[i] = h
	}

	t.levels = [][][]byte{leafs}
	for level := leafs; len(level) > 1; {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			right := level[i]
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, t.combine(level[i], right))
		}

		t.levels = append(t.levels, next)
		level = next
	}

	return &t, nil
}

// Root returns the merkle root hash.
func (t *Tree[T]) Root() []byte {
	return t.levels[len(t.levels)-1][0]
}

// RootHex converts the merkle root byte hash to a hex encoded string.
func (t *Tree[T]) RootHex() string {
	return hexutil.Encode(t.Root())
}

// Values returns the values stored in the tree in leaf order.
func (t *Tree[T]) Values() []T {
	return append([]T(nil), t.values...)
}

// Proof returns the sibling hashes from the leaf at the specified index up
// to the root, with the order saying on which side each sibling sits.
func (t *Tree[T]) Proof(index int) ([][]byte, []int64, error) {
	if index < 0 || index >= len(t.values) {
		return nil, nil, errors.New("index out of range")
	}

	var proof [][]byte
	var order []int64

	for _, level := range t.levels[:len(t.levels)-1] {
		switch {
		case index%2 == 0:
			sibling := index + 1
			if sibling >= len(level) {
				sibling = index
			}
			proof = append(proof, level[sibling])
			order = append(order, SiblingRight)

		default:
			proof = append(proof, level[index-1])
			order = append(order, SiblingLeft)
		}

		index /= 2
	}

	return proof, order, nil
}

// Verify checks the tree root against a fresh computation from the values.
func (t *Tree[T]) Verify() error {
	fresh, err := NewTree(t.values, WithHashStrategy[T](t.hashStrategy))
	if err != nil {
		return err
	}

	if !bytes.Equal(fresh.Root(), t.Root()) {
		return errors.New("root hash invalid")
	}

	return nil
}

func (t *Tree[T]) combine(left []byte, right []byte) []byte {
	return combine(t.hashStrategy, left, right)
}

// =============================================================================

// VerifyProof walks the proof from the leaf hash and reports whether the
// result matches the root. It uses sha256, the default tree strategy.
func VerifyProof(leaf []byte, proof [][]byte, order []int64, root []byte) bool {
	if len(proof) != len(order) {
		return false
	}

	current := leaf
	for i, sibling := range proof {
		switch order[i] {
		case SiblingLeft:
			current = combine(sha256.New, sibling, current)
		case SiblingRight:
			current = combine(sha256.New, current, sibling)
		default:
			return false
		}
	}

	return bytes.Equal(current, root)
}

func combine(hashStrategy func() hash.Hash, left []byte, right []byte) []byte {
	h := hashStrategy()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}
