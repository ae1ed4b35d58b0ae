package eth

// Hand-written ssz hashing for the attestation types. The merkleization
// layout follows the phase0 container definitions.

import (
	ssz "github.com/ferranbt/fastssz"

	"github.com/KenMan79/teku/shared/params"
)

// HashTreeRoot ssz hashes the Checkpoint object.
func (c *Checkpoint) HashTreeRoot() ([32]byte, error) {
	return hashWithDefaultHasher(c.HashTreeRootWith)
}

// HashTreeRootWith ssz hashes the Checkpoint object with a hasher.
func (c *Checkpoint) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()

	hh.PutUint64(uint64(c.Epoch))

	if len(c.Root) != 32 {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(c.Root)

	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the AttestationData object. The pool uses this
// root as the grouping key for matching-data aggregation.
func (a *AttestationData) HashTreeRoot() ([32]byte, error) {
	return hashWithDefaultHasher(a.HashTreeRootWith)
}

// HashTreeRootWith ssz hashes the AttestationData object with a hasher.
func (a *AttestationData) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()

	hh.PutUint64(uint64(a.Slot))
	hh.PutUint64(uint64(a.CommitteeIndex))

	if len(a.BeaconBlockRoot) != 32 {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(a.BeaconBlockRoot)

	if err := a.Source.HashTreeRootWith(hh); err != nil {
		return err
	}
	if err := a.Target.HashTreeRootWith(hh); err != nil {
		return err
	}

	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the Attestation object.
func (a *Attestation) HashTreeRoot() ([32]byte, error) {
	return hashWithDefaultHasher(a.HashTreeRootWith)
}

// HashTreeRootWith ssz hashes the Attestation object with a hasher.
func (a *Attestation) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()

	if len(a.AggregationBits) == 0 {
		return ssz.ErrEmptyBitlist
	}
	hh.PutBitlist(a.AggregationBits, params.BeaconConfig().MaxValidatorsPerCommittee)

	if err := a.Data.HashTreeRootWith(hh); err != nil {
		return err
	}

	if len(a.Signature) != params.BeaconConfig().BLSSignatureLength {
		return ssz.ErrBytesLength
	}
	hh.PutBytes(a.Signature)

	hh.Merkleize(indx)
	return nil
}

// hashWithDefaultHasher runs fn against a pooled hasher and returns the root.
func hashWithDefaultHasher(fn func(hh *ssz.Hasher) error) ([32]byte, error) {
	hh := ssz.DefaultHasherPool.Get()
	if err := fn(hh); err != nil {
		ssz.DefaultHasherPool.Put(hh)
		return [32]byte{}, err
	}
	root, err := hh.HashRoot()
	ssz.DefaultHasherPool.Put(hh)
	return root, err
}
