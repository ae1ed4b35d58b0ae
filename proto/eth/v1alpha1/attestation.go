// Package eth defines the phase0 consensus datatypes that the attestation
// pool operates on.
package eth

import (
	types "github.com/prysmaticlabs/eth2-types"
	"github.com/prysmaticlabs/go-bitfield"
)

// Checkpoint is an (epoch, root) pair referencing a finality candidate block.
type Checkpoint struct {
	Epoch types.Epoch
	Root  []byte
}

// AttestationData is the payload a committee votes on. Two attestations with
// equal data hash tree roots can be aggregated together.
type AttestationData struct {
	Slot            types.Slot
	CommitteeIndex  types.CommitteeIndex
	BeaconBlockRoot []byte
	Source          *Checkpoint
	Target          *Checkpoint
}

// Attestation is a committee vote. A set bit at position i of the aggregation
// bits means the i'th member of the committee signed the data.
type Attestation struct {
	AggregationBits bitfield.Bitlist
	Data            *AttestationData
	Signature       []byte
}

// CopyCheckpoint copies the provided checkpoint.
func CopyCheckpoint(c *Checkpoint) *Checkpoint {
	if c == nil {
		return nil
	}
	return &Checkpoint{
		Epoch: c.Epoch,
		Root:  safeCopyBytes(c.Root),
	}
}

// CopyAttestationData copies the provided attestation data.
func CopyAttestationData(d *AttestationData) *AttestationData {
	if d == nil {
		return nil
	}
	return &AttestationData{
		Slot:            d.Slot,
		CommitteeIndex:  d.CommitteeIndex,
		BeaconBlockRoot: safeCopyBytes(d.BeaconBlockRoot),
		Source:          CopyCheckpoint(d.Source),
		Target:          CopyCheckpoint(d.Target),
	}
}

// CopyAttestation copies the provided attestation, including its bits and
// signature, so that mutations of the copy never reach the original.
func CopyAttestation(a *Attestation) *Attestation {
	if a == nil {
		return nil
	}
	return &Attestation{
		AggregationBits: safeCopyBytes(a.AggregationBits),
		Data:            CopyAttestationData(a.Data),
		Signature:       safeCopyBytes(a.Signature),
	}
}

func safeCopyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
