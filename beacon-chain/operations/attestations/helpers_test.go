package attestations

import (
	"encoding/binary"
	"testing"

	types "github.com/prysmaticlabs/eth2-types"
	"github.com/prysmaticlabs/go-bitfield"

	ethpb "github.com/KenMan79/teku/proto/eth/v1alpha1"
	"github.com/KenMan79/teku/shared/bls"
	"github.com/KenMan79/teku/shared/params"
)

var (
	testKey  = bls.RandKey()
	testSeed = func() []byte {
		seed := make([]byte, 32)
		seed[0] = 0xfe
		return seed
	}()
)

// useConfig swaps in the given beacon config for the duration of the test.
func useConfig(t *testing.T, c *params.BeaconChainConfig) {
	prev := params.BeaconConfig()
	params.OverrideBeaconConfig(c)
	t.Cleanup(func() { params.OverrideBeaconConfig(prev) })
}

// testData builds attestation data whose root is unique per (slot, index).
func testData(slot types.Slot, committeeIndex types.CommitteeIndex) *ethpb.AttestationData {
	root := make([]byte, 32)
	binary.LittleEndian.PutUint64(root, uint64(slot))
	binary.LittleEndian.PutUint64(root[8:], uint64(committeeIndex))
	return &ethpb.AttestationData{
		Slot:            slot,
		CommitteeIndex:  committeeIndex,
		BeaconBlockRoot: root,
		Source:          &ethpb.Checkpoint{Epoch: 0, Root: make([]byte, 32)},
		Target:          &ethpb.Checkpoint{Epoch: 1, Root: make([]byte, 32)},
	}
}

// bitsOf builds a bitlist for a committee of the given size with the given
// participant positions set.
func bitsOf(committeeSize uint64, participants ...uint64) bitfield.Bitlist {
	b := bitfield.NewBitlist(committeeSize)
	for _, i := range participants {
		b.SetBitAt(i, true)
	}
	return b
}

func signedAtt(data *ethpb.AttestationData, bits bitfield.Bitlist) *ethpb.Attestation {
	return &ethpb.Attestation{
		AggregationBits: bits,
		Data:            data,
		Signature:       testKey.Sign([]byte("test signing root")).Marshal(),
	}
}

func validateable(att *ethpb.Attestation) *ValidateableAttestation {
	return NewValidateableAttestation(att, testSeed)
}

func dataRootOf(t *testing.T, data *ethpb.AttestationData) [32]byte {
	root, err := data.HashTreeRoot()
	if err != nil {
		t.Fatal(err)
	}
	return root
}

// drain consumes a stream to completion.
func drain(st *AggregateStream) []*ValidateableAttestation {
	var out []*ValidateableAttestation
	for att, ok := st.Next(); ok; att, ok = st.Next() {
		out = append(out, att)
	}
	return out
}
