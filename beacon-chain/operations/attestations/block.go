package attestations

import (
	"context"

	"github.com/google/btree"
	types "github.com/prysmaticlabs/eth2-types"
	"go.opencensus.io/trace"

	ethpb "github.com/KenMan79/teku/proto/eth/v1alpha1"
	"github.com/KenMan79/teku/shared/params"
)

// BeaconState is the read-only view of the state at the slot of the block
// being proposed.
type BeaconState interface {
	Slot() types.Slot
}

// Spec validates attestation data against a beacon state and answers epoch
// arithmetic. The pool treats it as an oracle.
type Spec interface {
	CurrentEpoch(state BeaconState) types.Epoch
	ComputeEpochAtSlot(slot types.Slot) types.Epoch
	// PreviousEpochAttestationCapacity reports how many more previous
	// epoch attestations still fit into the state under the per-epoch cap.
	PreviousEpochAttestationCapacity(state BeaconState) int
	// ValidateAttestation returns nil when the data can be applied to the
	// given state.
	ValidateAttestation(state BeaconState, data *ethpb.AttestationData) error
}

// ForkChecker reports whether attestation data belongs to the fork expected
// at the block being proposed.
type ForkChecker interface {
	AreAttestationsFromCorrectFork(data *ethpb.AttestationData) bool
}

// GetAttestationsForBlock returns the attestations to include in a block
// proposed on top of the given state, walking the pool newest slot first so
// inclusion favors attestations with the highest remaining reward value.
// Groups failing state validation or the fork check are skipped. The
// MaxAttestations cap is applied to the streamed aggregates before the
// previous epoch filter; a previous epoch attestation rejected by the
// capacity limit therefore still consumes cap budget.
func (p *AggregatingAttestationPool) GetAttestationsForBlock(ctx context.Context, stateAtBlockSlot BeaconState, forkChecker ForkChecker) []*ethpb.Attestation {
	_, span := trace.StartSpan(ctx, "attestationPool.GetAttestationsForBlock")
	defer span.End()

	currentEpoch := p.spec.CurrentEpoch(stateAtBlockSlot)
	previousEpochLimit := p.spec.PreviousEpochAttestationCapacity(stateAtBlockSlot)
	maxAttestations := int(params.BeaconConfig().MaxAttestations)

	p.lock.RLock()
	defer p.lock.RUnlock()

	atts := make([]*ethpb.Attestation, 0, maxAttestations)
	streamed := 0
	prevEpochCount := 0
	p.dataRootBySlot.Descend(func(i btree.Item) bool {
		entry := i.(*slotDataRoots)
		for dataRoot := range entry.roots {
			group, ok := p.attestationGroupByDataRoot[dataRoot]
			if !ok {
				continue
			}
			if err := p.spec.ValidateAttestation(stateAtBlockSlot, group.data); err != nil {
				continue
			}
			if !forkChecker.AreAttestationsFromCorrectFork(group.data) {
				continue
			}
			st := group.Stream()
			for agg, ok := st.Next(); ok; agg, ok = st.Next() {
				if streamed == maxAttestations {
					return false
				}
				streamed++
				att := agg.Attestation
				if p.spec.ComputeEpochAtSlot(att.Data.Slot) < currentEpoch {
					count := prevEpochCount
					prevEpochCount++
					if count >= previousEpochLimit {
						continue
					}
				}
				atts = append(atts, att)
			}
		}
		return true
	})
	return atts
}
