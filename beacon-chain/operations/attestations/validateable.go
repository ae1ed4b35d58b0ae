package attestations

import (
	ethpb "github.com/KenMan79/teku/proto/eth/v1alpha1"
)

// ValidateableAttestation wraps an attestation that has passed gossip
// validation together with the committee shuffling seed of the committee
// that produced it. The seed identifies the shuffling context and must be
// attached before the attestation reaches the pool.
type ValidateableAttestation struct {
	Attestation *ethpb.Attestation
	// CommitteeShufflingSeed is 32 bytes when present, empty otherwise.
	CommitteeShufflingSeed []byte
}

// NewValidateableAttestation wraps an attestation with its committee
// shuffling seed.
func NewValidateableAttestation(att *ethpb.Attestation, committeeShufflingSeed []byte) *ValidateableAttestation {
	return &ValidateableAttestation{
		Attestation:            att,
		CommitteeShufflingSeed: committeeShufflingSeed,
	}
}

// HasCommitteeShufflingSeed reports whether the shuffling seed is attached.
func (v *ValidateableAttestation) HasCommitteeShufflingSeed() bool {
	return len(v.CommitteeShufflingSeed) > 0
}
