package attestations

import (
	"sort"

	"github.com/prysmaticlabs/go-bitfield"

	ethpb "github.com/KenMan79/teku/proto/eth/v1alpha1"
	"github.com/KenMan79/teku/shared/bls"
)

// MatchingDataAttestationGroup holds attestations that all share the same
// attestation data and therefore the same committee. It answers one
// question: given the attestations currently held, what is a small set of
// aggregates, each folded from mutually disjoint attestations, that between
// them cover the maximal union of validators? Aggregates built from
// different seeds may share bits when stored attestations partially
// overlap.
type MatchingDataAttestationGroup struct {
	data                   *ethpb.AttestationData
	committeeShufflingSeed []byte

	// atts is kept ordered by participant count, descending. Insertion
	// order breaks ties, so streaming is deterministic for a given state.
	atts []*ValidateableAttestation

	// seenAggregationBits is the union of the bits of every attestation
	// ever added to the group. It never shrinks on Remove, which stops
	// strict subsets of already served aggregates from re-entering.
	seenAggregationBits bitfield.Bitlist
}

// NewMatchingDataAttestationGroup creates an empty group for the given data
// and committee shuffling seed.
func NewMatchingDataAttestationGroup(data *ethpb.AttestationData, committeeShufflingSeed []byte) *MatchingDataAttestationGroup {
	return &MatchingDataAttestationGroup{
		data:                   data,
		committeeShufflingSeed: committeeShufflingSeed,
	}
}

// AttestationData returns the data shared by every attestation in the group.
func (g *MatchingDataAttestationGroup) AttestationData() *ethpb.AttestationData {
	return g.data
}

// Add stores the attestation if it contributes at least one validator bit
// not yet seen by the group. Returns true if the attestation was stored.
func (g *MatchingDataAttestationGroup) Add(att *ValidateableAttestation) bool {
	bits := att.Attestation.AggregationBits
	if bits.Count() == 0 {
		return false
	}
	if g.seenAggregationBits == nil {
		g.seenAggregationBits = bitfield.NewBitlist(bits.Len())
	} else if g.seenAggregationBits.Len() != bits.Len() {
		// Bit length mismatch means the attestation cannot belong to this
		// committee.
		return false
	}
	if contains, _ := g.seenAggregationBits.Contains(bits); contains {
		return false
	}
	g.seenAggregationBits, _ = g.seenAggregationBits.Or(bits)
	g.insert(att)
	return true
}

func (g *MatchingDataAttestationGroup) insert(att *ValidateableAttestation) {
	count := att.Attestation.AggregationBits.Count()
	i := sort.Search(len(g.atts), func(i int) bool {
		return g.atts[i].Attestation.AggregationBits.Count() < count
	})
	g.atts = append(g.atts, nil)
	copy(g.atts[i+1:], g.atts[i:])
	g.atts[i] = att
}

// Size returns the number of attestations currently stored.
func (g *MatchingDataAttestationGroup) Size() int {
	return len(g.atts)
}

// IsEmpty reports whether the group holds no attestations.
func (g *MatchingDataAttestationGroup) IsEmpty() bool {
	return len(g.atts) == 0
}

// Remove drops every stored attestation whose bits are fully covered by the
// bits of the given attestation, and returns the number dropped. Stored
// attestations that only partially overlap are left untouched. The seen
// bits are deliberately not cleared.
func (g *MatchingDataAttestationGroup) Remove(att *ethpb.Attestation) int {
	bits := att.AggregationBits
	if g.seenAggregationBits == nil || g.seenAggregationBits.Len() != bits.Len() {
		return 0
	}
	kept := g.atts[:0]
	removed := 0
	for _, stored := range g.atts {
		if contains, _ := bits.Contains(stored.Attestation.AggregationBits); contains {
			removed++
			continue
		}
		kept = append(kept, stored)
	}
	for i := len(kept); i < len(g.atts); i++ {
		g.atts[i] = nil
	}
	g.atts = kept
	return removed
}

// Stream returns a lazy sequence of aggregates over the currently stored
// attestations. Every stored attestation contributes to exactly one emitted
// aggregate. The stream is finite and must not be consumed across pool
// mutations.
func (g *MatchingDataAttestationGroup) Stream() *AggregateStream {
	remaining := make([]*ValidateableAttestation, len(g.atts))
	copy(remaining, g.atts)
	return &AggregateStream{
		data:                   g.data,
		committeeShufflingSeed: g.committeeShufflingSeed,
		remaining:              remaining,
	}
}

// AggregateStream greedily folds mutually disjoint attestations into
// aggregates, one aggregate per Next call, largest seeds first.
type AggregateStream struct {
	data                   *ethpb.AttestationData
	committeeShufflingSeed []byte
	remaining              []*ValidateableAttestation
}

// Next produces the next aggregate, or false once the stream is exhausted.
func (st *AggregateStream) Next() (*ValidateableAttestation, bool) {
	if len(st.remaining) == 0 {
		return nil, false
	}
	seed := st.remaining[0]
	accumulated := []*ValidateableAttestation{seed}
	accumulatedBits := seed.Attestation.AggregationBits
	rest := make([]*ValidateableAttestation, 0, len(st.remaining)-1)
	for _, candidate := range st.remaining[1:] {
		candidateBits := candidate.Attestation.AggregationBits
		if overlaps, _ := candidateBits.Overlaps(accumulatedBits); overlaps {
			rest = append(rest, candidate)
			continue
		}
		accumulatedBits, _ = accumulatedBits.Or(candidateBits)
		accumulated = append(accumulated, candidate)
	}
	st.remaining = rest
	if len(accumulated) == 1 {
		return seed, true
	}
	agg, err := st.aggregate(accumulated, accumulatedBits)
	if err != nil {
		// Signatures are validated before attestations reach the pool, so
		// a decode failure here is tolerated: emit the seed alone and put
		// the rest back.
		log.WithError(err).Error("Could not aggregate attestations with matching data")
		st.remaining = append(accumulated[1:], rest...)
		return seed, true
	}
	return agg, true
}

func (st *AggregateStream) aggregate(atts []*ValidateableAttestation, bits bitfield.Bitlist) (*ValidateableAttestation, error) {
	sigs := make([]*bls.Signature, len(atts))
	for i, att := range atts {
		sig, err := bls.SignatureFromBytes(att.Attestation.Signature)
		if err != nil {
			return nil, err
		}
		sigs[i] = sig
	}
	return &ValidateableAttestation{
		Attestation: &ethpb.Attestation{
			AggregationBits: bits,
			Data:            ethpb.CopyAttestationData(st.data),
			Signature:       bls.AggregateSignatures(sigs).Marshal(),
		},
		CommitteeShufflingSeed: st.committeeShufflingSeed,
	}, nil
}
