package attestations

import (
	"sync"
	"sync/atomic"

	"github.com/google/btree"
	"github.com/pkg/errors"
	types "github.com/prysmaticlabs/eth2-types"

	ethpb "github.com/KenMan79/teku/proto/eth/v1alpha1"
	"github.com/KenMan79/teku/shared/params"
)

// ErrMissingCommitteeShufflingSeed is returned when an attestation reaches
// the pool without its committee shuffling seed attached. The pool does not
// attempt recovery.
var ErrMissingCommitteeShufflingSeed = errors.New("validateable attestation does not have a committee shuffling seed")

// slotIndexDegree is the branching factor of the slot index btree.
const slotIndexDegree = 32

// AggregatingAttestationPool indexes attestations by the hash tree root of
// their data and by slot. All mutating operations and the block selection
// walk are serialized by one coarse lock; the size counter is read without
// it.
type AggregatingAttestationPool struct {
	lock                       sync.RWMutex
	attestationGroupByDataRoot map[[32]byte]*MatchingDataAttestationGroup
	dataRootBySlot             *btree.BTree
	size                       int64

	spec Spec
}

// slotDataRoots is a slot index entry: the set of attestation data roots
// seen for one slot.
type slotDataRoots struct {
	slot  types.Slot
	roots map[[32]byte]struct{}
}

func (s *slotDataRoots) Less(than btree.Item) bool {
	return s.slot < than.(*slotDataRoots).slot
}

// NewAggregatingAttestationPool creates an empty pool backed by the given
// spec provider.
func NewAggregatingAttestationPool(spec Spec) *AggregatingAttestationPool {
	return &AggregatingAttestationPool{
		attestationGroupByDataRoot: make(map[[32]byte]*MatchingDataAttestationGroup),
		dataRootBySlot:             btree.New(slotIndexDegree),
		spec:                       spec,
	}
}

// Add indexes an individually validated attestation. The matching data
// group for its data root is created on first use; group creation requires
// the committee shuffling seed to be present on the wrapper.
func (p *AggregatingAttestationPool) Add(att *ValidateableAttestation) error {
	if att == nil || att.Attestation == nil || att.Attestation.Data == nil {
		return errors.New("nil attestation")
	}
	data := att.Attestation.Data
	dataRoot, err := data.HashTreeRoot()
	if err != nil {
		return errors.Wrap(err, "could not tree hash attestation data")
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	group, ok := p.attestationGroupByDataRoot[dataRoot]
	if !ok {
		if !att.HasCommitteeShufflingSeed() {
			return ErrMissingCommitteeShufflingSeed
		}
		group = NewMatchingDataAttestationGroup(data, att.CommitteeShufflingSeed)
		p.attestationGroupByDataRoot[dataRoot] = group
	}
	if group.Add(att) {
		p.updateSize(1)
	} else if group.IsEmpty() {
		// The pool never keeps an empty group around.
		delete(p.attestationGroupByDataRoot, dataRoot)
		return nil
	}
	p.slotEntry(data.Slot).roots[dataRoot] = struct{}{}
	return nil
}

// Remove subtracts the given attestation's bits from the pool: every stored
// attestation fully covered by them is dropped. Unknown data roots are a
// no-op.
func (p *AggregatingAttestationPool) Remove(att *ethpb.Attestation) error {
	if att == nil || att.Data == nil {
		return nil
	}
	dataRoot, err := att.Data.HashTreeRoot()
	if err != nil {
		return errors.Wrap(err, "could not tree hash attestation data")
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	group, ok := p.attestationGroupByDataRoot[dataRoot]
	if !ok {
		return nil
	}
	removed := group.Remove(att)
	p.updateSize(int64(-removed))
	if group.IsEmpty() {
		delete(p.attestationGroupByDataRoot, dataRoot)
		p.removeFromSlotMappings(att.Data.Slot, dataRoot)
	}
	return nil
}

// RemoveAll removes each of the given attestations, typically after they
// were included in a canonical block.
func (p *AggregatingAttestationPool) RemoveAll(atts []*ethpb.Attestation) error {
	for _, att := range atts {
		if err := p.Remove(att); err != nil {
			return err
		}
	}
	return nil
}

// OnSlot prunes every group whose attestation slot has fallen out of the
// retention window. Retention is slot arithmetic on the slot embedded in
// the attestation data, not wall-clock time.
func (p *AggregatingAttestationPool) OnSlot(slot types.Slot) {
	retentionSlots := params.BeaconConfig().SlotsPerEpoch * types.Slot(params.BeaconConfig().AttestationRetentionEpochs)
	if slot <= retentionSlots {
		return
	}
	firstValidSlot := slot - retentionSlots

	p.lock.Lock()
	defer p.lock.Unlock()

	var expired []*slotDataRoots
	p.dataRootBySlot.AscendLessThan(&slotDataRoots{slot: firstValidSlot}, func(i btree.Item) bool {
		expired = append(expired, i.(*slotDataRoots))
		return true
	})
	for _, entry := range expired {
		for dataRoot := range entry.roots {
			group, ok := p.attestationGroupByDataRoot[dataRoot]
			if !ok {
				continue
			}
			p.updateSize(int64(-group.Size()))
			delete(p.attestationGroupByDataRoot, dataRoot)
		}
		p.dataRootBySlot.Delete(entry)
	}
}

// CreateAggregateFor returns the best aggregate currently available for the
// given attestation data root, or false if the pool holds no group for it.
func (p *AggregatingAttestationPool) CreateAggregateFor(dataRoot [32]byte) (*ValidateableAttestation, bool) {
	p.lock.RLock()
	defer p.lock.RUnlock()

	group, ok := p.attestationGroupByDataRoot[dataRoot]
	if !ok {
		return nil, false
	}
	return group.Stream().Next()
}

// GetAttestations returns the aggregates of every group in the pool, newest
// slots first, optionally filtered by slot and committee index. No
// retention or validity filters are applied.
func (p *AggregatingAttestationPool) GetAttestations(maybeSlot *types.Slot, maybeCommitteeIndex *types.CommitteeIndex) []*ethpb.Attestation {
	p.lock.RLock()
	defer p.lock.RUnlock()

	atts := make([]*ethpb.Attestation, 0)
	p.dataRootBySlot.Descend(func(i btree.Item) bool {
		entry := i.(*slotDataRoots)
		if maybeSlot != nil && entry.slot != *maybeSlot {
			return true
		}
		for dataRoot := range entry.roots {
			group, ok := p.attestationGroupByDataRoot[dataRoot]
			if !ok {
				// The slot index can briefly reference an already pruned
				// group; skip it.
				continue
			}
			if maybeCommitteeIndex != nil && group.data.CommitteeIndex != *maybeCommitteeIndex {
				continue
			}
			st := group.Stream()
			for att, ok := st.Next(); ok; att, ok = st.Next() {
				atts = append(atts, att.Attestation)
			}
		}
		return true
	})
	return atts
}

// GetSize returns the number of attestations across all groups.
func (p *AggregatingAttestationPool) GetSize() int {
	return int(atomic.LoadInt64(&p.size))
}

func (p *AggregatingAttestationPool) updateSize(delta int64) {
	size := atomic.AddInt64(&p.size, delta)
	attestationPoolSizeGauge.Set(float64(size))
}

// slotEntry returns the slot index entry for the given slot, creating it if
// absent. Callers must hold the write lock.
func (p *AggregatingAttestationPool) slotEntry(slot types.Slot) *slotDataRoots {
	if item := p.dataRootBySlot.Get(&slotDataRoots{slot: slot}); item != nil {
		return item.(*slotDataRoots)
	}
	entry := &slotDataRoots{slot: slot, roots: make(map[[32]byte]struct{})}
	p.dataRootBySlot.ReplaceOrInsert(entry)
	return entry
}

func (p *AggregatingAttestationPool) removeFromSlotMappings(slot types.Slot, dataRoot [32]byte) {
	item := p.dataRootBySlot.Get(&slotDataRoots{slot: slot})
	if item == nil {
		return
	}
	entry := item.(*slotDataRoots)
	delete(entry.roots, dataRoot)
	if len(entry.roots) == 0 {
		p.dataRootBySlot.Delete(entry)
	}
}
