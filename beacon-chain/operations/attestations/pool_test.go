package attestations

import (
	"testing"

	types "github.com/prysmaticlabs/eth2-types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ethpb "github.com/KenMan79/teku/proto/eth/v1alpha1"
	"github.com/KenMan79/teku/shared/params"
)

func TestPool_Add_TracksSize(t *testing.T) {
	pool := NewAggregatingAttestationPool(nil)
	data := testData(1, 0)

	require.NoError(t, pool.Add(validateable(signedAtt(data, bitsOf(8, 0)))))
	require.NoError(t, pool.Add(validateable(signedAtt(data, bitsOf(8, 1)))))
	assert.Equal(t, 2, pool.GetSize())

	// A strict subset of the seen bits does not grow the pool.
	require.NoError(t, pool.Add(validateable(signedAtt(data, bitsOf(8, 0)))))
	assert.Equal(t, 2, pool.GetSize())
}

func TestPool_Add_MissingShufflingSeed(t *testing.T) {
	pool := NewAggregatingAttestationPool(nil)
	att := NewValidateableAttestation(signedAtt(testData(1, 0), bitsOf(8, 0)), nil)

	err := pool.Add(att)
	require.ErrorIs(t, err, ErrMissingCommitteeShufflingSeed)
	assert.Equal(t, 0, pool.GetSize())

	// The failed add must not leave a group behind.
	assert.Empty(t, pool.GetAttestations(nil, nil))
}

func TestPool_Add_SeedOnlyRequiredForGroupCreation(t *testing.T) {
	pool := NewAggregatingAttestationPool(nil)
	data := testData(1, 0)

	require.NoError(t, pool.Add(validateable(signedAtt(data, bitsOf(8, 0)))))

	// The group exists, so a wrapper without a seed joins it.
	bare := NewValidateableAttestation(signedAtt(data, bitsOf(8, 1)), nil)
	require.NoError(t, pool.Add(bare))
	assert.Equal(t, 2, pool.GetSize())
}

func TestPool_CreateAggregateFor(t *testing.T) {
	pool := NewAggregatingAttestationPool(nil)
	data := testData(1, 0)

	require.NoError(t, pool.Add(validateable(signedAtt(data, bitsOf(8, 0)))))
	require.NoError(t, pool.Add(validateable(signedAtt(data, bitsOf(8, 1)))))

	agg, ok := pool.CreateAggregateFor(dataRootOf(t, data))
	require.True(t, ok)
	assert.Equal(t, []byte(bitsOf(8, 0, 1)), []byte(agg.Attestation.AggregationBits))
	assert.Equal(t, testSeed, agg.CommitteeShufflingSeed)
	assert.Equal(t, 2, pool.GetSize())
}

func TestPool_CreateAggregateFor_UnknownRoot(t *testing.T) {
	pool := NewAggregatingAttestationPool(nil)
	agg, ok := pool.CreateAggregateFor([32]byte{0xab})
	assert.False(t, ok)
	assert.Nil(t, agg)
}

func TestPool_Remove_BitSubtractionAcrossPool(t *testing.T) {
	pool := NewAggregatingAttestationPool(nil)
	data := testData(1, 0)

	require.NoError(t, pool.Add(validateable(signedAtt(data, bitsOf(8, 0, 1, 2, 3)))))
	require.NoError(t, pool.Add(validateable(signedAtt(data, bitsOf(8, 4, 5, 6, 7)))))

	require.NoError(t, pool.Remove(signedAtt(data, bitsOf(8, 0, 1, 2, 3))))
	assert.Equal(t, 1, pool.GetSize())

	atts := pool.GetAttestations(nil, nil)
	require.Len(t, atts, 1)
	assert.Equal(t, []byte(bitsOf(8, 4, 5, 6, 7)), []byte(atts[0].AggregationBits))
}

func TestPool_Remove_UnknownDataIsSilent(t *testing.T) {
	pool := NewAggregatingAttestationPool(nil)
	require.NoError(t, pool.Remove(signedAtt(testData(7, 3), bitsOf(8, 0))))
	assert.Equal(t, 0, pool.GetSize())
}

func TestPool_Remove_DrainedGroupLeavesNoMappings(t *testing.T) {
	pool := NewAggregatingAttestationPool(nil)
	data := testData(5, 0)

	require.NoError(t, pool.Add(validateable(signedAtt(data, bitsOf(8, 0)))))
	require.NoError(t, pool.Remove(signedAtt(data, bitsOf(8, 0, 1))))

	assert.Equal(t, 0, pool.GetSize())
	slot := types.Slot(5)
	assert.Empty(t, pool.GetAttestations(&slot, nil))
	_, ok := pool.CreateAggregateFor(dataRootOf(t, data))
	assert.False(t, ok)

	// Removing again is a no-op.
	require.NoError(t, pool.Remove(signedAtt(data, bitsOf(8, 0, 1))))
	assert.Equal(t, 0, pool.GetSize())
}

func TestPool_RemoveAll(t *testing.T) {
	pool := NewAggregatingAttestationPool(nil)
	data1 := testData(1, 0)
	data2 := testData(2, 0)

	a := signedAtt(data1, bitsOf(8, 0))
	b := signedAtt(data2, bitsOf(8, 1))
	require.NoError(t, pool.Add(validateable(a)))
	require.NoError(t, pool.Add(validateable(b)))
	require.Equal(t, 2, pool.GetSize())

	require.NoError(t, pool.RemoveAll([]*ethpb.Attestation{a, b}))
	assert.Equal(t, 0, pool.GetSize())
}

func TestPool_GetAttestations_Filters(t *testing.T) {
	pool := NewAggregatingAttestationPool(nil)

	require.NoError(t, pool.Add(validateable(signedAtt(testData(1, 0), bitsOf(8, 0)))))
	require.NoError(t, pool.Add(validateable(signedAtt(testData(1, 1), bitsOf(8, 1)))))
	require.NoError(t, pool.Add(validateable(signedAtt(testData(2, 0), bitsOf(8, 2)))))

	all := pool.GetAttestations(nil, nil)
	require.Len(t, all, 3)
	// Newest slots first.
	assert.Equal(t, types.Slot(2), all[0].Data.Slot)

	slot := types.Slot(1)
	bySlot := pool.GetAttestations(&slot, nil)
	require.Len(t, bySlot, 2)
	for _, att := range bySlot {
		assert.Equal(t, types.Slot(1), att.Data.Slot)
	}

	index := types.CommitteeIndex(1)
	byBoth := pool.GetAttestations(&slot, &index)
	require.Len(t, byBoth, 1)
	assert.Equal(t, index, byBoth[0].Data.CommitteeIndex)

	missingSlot := types.Slot(9)
	assert.Empty(t, pool.GetAttestations(&missingSlot, nil))
}

func TestPool_GetAttestations_ContainsAddedBits(t *testing.T) {
	pool := NewAggregatingAttestationPool(nil)
	data := testData(4, 2)

	added := bitsOf(8, 3)
	require.NoError(t, pool.Add(validateable(signedAtt(data, added))))
	require.NoError(t, pool.Add(validateable(signedAtt(data, bitsOf(8, 5)))))

	slot := types.Slot(4)
	index := types.CommitteeIndex(2)
	atts := pool.GetAttestations(&slot, &index)
	require.NotEmpty(t, atts)

	// The aggregate may have grown, but it covers the added bits.
	found := false
	for _, att := range atts {
		if contains, _ := att.AggregationBits.Contains(added); contains {
			found = true
		}
	}
	assert.True(t, found, "no aggregate covers the added attestation")
}

func TestPool_OnSlot_Retention(t *testing.T) {
	cfg := params.MinimalSpecConfig()
	cfg.SlotsPerEpoch = 32
	cfg.AttestationRetentionEpochs = 2
	useConfig(t, cfg)

	pool := NewAggregatingAttestationPool(nil)
	require.NoError(t, pool.Add(validateable(signedAtt(testData(10, 0), bitsOf(8, 0)))))
	require.NoError(t, pool.Add(validateable(signedAtt(testData(50, 0), bitsOf(8, 1)))))
	require.Equal(t, 2, pool.GetSize())

	// Inside the retention window nothing moves.
	pool.OnSlot(64)
	assert.Equal(t, 2, pool.GetSize())

	// Slot 100 retains [36, 100]; the group at slot 10 is erased.
	pool.OnSlot(100)
	assert.Equal(t, 1, pool.GetSize())
	slot := types.Slot(10)
	assert.Empty(t, pool.GetAttestations(&slot, nil))
	_, ok := pool.CreateAggregateFor(dataRootOf(t, testData(10, 0)))
	assert.False(t, ok)

	kept := types.Slot(50)
	assert.Len(t, pool.GetAttestations(&kept, nil), 1)
}

func TestPool_OnSlot_PrunesWholeGroups(t *testing.T) {
	cfg := params.MinimalSpecConfig()
	cfg.SlotsPerEpoch = 32
	cfg.AttestationRetentionEpochs = 2
	useConfig(t, cfg)

	pool := NewAggregatingAttestationPool(nil)
	data := testData(10, 0)
	require.NoError(t, pool.Add(validateable(signedAtt(data, bitsOf(8, 0)))))
	require.NoError(t, pool.Add(validateable(signedAtt(data, bitsOf(8, 1)))))
	require.NoError(t, pool.Add(validateable(signedAtt(data, bitsOf(8, 2)))))
	require.Equal(t, 3, pool.GetSize())

	pool.OnSlot(100)
	assert.Equal(t, 0, pool.GetSize())
	assert.Empty(t, pool.GetAttestations(nil, nil))
}
