// Package params defines the chain constants the beacon node services rely
// on, together with the hooks tests use to swap presets.
package params

import (
	types "github.com/prysmaticlabs/eth2-types"
)

// BeaconChainConfig contains the constant configs the node needs to
// participate in the beacon chain.
type BeaconChainConfig struct {
	// Time parameters.
	SecondsPerSlot uint64     `yaml:"SECONDS_PER_SLOT" spec:"true"`
	SlotsPerEpoch  types.Slot `yaml:"SLOTS_PER_EPOCH" spec:"true"`
	GenesisEpoch   types.Epoch

	// Operation caps.
	MaxAttestations           uint64 `yaml:"MAX_ATTESTATIONS" spec:"true"`
	MaxValidatorsPerCommittee uint64 `yaml:"MAX_VALIDATORS_PER_COMMITTEE" spec:"true"`

	// Pool retention. Attestations whose slot is older than
	// SlotsPerEpoch*AttestationRetentionEpochs are pruned.
	AttestationRetentionEpochs types.Epoch

	// BLS encoding lengths.
	BLSSecretKeyLength int
	BLSPubkeyLength    int
	BLSSignatureLength int
}

var beaconConfig = MainnetConfig()

// BeaconConfig retrieves the beacon chain config in use.
func BeaconConfig() *BeaconChainConfig {
	return beaconConfig
}

// OverrideBeaconConfig by replacing the config in use. Any service
// holding references obtained from BeaconConfig before the override
// keeps the old values.
func OverrideBeaconConfig(c *BeaconChainConfig) {
	beaconConfig = c
}
