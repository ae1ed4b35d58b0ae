package params

// MainnetConfig returns the configuration to be used in the main network.
func MainnetConfig() *BeaconChainConfig {
	return mainnetBeaconConfig
}

// UseMainnetConfig for beacon chain services.
func UseMainnetConfig() {
	beaconConfig = MainnetConfig()
}

var mainnetBeaconConfig = &BeaconChainConfig{
	// Time parameters.
	SecondsPerSlot: 12,
	SlotsPerEpoch:  32,
	GenesisEpoch:   0,

	// Operation caps.
	MaxAttestations:           128,
	MaxValidatorsPerCommittee: 2048,

	// Pool retention.
	AttestationRetentionEpochs: 2,

	// BLS encoding lengths.
	BLSSecretKeyLength: 32,
	BLSPubkeyLength:    48,
	BLSSignatureLength: 96,
}
