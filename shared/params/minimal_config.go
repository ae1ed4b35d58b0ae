package params

// MinimalSpecConfig retrieves the minimal config used in spec tests.
func MinimalSpecConfig() *BeaconChainConfig {
	minimalConfig := *mainnetBeaconConfig

	// Time parameters.
	minimalConfig.SecondsPerSlot = 6
	minimalConfig.SlotsPerEpoch = 8

	return &minimalConfig
}

// UseMinimalConfig for beacon chain services.
func UseMinimalConfig() {
	beaconConfig = MinimalSpecConfig()
}
