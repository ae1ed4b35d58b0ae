package attestations

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/pkg/errors"
	types "github.com/prysmaticlabs/eth2-types"
	"go.opencensus.io/trace"

	"github.com/KenMan79/teku/shared/params"
)

var seenAttestationRootsSize = int64(1 << 16)

// Service drives the attestation pool inside a running beacon node: it
// advances the pool's slot clock to prune expired attestations and funnels
// gossip attestations into the pool, dropping roots seen recently.
type Service struct {
	ctx                  context.Context
	cancel               context.CancelFunc
	pool                 *AggregatingAttestationPool
	genesisTime          time.Time
	seenAttestationRoots *ristretto.Cache
	err                  error
}

// Config options for the attestation pool service.
type Config struct {
	Pool        *AggregatingAttestationPool
	GenesisTime time.Time
}

// NewService instantiates a new attestation pool service instance that will
// be registered into a running beacon node.
func NewService(ctx context.Context, cfg *Config) (*Service, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: seenAttestationRootsSize,
		MaxCost:     seenAttestationRootsSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Service{
		ctx:                  ctx,
		cancel:               cancel,
		pool:                 cfg.Pool,
		genesisTime:          cfg.GenesisTime,
		seenAttestationRoots: cache,
	}, nil
}

// Start the attestation pool service's main event loop.
func (s *Service) Start() {
	go s.slotRoutine()
}

// Stop the attestation pool service's main event loop and associated
// goroutines.
func (s *Service) Stop() error {
	defer s.cancel()
	return nil
}

// Status returns the current service err if there's any.
func (s *Service) Status() error {
	if s.err != nil {
		return s.err
	}
	return nil
}

// OnAttestation ingests a gossip attestation into the pool, skipping those
// whose root has been processed recently.
func (s *Service) OnAttestation(ctx context.Context, att *ValidateableAttestation) error {
	_, span := trace.StartSpan(ctx, "attestationPool.service.OnAttestation")
	defer span.End()

	if att == nil || att.Attestation == nil {
		return nil
	}
	root, err := att.Attestation.HashTreeRoot()
	if err != nil {
		return errors.Wrap(err, "could not tree hash attestation")
	}
	if _, ok := s.seenAttestationRoots.Get(string(root[:])); ok {
		return nil
	}
	if err := s.pool.Add(att); err != nil {
		return err
	}
	s.seenAttestationRoots.Set(string(root[:]), true, 1)
	return nil
}

// slotRoutine prunes the pool once per slot.
func (s *Service) slotRoutine() {
	secondsPerSlot := time.Duration(params.BeaconConfig().SecondsPerSlot) * time.Second
	ticker := time.NewTicker(secondsPerSlot)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.pool.OnSlot(s.currentSlot())
		}
	}
}

// currentSlot returns the spec slot for the current wall clock time.
func (s *Service) currentSlot() types.Slot {
	if s.genesisTime.IsZero() {
		return 0
	}
	sinceGenesis := time.Since(s.genesisTime)
	if sinceGenesis < 0 {
		return 0
	}
	return types.Slot(uint64(sinceGenesis.Seconds()) / params.BeaconConfig().SecondsPerSlot)
}
