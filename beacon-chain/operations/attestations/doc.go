// Package attestations maintains a pool of attestations gathered from
// gossip. Attestations can be retrieved either for inclusion in a proposed
// block or as an aggregate to publish as part of the naive attestation
// aggregation algorithm. In both cases the returned attestations are
// aggregated to maximise the number of validators represented.
package attestations
