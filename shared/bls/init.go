// Package bls implements a go-wrapper around the herumi BLS12-381 library.
// It exposes the signing and aggregation primitives the beacon chain uses
// for attestations.
package bls

import bls12 "github.com/herumi/bls-eth-go-binary/bls"

func init() {
	if err := bls12.Init(bls12.BLS12_381); err != nil {
		panic(err)
	}
	if err := bls12.SetETHmode(bls12.EthModeDraft07); err != nil {
		panic(err)
	}
	// Check subgroup order for pubkeys and signatures.
	bls12.VerifyPublicKeyOrder(true)
	bls12.VerifySignatureOrder(true)
}
