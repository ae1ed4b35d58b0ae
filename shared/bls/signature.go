package bls

import (
	"fmt"

	bls12 "github.com/herumi/bls-eth-go-binary/bls"
	"github.com/pkg/errors"

	"github.com/KenMan79/teku/shared/params"
)

// Signature used in the BLS signature scheme.
type Signature struct {
	s *bls12.Sign
}

// SignatureFromBytes creates a BLS signature from a BigEndian byte slice.
func SignatureFromBytes(sig []byte) (*Signature, error) {
	if len(sig) != params.BeaconConfig().BLSSignatureLength {
		return nil, fmt.Errorf("signature must be %d bytes", params.BeaconConfig().BLSSignatureLength)
	}
	signature := &bls12.Sign{}
	if err := signature.Deserialize(sig); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal bytes into signature")
	}
	return &Signature{s: signature}, nil
}

// Verify a bls signature given a public key and a message.
func (s *Signature) Verify(pubKey *PublicKey, msg []byte) bool {
	return s.s.VerifyByte(pubKey.p, msg)
}

// AggregateSignatures converts a list of signatures into a single, aggregated
// signature.
func AggregateSignatures(sigs []*Signature) *Signature {
	if len(sigs) == 0 {
		return nil
	}
	signature := *sigs[0].Copy().s
	for i := 1; i < len(sigs); i++ {
		signature.Add(sigs[i].s)
	}
	return &Signature{s: &signature}
}

// Marshal a signature into a BigEndian byte slice.
func (s *Signature) Marshal() []byte {
	return s.s.Serialize()
}

// Copy the signature to a new pointer reference.
func (s *Signature) Copy() *Signature {
	ns := *s.s
	return &Signature{s: &ns}
}
