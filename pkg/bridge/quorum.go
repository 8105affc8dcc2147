package bridge

import (
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/stor"
	"github.com/pkg/errors"
)

// SignatureInput is a (signer, signature blob) pair as supplied by the caller.
type SignatureInput struct {
	SignerID  string `json:"signerId"`
	Signature string `json:"signature"`
}

// QuorumVerifier enforces the structural quorum rules on a batch: enough
// signatures, distinct signers, non-empty blobs, and every signer present and
// active in the registry. Cryptographic verification of the blobs is the
// source ledger's job, not ours.
type QuorumVerifier struct {
	signerStor stor.SignerStor
}

func NewQuorumVerifier(signerStor stor.SignerStor) *QuorumVerifier {
	return &QuorumVerifier{signerStor: signerStor}
}

func (v *QuorumVerifier) Verify(signatures []SignatureInput, required int) error {
	if len(signatures) < required {
		return errors.Wrapf(ErrQuorumNotMet, "have %d signatures, need %d", len(signatures), required)
	}

	seen := make(map[string]bool)
	for _, sig := range signatures {
		if sig.SignerID == "" || sig.Signature == "" {
			return errors.Wrap(ErrQuorumNotMet, "signature entries must include signerId and signature")
		}

		if seen[sig.SignerID] {
			return errors.Wrapf(ErrQuorumNotMet, "duplicate signer %s", sig.SignerID)
		}
		seen[sig.SignerID] = true

		signer, err := v.signerStor.GetSignerBySignerID(sig.SignerID)
		switch {
		case stor.IsRecordNotFound(err):
			return errors.Wrapf(ErrQuorumNotMet, "unknown signer %s", sig.SignerID)
		case err != nil:
			return errors.Wrapf(err, "signer lookup failed for %s", sig.SignerID)
		case !signer.Active:
			return errors.Wrapf(ErrQuorumNotMet, "signer %s is not active", sig.SignerID)
		}
	}

	return nil
}
