package stead

import (
	"github.com/pkg/errors"
	"gitlab.com/NebulousLabs/Sia/crypto"
	"lukechampine.com/stead/ledger"
)

// signerSet is the set of keys that validly signed a request.
type signerSet map[crypto.PublicKey]struct{}

// require returns ErrMissingSignature unless pk signed the request.
func (s signerSet) require(role string, pk crypto.PublicKey) error {
	if _, ok := s[pk]; !ok {
		return errors.Wrapf(ErrMissingSignature, "%v did not sign", role)
	}
	return nil
}

// verifyAuth checks every signature in auth against the sighash of ins. A
// single invalid signature rejects the whole request.
func verifyAuth(ins Instruction, auth Auth) (signerSet, crypto.Hash, error) {
	sighash := SigHash(ins, auth.Nonce)
	signers := make(signerSet, len(auth.Signatures))
	for i, sig := range auth.Signatures {
		if err := crypto.VerifyHash(sighash, sig.PublicKey, sig.Signature); err != nil {
			return nil, crypto.Hash{}, errors.Wrapf(ErrUnauthorized, "signature %v is invalid", i)
		}
		signers[sig.PublicKey] = struct{}{}
	}
	return signers, sighash, nil
}

// markExecuted records sighash, rejecting requests that have already been
// executed.
func markExecuted(tx ledger.Tx, sighash crypto.Hash) error {
	if tx.Get(bucketSeen, sighash[:]) != nil {
		return ErrReplayed
	}
	return tx.Put(bucketSeen, sighash[:], []byte{1})
}

// checkAddress returns ErrInvalidAccount if a supplied address differs from
// the one recomputed from the request's inputs.
func checkAddress(name string, supplied, expected crypto.Hash) error {
	if supplied != expected {
		return errors.Wrapf(ErrInvalidAccount, "%v: expected %v, got %v", name, expected, supplied)
	}
	return nil
}

// checkRole returns kind unless the key named by the request matches the key
// recorded for the role.
func checkRole(role string, supplied, expected crypto.PublicKey, kind error) error {
	if supplied != expected {
		return errors.Wrapf(kind, "%v mismatch", role)
	}
	return nil
}

// apply executes fn as a single unit of work, after verifying the request's
// signatures and rejecting replays.
func (p *Program) apply(ins Instruction, auth Auth, fn func(tx ledger.Tx, signers signerSet) error) error {
	signers, sighash, err := verifyAuth(ins, auth)
	if err != nil {
		return err
	}
	err = p.store.Update(func(tx ledger.Tx) error {
		if err := markExecuted(tx, sighash); err != nil {
			return err
		}
		return fn(tx, signers)
	})
	if err != nil {
		p.log.Debugln("request", ins.specifier(), "rejected:", err)
	}
	return err
}
