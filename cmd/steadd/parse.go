package main

import (
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gitlab.com/NebulousLabs/Sia/crypto"
	"gitlab.com/NebulousLabs/Sia/types"
	"lukechampine.com/frand"
)

// parseCurrency parses a currency value with units, e.g. "1.5SC" or "100H".
func parseCurrency(s string) (types.Currency, error) {
	var hastings string
	if strings.HasSuffix(s, "H") {
		hastings = strings.TrimSuffix(s, "H")
	} else {
		units := []string{"pS", "nS", "uS", "mS", "SC", "KS", "MS", "GS", "TS"}
		for i, unit := range units {
			if strings.HasSuffix(s, unit) {
				r, ok := new(big.Rat).SetString(strings.TrimSuffix(s, unit))
				if !ok {
					return types.Currency{}, errors.New("malformed currency value")
				}
				exp := 24 + 3*(int64(i)-4)
				mag := new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil)
				r.Mul(r, new(big.Rat).SetInt(mag))
				if !r.IsInt() {
					return types.Currency{}, errors.New("non-integer number of hastings")
				}
				hastings = r.RatString()
				break
			}
		}
	}
	if hastings == "" {
		return types.Currency{}, errors.New("currency value is missing units")
	}
	var c types.Currency
	if _, err := fmt.Sscan(hastings, &c); err != nil {
		return types.Currency{}, errors.Wrap(err, "malformed currency value")
	}
	return c, nil
}

// loadKey reads the hex-encoded key seed at path. If the file does not exist,
// a new seed is generated and written to it.
func loadKey(path string) (crypto.SecretKey, error) {
	var entropy [crypto.EntropySize]byte
	b, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		frand.Read(entropy[:])
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return crypto.SecretKey{}, err
		}
		err = ioutil.WriteFile(path, []byte(hex.EncodeToString(entropy[:])+"\n"), 0600)
		if err != nil {
			return crypto.SecretKey{}, errors.Wrap(err, "could not write key file")
		}
	} else if err != nil {
		return crypto.SecretKey{}, errors.Wrap(err, "could not read key file")
	} else if s := strings.TrimSpace(string(b)); len(s) != hex.EncodedLen(len(entropy)) {
		return crypto.SecretKey{}, errors.New("key file has wrong length")
	} else if _, err := hex.Decode(entropy[:], []byte(s)); err != nil {
		return crypto.SecretKey{}, errors.Wrap(err, "key file is not valid hex")
	}
	sk, _ := crypto.GenerateKeyPairDeterministic(entropy)
	return sk, nil
}
