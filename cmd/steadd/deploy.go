package main

import (
	"path/filepath"

	"github.com/pkg/errors"
	"gitlab.com/NebulousLabs/Sia/crypto"
	"gitlab.com/NebulousLabs/Sia/persist"
	"gitlab.com/NebulousLabs/Sia/types"
	"lukechampine.com/stead/cmd/steadd/api"
	"lukechampine.com/stead/stead"
)

var deployMeta = persist.Metadata{
	Header:  "stead deployment",
	Version: "0.1.0",
}

// A deployment records the outcome of a deploy.
type deployment struct {
	Action       string         `json:"action"`
	State        crypto.Hash    `json:"state"`
	Deployer     string         `json:"deployer"`
	FeeRecipient string         `json:"feeRecipient"`
	FeeRateBps   uint16         `json:"feeRateBps"`
	Deposit      types.Currency `json:"deposit"`
}

// deploy initializes the fee registry, or updates it if it already exists,
// and writes the result to deployment.json in dir.
func deploy(c *api.Client, sk crypto.SecretKey, feeRecipient crypto.PublicKey, feeRateBps uint16, dir string) (deployment, error) {
	pk := sk.PublicKey()
	action := "initialized"
	is := stead.NewInitializeState(pk, feeRecipient, feeRateBps)
	fr, err := c.InitializeState(is, stead.NewAuth(is, sk))
	if errors.Is(err, stead.ErrAlreadyInitialized) {
		action = "updated"
		ss := stead.NewSetState(pk, feeRecipient, feeRateBps)
		fr, err = c.SetState(ss, stead.NewAuth(ss, sk))
	}
	if err != nil {
		return deployment{}, errors.Wrap(err, "could not deploy fee registry")
	}
	d := deployment{
		Action:       action,
		State:        stead.StateAddress(),
		Deployer:     api.KeyString(pk),
		FeeRecipient: api.KeyString(fr.FeeRecipient),
		FeeRateBps:   fr.FeeRateBps,
		Deposit:      fr.Deposit,
	}
	if err := persist.SaveJSON(deployMeta, d, filepath.Join(dir, "deployment.json")); err != nil {
		return deployment{}, errors.Wrap(err, "could not write deployment file")
	}
	return d, nil
}
