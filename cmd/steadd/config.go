package main

import (
	"os"
	"os/user"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

var config struct {
	HTTPAddr    string `toml:"http_addr"`
	Dir         string `toml:"dir"`
	Dev         bool   `toml:"dev"`
	DepositRate string `toml:"deposit_rate"`
	APIAddr     string `toml:"api_addr"`
	KeyFile     string `toml:"key_file"`
	FeeRate     uint16 `toml:"fee_rate"`
}

// configPath returns the location of the config file, which may be
// overridden with the STEAD_CONFIG environment variable.
func configPath(defaultDir string) string {
	if path := os.Getenv("STEAD_CONFIG"); path != "" {
		return path
	}
	return filepath.Join(defaultDir, "steadd.toml")
}

func loadConfig() error {
	user, err := user.Current()
	if err != nil {
		return err
	}
	defaultDir := filepath.Join(user.HomeDir, ".config", "stead")

	// a zero fee rate is valid, so its default must be set before decoding
	config.FeeRate = 100
	_, err = toml.DecodeFile(configPath(defaultDir), &config)
	if os.IsNotExist(err) {
		// if no config file found, proceed with empty config
		err = nil
	}
	if err != nil {
		return err
	}
	// set defaults
	if config.HTTPAddr == "" {
		config.HTTPAddr = ":9580"
	}
	if config.Dir == "" {
		config.Dir = defaultDir
	}
	if config.DepositRate == "" {
		config.DepositRate = "1H"
	}
	if config.APIAddr == "" {
		config.APIAddr = "localhost:9580"
	}
	return nil
}

// keyFilePath returns keyFile, or deploy.key within dir if keyFile is unset.
// It must be called after flags are parsed, since -dir may override dir.
func keyFilePath(keyFile, dir string) string {
	if keyFile == "" {
		return filepath.Join(dir, "deploy.key")
	}
	return keyFile
}
