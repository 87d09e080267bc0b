package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"gitlab.com/NebulousLabs/Sia/build"
	"gitlab.com/NebulousLabs/Sia/persist"
	"lukechampine.com/flagg"
	"lukechampine.com/stead/cmd/steadd/api"
	"lukechampine.com/stead/ledger"
	"lukechampine.com/stead/stead"
)

var (
	// to be supplied at build time
	githash   = "?"
	builddate = "?"
)

var (
	rootUsage = `Usage:
    steadd [flags] [action]

Actions:
    start           start the marketplace and API server
    deploy          initialize or update the fee registry
`
	versionUsage = rootUsage

	startUsage = `Usage:
    steadd start

Open the marketplace ledger and begin serving the HTTP API.
`

	deployUsage = `Usage:
    steadd deploy [feerecipient]

Initialize the fee registry of a running server, or update it if it has
already been initialized. The registry is signed for with the key in the
configured key file, which is generated if it does not exist. If feerecipient
(a hex-encoded public key) is not supplied, the deploying key receives fees.
The result is written to deployment.json in the data directory.
`
)

var usage = flagg.SimpleUsage(flagg.Root, rootUsage)

func check(ctx string, err error) {
	if err != nil {
		log.Fatalln(ctx, err)
	}
}

func main() {
	log.SetFlags(0)
	check("Could not load config file:", loadConfig())

	rootCmd := flagg.Root
	rootCmd.Usage = flagg.SimpleUsage(rootCmd, rootUsage)
	rootCmd.StringVar(&config.Dir, "dir", config.Dir, "directory to store in")
	versionCmd := flagg.New("version", versionUsage)
	startCmd := flagg.New("start", startUsage)
	startCmd.StringVar(&config.HTTPAddr, "http", config.HTTPAddr, "host:port to serve on")
	startCmd.StringVar(&config.DepositRate, "rate", config.DepositRate, "storage deposit charged per byte")
	startCmd.BoolVar(&config.Dev, "dev", config.Dev, "serve the /dev funding routes")
	deployCmd := flagg.New("deploy", deployUsage)
	deployCmd.StringVar(&config.APIAddr, "a", config.APIAddr, "host:port that the steadd API is running on")
	deployCmd.StringVar(&config.KeyFile, "k", config.KeyFile, "file containing the deploying key (default <dir>/deploy.key)")
	feeRate := deployCmd.Uint("fee", uint(config.FeeRate), "protocol fee rate, in basis points")

	cmd := flagg.Parse(flagg.Tree{
		Cmd: rootCmd,
		Sub: []flagg.Tree{
			{Cmd: versionCmd},
			{Cmd: startCmd},
			{Cmd: deployCmd},
		},
	})
	args := cmd.Args()

	switch cmd {
	case rootCmd, versionCmd:
		if len(args) > 0 {
			usage()
			return
		}
		log.Printf("steadd v0.1.0\nCommit:     %s\nRelease:    %s\nGo version: %s %s/%s\nBuild Date: %s\n",
			githash, build.Release, runtime.Version(), runtime.GOOS, runtime.GOARCH, builddate)

	case startCmd:
		if len(args) != 0 {
			startCmd.Usage()
			return
		}
		if err := start(config.Dir, config.HTTPAddr, config.DepositRate, config.Dev); err != nil {
			log.Fatal(err)
		}

	case deployCmd:
		if len(args) > 1 {
			deployCmd.Usage()
			return
		} else if *feeRate > stead.MaxBps {
			log.Fatalf("Fee rate must not exceed %v bps", stead.MaxBps)
		}
		sk, err := loadKey(keyFilePath(config.KeyFile, config.Dir))
		check("Could not load key:", err)
		feeRecipient := sk.PublicKey()
		if len(args) == 1 {
			feeRecipient, err = api.ParseKey(args[0])
			check("Invalid fee recipient:", err)
		}
		check("Could not create data directory:", os.MkdirAll(config.Dir, 0700))
		d, err := deploy(api.NewClient(config.APIAddr), sk, feeRecipient, uint16(*feeRate), config.Dir)
		check("Deploy failed:", err)
		log.Printf("Fee registry %v at %v (recipient %v, rate %v bps)", d.Action, d.State, d.FeeRecipient, d.FeeRateBps)
	}
}

func start(dir, addr, depositRate string, dev bool) error {
	rate, err := parseCurrency(depositRate)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	logger, err := persist.NewFileLogger(filepath.Join(dir, "steadd.log"))
	if err != nil {
		return err
	}
	defer logger.Close()
	store, err := ledger.NewBoltDBStore(filepath.Join(dir, "stead.db"))
	if err != nil {
		return err
	}
	defer store.Close()
	p := stead.New(store, rate, logger.Logger)

	log.Printf("Listening on %v...", addr)
	if dev {
		log.Println("Serving dev funding routes")
	}
	return http.ListenAndServe(addr, NewServer(p, dev))
}
