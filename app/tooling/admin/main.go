// This program performs administrative tasks against the ledger database
// while the node is stopped.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/velcoin/ledger/app/tooling/admin/commands"
	"github.com/velcoin/ledger/foundation/blockchain/storage/disk"
	"github.com/velcoin/ledger/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

const (
	dbPath      = "zblock/ledger.db"
	genesisPath = "zblock/genesis.json"
)

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	if len(os.Args) < 2 {
		return errors.New("usage: admin bals [account] | blocks [from] | verify")
	}

	log.Infow("startup", "version", build, "command", os.Args[1], "db", dbPath)

	db, err := disk.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	return processCommands(os.Args, db, log)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args []string, db *disk.Disk, log *zap.SugaredLogger) error {
	switch args[1] {
	case "bals":
		if err := commands.Balances(args, db); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}
	case "blocks":
		if err := commands.Blocks(args, db); err != nil {
			return fmt.Errorf("getting blocks: %w", err)
		}
	case "verify":
		if err := commands.Verify(genesisPath, db, log); err != nil {
			return fmt.Errorf("verifying ledger: %w", err)
		}
	default:
		return fmt.Errorf("unknown command %q", args[1])
	}

	return nil
}
