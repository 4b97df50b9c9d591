package main

import "github.com/velcoin/ledger/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
