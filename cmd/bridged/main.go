package main

import "github.com/medcustody/ledgerbridge/cmd/bridged/cmd"

func main() {
	cmd.Execute()
}
