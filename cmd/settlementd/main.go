package main

import (
	"github.com/paw-chain/settlement/cmd/settlementd/cmd"
)

func main() {
	cmd.Execute()
}
