package main

import "github.com/arbitrage-pro/dashboard/cmd"

func main() {
	cmd.Execute()
}
