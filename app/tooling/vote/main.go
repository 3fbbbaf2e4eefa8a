package main

import "github.com/ardanlabs/votechain/app/tooling/vote/cmd"

func main() {
	cmd.Execute()
}
