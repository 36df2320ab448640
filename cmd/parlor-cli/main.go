package main

import "github.com/nfrund/parlor/cmd/parlor-cli/cmd"

func main() {
	cmd.Execute()
}
