package main

import "github.com/gorendir/gorendir/cmd"

func main() {
	cmd.Execute()
}
