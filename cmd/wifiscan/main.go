package main

import "github.com/dogeorg/wifiscan/cmd/wifiscan/cmd"

func main() {
	cmd.Execute()
}
