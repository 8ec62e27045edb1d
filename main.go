package main

import "github.com/halvdan/backshelf/cmd"

func main() {
	cmd.Execute()
}
