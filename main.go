package main

import "github.com/Tiliavir/syncro-import/cmd"

func main() {
	cmd.Execute()
}
