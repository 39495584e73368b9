package main

import "milkcollect/cmd/client/cmd"

func main() {
	cmd.Execute()
}
