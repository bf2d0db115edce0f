package main

import "github.com/dbsmedya/featsync/cmd/featsync/cmd"

func main() {
	cmd.Execute()
}
