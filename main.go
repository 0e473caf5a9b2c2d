package main

import "github.com/sqlporter/sqlporter/cmd"

func main() {
	cmd.Execute()
}
