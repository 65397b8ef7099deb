package main

import "github.com/Mohsinsiddi/w3pilot/cmd"

func main() {
	cmd.Execute()
}
