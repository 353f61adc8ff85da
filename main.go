package main

import "github.com/kebairia/fsback/cmd"

func main() {
	cmd.Execute()
}
