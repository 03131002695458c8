package main

import "github.com/FranksOps/riceplot/cmd"

func main() {
	cmd.Execute()
}
