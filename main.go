package main

import "github.com/printgate/printgate/cmd/printgate"

func main() { printgate.Execute() }
