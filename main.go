package main

import "github.com/saadjs/fitplate/cmd/fitplate"

func main() {
	fitplate.Execute()
}
