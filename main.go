package main

import "github.com/brogergvhs/pagedetect/cmd"

func main() {
	cmd.Execute()
}
