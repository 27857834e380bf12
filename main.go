package main

import "github.com/vitiugin/ml-dist-gen/cmd"

func main() {
	cmd.Execute()
}
