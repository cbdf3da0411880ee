package main

import "github.com/hamed0406/climatewatch/cmd/climated/cmd"

func main() {
	cmd.Execute()
}
