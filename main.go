package main

import "thoreinstein.com/wsnap/cmd"

func main() {
	cmd.Execute()
}
