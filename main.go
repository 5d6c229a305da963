package main

import "github.com/derickschaefer/yojitsu/cmd"

func main() {
	cmd.Execute()
}
