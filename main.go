package main

import "github.com/KaramelBytes/vma-cli/cmd"

func main() {
	cmd.Execute()
}
