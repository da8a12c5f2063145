package main

import "github.com/KaramelBytes/serpdiff/cmd"

func main() {
	cmd.Execute()
}
