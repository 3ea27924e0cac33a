package main

import "github.com/palmares-dance/palmares/cmd"

func main() {
	cmd.Execute()
}
