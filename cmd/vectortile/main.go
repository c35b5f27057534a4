package main

import "github.com/MeKo-Tech/vectortile/internal/cmd"

func main() {
	cmd.Execute()
}
