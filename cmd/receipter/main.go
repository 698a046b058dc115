package main

import "github.com/matthieukhl/receipter/internal/cmd"

func main() {
	cmd.Execute()
}
