package main

import "github.com/sakhi-assistant/sakhi/cmd"

func main() {
	cmd.Execute()
}
