package main

import "github.com/KaiErikNiermann/roomnl-stats/cmd"

func main() {
	cmd.Execute()
}
