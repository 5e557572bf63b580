package main

import "github.com/grafana/metersummary/cmd/fakemeter/cmd"

func main() {
	cmd.Execute()
}
