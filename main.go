package main

import (
	"ecg-monitor/internal/cli"
)

func main() {
	cli.Execute()
}
