// v0
// cmd/ecosort/main.go
package main

import "github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/cli"

func main() {
	cli.Execute()
}
