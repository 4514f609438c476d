package main

import "github.com/kawabatas/payroll-batch/internal/cli/cmd"

func main() {
	cmd.Execute()
}
