package main

import (
	"fmt"
	"os"

	"github.com/zeu5/pricing-rl/benchmarks"
)

// main entry point to training, baselines, comparisons and serving
func main() {
	rootCommand := benchmarks.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
