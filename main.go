package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const workerSubcommand = "infer-worker"

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Expected 'predict' subcommand")
		os.Exit(2)
	}

	switch os.Args[1] {
	case "predict":
		predictCmd := flag.NewFlagSet("predict", flag.ExitOnError)
		configPath := predictCmd.String("config", "", "Path to YAML config file")
		predictCmd.Parse(os.Args[2:])
		if predictCmd.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "Usage: predict [-config file] <image-path>")
			os.Exit(2)
		}
		os.Exit(runPredict(*configPath, predictCmd.Arg(0)))
	case workerSubcommand:
		os.Exit(runInferWorker())
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand %q\n", os.Args[1])
		os.Exit(2)
	}
}
