package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "fetch":
		err = handleFetch(args[1:], stdout, stderr)
	case "compute":
		err = handleCompute(args[1:], stdout, stderr)
	case "export":
		err = handleExport(args[1:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	usage := `Obsolescence Radar - lifecycle risk of applications at a reference date

Usage:
  radar <command> [options]

Available Commands:
  fetch       Download the inventory from the workspace and save a snapshot
  compute     Run one pass over the saved snapshot and print the result
  export      Run one pass and write the result to PostgreSQL
  help        Show this help message

Common Flags:
  -config PATH   YAML configuration file (RADAR_* variables override it)

Examples:
  radar fetch -config radar.yaml
  radar compute -date 2023-01-01 -apps app-1,app-2
  radar compute -date 20230101 -json
  radar export -config radar.yaml -date 2023-01-01
`
	fmt.Fprint(w, usage)
}
