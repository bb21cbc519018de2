package main

import (
	"log"
	"os"

	"pdfview/cli"
	"pdfview/poppler"
	"pdfview/server"
)

// Default configuration for the CLI
var config = &cli.DefaultConfig

func startServer() {
	server.Run(config)
}

func main() {
	log.SetPrefix("[pdfview]: ")
	log.SetFlags(log.Lshortfile)

	// Set the locale to the system's default
	poppler.SetLocale()

	if err := cli.LoadDefaults(config); err != nil {
		log.Fatalln(err)
	}

	// Parse the command line arguments
	ctx := cli.DefineFlags(config, startServer)
	subcmd, err := ctx.Parse(os.Args)
	if err != nil {
		log.Fatalln(err)
	}

	// If the subcommand is nil, print the usage and exit
	if subcmd == nil {
		ctx.PrintUsage(os.Stdout)
		os.Exit(1)
	}

	// Run the subcommand
	subcmd.Handler()
}
