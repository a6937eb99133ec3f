// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// simbus talks to a smart-card interface module over a bit-banged two-wire
// bus.
//
// Examples:
//
//	simbus reset
//	simbus write --cmd 0x02 0a0b0c
//	simbus --trace read.png read --cmd 0x01 --len 16
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	flagSCL     = "scl"
	flagSDA     = "sda"
	flagRST     = "rst"
	flagAddr    = "addr"
	flagSpeed   = "speed"
	flagTrace   = "trace"
	flagANSI    = "ansi"
	flagVerbose = "verbose"
	flagBoot    = "boot"
	flagCmd     = "cmd"
	flagLen     = "len"
)

// newApp returns the command line application. open returns the bus lines;
// hold waits between reset steps.
func newApp(open opener, hold func(time.Duration)) *cli.App {
	s := &session{open: open, hold: hold}
	return &cli.App{
		Name:            "simbus",
		Usage:           "talk to a smart-card interface module over a bit-banged bus",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagSCL,
				Value: "GPIO5",
				Usage: "clock pin",
			},
			&cli.StringFlag{
				Name:  flagSDA,
				Value: "GPIO7",
				Usage: "data pin",
			},
			&cli.StringFlag{
				Name:  flagRST,
				Value: "GPIO1",
				Usage: "reset pin of the module, empty if not wired",
			},
			&cli.StringFlag{
				Name:  flagAddr,
				Value: "0xA0",
				Usage: "8-bit write address of the module",
			},
			&cli.StringFlag{
				Name:  flagSpeed,
				Value: "200kHz",
				Usage: "bit rate of the software clock",
			},
			&cli.StringFlag{
				Name:  flagTrace,
				Usage: "save a timing diagram of the bus to `FILE` as PNG",
			},
			&cli.BoolFlag{
				Name:  flagANSI,
				Usage: "print a timing diagram of the bus on the terminal",
			},
			&cli.BoolFlag{
				Name:    flagVerbose,
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "reset",
				Usage: "restart the module",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  flagBoot,
						Usage: "restart into the bootloader instead of the main program",
					},
				},
				Action: s.reset,
			},
			{
				Name:      "write",
				Usage:     "send a command and its data",
				ArgsUsage: "<hex bytes>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagCmd,
						Usage:    "command byte",
						Required: true,
					},
				},
				Action: s.write,
			},
			{
				Name:  "read",
				Usage: "send a command and read the response frame",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagCmd,
						Usage:    "command byte",
						Required: true,
					},
					&cli.IntFlag{
						Name:  flagLen,
						Value: 255,
						Usage: "maximum number of bytes to read",
					},
				},
				Action: s.read,
			},
		},
	}
}

func main() {
	if err := newApp(openHost, nil).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "simbus: %s.\n", err)
		os.Exit(1)
	}
}
