/*
   CartDrive - game cartridge bridge daemon
   Copyright (c) 2026, the CartDrive authors

   This file is part of CartDrive.

   CartDrive is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   CartDrive is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with CartDrive. If not, see <http://www.gnu.org/licenses/>.
*/

package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blueyonder1234/cartdrive/pkg/run"
)

//
func main() {

	setupLogging()

	root := &cobra.Command{
		Use:           "cartctl",
		Short:         "cartctl controls the CartDrive daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		run.NewServe().Command(),
		run.NewStatus().Command(),
		run.NewLs().Command(),
		run.NewDump().Command(),
		run.NewSearch().Command(),
		run.NewLoad().Command(),
		run.NewEject().Command(),
		run.NewVersion().Command(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\nERROR: %v\n\n", err)
		os.Exit(1)
	}
}

//
func setupLogging() {

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if l, err := log.ParseLevel(level); err == nil {
			log.SetLevel(l)
		} else {
			log.Warnf("invalid log level '%s', using default", level)
		}
	}
}
