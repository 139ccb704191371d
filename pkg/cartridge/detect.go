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

package cartridge

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

/*
	Start launches the detection goroutine. The current insertion state
	is checked once right away, with a synchronous bring-up if a
	cartridge is already present, followed by an initial status change
	notification. After that the goroutine blocks on the device's
	detection signal and the exit signal; cancellation is checked only
	there, never mid-load.
*/
func (c *Cartridge) Start() error {

	if c.running {
		return fmt.Errorf("cartridge detection already started")
	}

	c.running = true

	go func() {

		log.Debug("cartridge detection starting")

		c.mx.Lock()
		if c.dev.Inserted() {
			c.loadInfo()
		}
		c.signalStatusChange()
		c.mx.Unlock()

		for {
			select {

			case <-c.exit:
				log.Debug("cartridge detection stopping")
				c.mx.Lock()
				c.freeInfo(true)
				c.mx.Unlock()
				c.release <- true
				return

			case <-c.dev.Notify():

				c.mx.Lock()

				// drop all current state before re-checking; this
				// covers removal as well as reinsertion
				c.freeInfo(true)

				if c.dev.Inserted() {
					// leave the slot alone right after insertion to
					// avoid conflicts with the platform's own access
					time.Sleep(c.settle)
					c.loadInfo()
				}

				// unconditional: receivers re-query the status
				c.signalStatusChange()

				c.mx.Unlock()
			}
		}
	}()

	return nil
}

/*
	Stop signals the detection goroutine to exit and waits until it has
	released all cartridge state. A stopped context cannot be started
	again.
*/
func (c *Cartridge) Stop() {

	if !c.running {
		return
	}

	c.exit <- struct{}{}
	<-c.release
	c.running = false

	log.Debug("cartridge detection stopped")
}
