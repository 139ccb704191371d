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

package run

import (
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const defaultAddress = "localhost:8888"

const runnerHelpEpilogue = `- All settings can also be made via environment variables, using the
  CARTDRIVE_ prefix, e.g. CARTDRIVE_ADDRESS for the daemon address.
`

/*
	NewRunner creates the base for a CLI command. Commands embed
	Runner, register their settings in their constructor and resolve
	them with ParseSettings at the start of their Run method.
*/
func NewRunner(use, short, long, example, epilogue string,
	run func() error) *Runner {

	if epilogue != "" {
		long = fmt.Sprintf("%s\n\nNotes:\n\n%s", long, epilogue)
	}

	r := &Runner{viper: viper.New()}
	r.cmd = &cobra.Command{
		Use:           use,
		Short:         short,
		Long:          long,
		Example:       example,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	return r
}

//
type Runner struct {
	cmd      *cobra.Command
	viper    *viper.Viper
	settings []*setting
	//
	Address string
}

//
type setting struct {
	target   interface{}
	name     string
	required bool
	flag     *pflag.Flag
}

//
func (r *Runner) Command() *cobra.Command {
	return r.cmd
}

// AddBaseSettings registers the settings every client command needs.
func (r *Runner) AddBaseSettings() {
	r.AddSetting(&r.Address, "address", "a", "CARTDRIVE_ADDRESS",
		defaultAddress, "daemon address, {host}:{port}", false)
}

/*
	AddSetting registers a command setting. It is backed by a flag and
	an environment variable; env defaults to CARTDRIVE_{NAME} when
	empty. The flag wins over the environment, which wins over def.
	Required settings are checked in ParseSettings, not by cobra, so
	that the environment can satisfy them.
*/
func (r *Runner) AddSetting(target interface{}, name, shorthand, env string,
	def interface{}, help string, required bool) {

	flags := r.cmd.Flags()

	switch t := target.(type) {

	case *string:
		d, _ := def.(string)
		flags.StringVarP(t, name, shorthand, d, help)

	case *int:
		d, _ := def.(int)
		flags.IntVarP(t, name, shorthand, d, help)

	case *bool:
		d, _ := def.(bool)
		flags.BoolVarP(t, name, shorthand, d, help)

	default:
		panic(fmt.Sprintf("unsupported setting type for '%s'", name))
	}

	if env == "" {
		env = fmt.Sprintf("CARTDRIVE_%s",
			strings.ToUpper(strings.ReplaceAll(name, "-", "_")))
	}

	f := flags.Lookup(name)
	r.viper.BindPFlag(name, f)
	r.viper.BindEnv(name, env)

	r.settings = append(r.settings, &setting{target, name, required, f})
}

/*
	ParseSettings resolves all registered settings and validates that
	the required ones are present. Call this first in Run.
*/
func (r *Runner) ParseSettings() error {

	for _, s := range r.settings {

		if !s.flag.Changed && r.viper.IsSet(s.name) {
			switch t := s.target.(type) {
			case *string:
				*t = r.viper.GetString(s.name)
			case *int:
				*t = r.viper.GetInt(s.name)
			case *bool:
				*t = r.viper.GetBool(s.name)
			}
		}

		if s.required {
			if t, ok := s.target.(*string); ok && *t == "" {
				return fmt.Errorf("required setting '%s' not set", s.name)
			}
		}
	}

	return nil
}

/*
	apiCall sends a request to the daemon API and returns the response
	body. Non-200 responses are turned into errors carrying the body
	text. The caller closes the returned reader.
*/
func (r *Runner) apiCall(
	method, path string, json bool, body io.Reader) (io.ReadCloser, error) {

	addr := r.Address
	if addr == "" {
		addr = defaultAddress
	}
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = fmt.Sprintf("http://%s", addr)
	}

	req, err := http.NewRequest(method, fmt.Sprintf("%s%s", addr, path), body)
	if err != nil {
		return nil, err
	}
	if json {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := ioutil.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s", strings.TrimSpace(string(msg)))
	}

	return resp.Body, nil
}
