// Copyright 2025 The Ferrite Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/google/subcommands"

	"ferrite.dev/ferrite/pkg/esr"
)

// decodeCmd implements subcommands.Command for the "decode" command.
type decodeCmd struct {
	raw bool
}

// Name implements subcommands.Command.Name.
func (*decodeCmd) Name() string {
	return "decode"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*decodeCmd) Synopsis() string {
	return "decode ESR_EL1 syndrome values"
}

// Usage implements subcommands.Command.Usage.
func (*decodeCmd) Usage() string {
	return `decode <value>...

Where each <value> is an exception syndrome in hex (0x-prefixed or bare) or
decimal, e.g. as printed by the kernel's fatal register dump.

OPTIONS:
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (d *decodeCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&d.raw, "raw", false, "also print the decoded fields one per line")
}

// Execute implements subcommands.Command.Execute.
func (d *decodeCmd) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	for _, arg := range f.Args() {
		v, err := parseValue(arg)
		if err != nil {
			fmt.Printf("%s: %v\n", arg, err)
			return subcommands.ExitUsageError
		}
		c := esr.Decode(v)
		fmt.Printf("%#016x: %v\n", v, c)
		if d.raw {
			fmt.Printf("  class       %#02x (%v)\n", uint8(c.Class), c.Class)
			fmt.Printf("  recognized  %t\n", c.Recognized)
			if c.Class == esr.ClassSVC64 || c.Class == esr.ClassSVC32 {
				fmt.Printf("  imm         %d\n", c.Imm)
			}
			if c.IsAbort() {
				fmt.Printf("  fsc         %#02x\n", c.FaultStatus)
				fmt.Printf("  write       %t\n", c.Write)
				fmt.Printf("  walk fault  %t\n", c.WalkFault)
			}
		}
	}
	return subcommands.ExitSuccess
}

func parseValue(s string) (uint64, error) {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, nil
	}
	return strconv.ParseUint(s, 16, 64)
}
