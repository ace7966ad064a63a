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

// ferritectl is a host-side debugging companion for the ferrite kernel:
// it decodes exception syndrome values and prints the trap ABI and syscall
// table layouts, so crash dumps can be read without the ARM ARM open.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(new(decodeCmd), "")
	subcommands.Register(new(tableCmd), "")
	subcommands.Register(new(vectorsCmd), "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
