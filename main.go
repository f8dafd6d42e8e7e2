// SPDX-License-Identifier: MPL-2.0

// bpybuild builds Blender as a Python module, packages it and tests it.
package main

import "bpybuild/cmd/bpybuild"

func main() {
	cmd.Execute()
}
