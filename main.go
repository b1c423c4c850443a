package main

import (
	"ocm.software/open-component-model/vxpack/cmd"
)

func main() {
	cmd.Execute()
}
