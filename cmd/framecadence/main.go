package main

import (
	"github.com/mengelbart/framecadence/cmdmain"
	_ "github.com/mengelbart/framecadence/subcmd"
)

func main() {
	cmdmain.Main()
}
