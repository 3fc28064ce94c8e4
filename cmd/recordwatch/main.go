package main

import (
	"recordwatch/cmd/recordwatch/commands"
	"recordwatch/lib/util/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
