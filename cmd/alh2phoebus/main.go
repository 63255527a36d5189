// Command alh2phoebus converts ALH alarm handler configurations into Phoebus alarm server XML.
package main

import "github.com/oshokin/alh2phoebus/cmd/alh2phoebus/cmd"

func main() {
	cmd.Execute()
}
