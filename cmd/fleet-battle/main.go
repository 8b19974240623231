package main

import (
	"fmt"
	"os"

	// Import to register the simulation
	_ "github.com/stellarforge/fleet-tactics/cmd/fleet-battle/simulation"
)

func main() {
	fmt.Println("Fleet Battle simulation registered. Use 'fleet-sim run' to execute.")
	os.Exit(0)
}
