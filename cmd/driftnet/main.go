// main.go
//
// Minimal entry point for the driftnet CLI; command handling lives in root.go

package main

func main() {
	Execute()
}
