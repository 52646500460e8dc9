// Command corrvis converts raw correlator output into calibrated visibility
// scans.
package main

func main() {
	Execute()
}
