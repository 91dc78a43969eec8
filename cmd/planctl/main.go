// Command planctl drives a plan-marshall plan through its lifecycle.
package main

func main() {
	Execute()
}
