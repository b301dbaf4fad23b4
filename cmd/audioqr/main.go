// Точка входа CLI audioqr.
package main

import "github.com/bigkaa/audioqr/cmd/audioqr/cmd"

func main() {
	cmd.Execute()
}
