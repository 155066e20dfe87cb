// Command novatheus is the line-oriented command shell for evolving and training Novatheus
// genomes, per spec §6. Modeled on the teacher's xor_runner.go entry-point shape, generalised
// from a one-shot experiment runner into an interactive REPL.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/nvths/novatheus/neat"
)

func main() {
	if err := neat.InitLogger("info"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sh := NewShell(neat.DefaultOptions(), os.Stdout)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if sh.Dispatch(line) {
			os.Exit(0)
		}
	}
}
