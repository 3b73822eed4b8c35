// Package main provides the Weft compiler CLI.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/weft-ml/weft/graph"
	"github.com/weft-ml/weft/lower"
	"github.com/weft-ml/weft/tensor"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Weft ML Compiler %s\n", version)
			return
		case "ops":
			listOps()
			return
		case "dump":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "usage: weft dump <op>")
				os.Exit(1)
			}
			if err := dumpOp(os.Args[2]); err != nil {
				fmt.Fprintf(os.Stderr, "weft: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("Weft ML Compiler - Activation Lowering for Expression Graphs")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version      Show version")
	fmt.Println("  ops          List registered operations")
	fmt.Println("  dump <op>    Lower an operation and print its graph")
}

// listOps prints the registered operation names, sorted.
func listOps() {
	ops := lower.NewRegistry().SupportedOps()
	sort.Strings(ops)
	for _, op := range ops {
		fmt.Println(op)
	}
}

// dumpOp lowers the named operation over sample float32 [2,3] inputs and
// prints the resulting graph.
func dumpOp(opName string) error {
	b := graph.NewBuilder(opName)
	shape := tensor.Shape{2, 3}

	var ctx *lower.Context
	if strings.HasSuffix(opName, "Grad") {
		gradient := b.Parameter("gradient", shape, tensor.Float32)
		feature := b.Parameter("feature", shape, tensor.Float32)
		ctx = lower.NewContext(b, gradient, feature)
	} else {
		x := b.Parameter("x", shape, tensor.Float32)
		ctx = lower.NewContext(b, x)
	}

	if err := lower.NewRegistry().Lower(ctx, opName); err != nil {
		return err
	}
	if _, err := b.Build(ctx.Output(0)); err != nil {
		return err
	}

	fmt.Print(b.String())
	return nil
}
