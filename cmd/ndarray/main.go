// Package main provides a small CLI for inspecting .npy files.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/born-ml/strided/internal/npy"
	"github.com/born-ml/strided/ndarray"
	"k8s.io/klog/v2"
)

const version = "v0.1.0-dev"

func main() {
	klog.InitFlags(nil)
	flag.Usage = usage
	flag.Parse()
	defer klog.Flush()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		return
	}

	var err error
	switch args[0] {
	case "version":
		fmt.Printf("strided ndarray %s\n", version)
	case "info":
		err = withFile(args, info)
	case "stats":
		err = withFile(args, stats)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Strided N-dimensional arrays for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version          Show version")
	fmt.Println("  info <file.npy>  Print the header and data checksum of an .npy file")
	fmt.Println("  stats <file.npy> Print element count, sum, min and max")
	fmt.Println("")
	fmt.Println("Flags are klog flags, e.g. -v=4 to trace memory mapping.")
}

func withFile(args []string, run func(path string) error) error {
	if len(args) != 2 {
		return fmt.Errorf("%s needs exactly one file argument", args[0])
	}
	return run(args[1])
}

func info(path string) error {
	//nolint:gosec // G304: reading the file the user named
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	h, sum, err := npy.ChecksumData(bufio.NewReader(f))
	if err != nil {
		return err
	}
	fmt.Println(h)
	fmt.Printf("  sha256 %x\n", sum)
	return nil
}

func stats(path string) error {
	a, err := ndarray.Load(path, ndarray.Mmap())
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d elements\n", a, a.Size())
	if a.Size() == 0 {
		return nil
	}
	if a.DType() == ndarray.Bool {
		a, err = a.AsType(ndarray.Uint8)
		if err != nil {
			return err
		}
	}
	for _, r := range []struct {
		name string
		fn   func(*ndarray.NDArray, ...ndarray.ReduceOption) (*ndarray.NDArray, error)
	}{{"sum", ndarray.Sum}, {"min", ndarray.Min}, {"max", ndarray.Max}} {
		v, err := r.fn(a)
		if err != nil {
			return err
		}
		fmt.Printf("  %-4s %v\n", r.name, v.At())
	}
	return nil
}
