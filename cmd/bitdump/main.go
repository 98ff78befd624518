// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/go-bitcode/bitstream/bitstream"
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: bitdump [options] file1.bc [file2.bc [...]]

ex:
 $> bitdump -h ./file1.bc

options:
`,
		)
		flag.PrintDefaults()
		os.Exit(1)
	}
}

var (
	flagVerbose = flag.Bool("v", false, "enable/disable verbose mode")
	flagHeaders = flag.Bool("h", false, "print the magic number and top-level block list")
	flagDetails = flag.Bool("x", false, "walk every block, resolving BLOCKINFO names")
	flagWarn    = flag.Bool("w", true, "print non-fatal parser warnings to stderr")
)

func main() {
	log.SetPrefix("bitdump: ")
	log.SetFlags(0)

	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
	}
	if !*flagHeaders && !*flagDetails {
		flag.Usage()
		log.Printf("at least one of -h or -x must be given")
		os.Exit(1)
	}

	bitstream.SetDebugMode(*flagVerbose)

	for i, fname := range flag.Args() {
		if i > 0 {
			fmt.Printf("\n")
		}
		process(fname)
	}
}

func process(fname string) {
	f, err := os.Open(fname)
	if err != nil {
		log.Fatalf("could not open %q: %v", fname, err)
	}
	defer f.Close()

	buf, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		log.Fatalf("could not mmap %q: %v", fname, err)
	}
	defer buf.Unmap()

	r := bitstream.FromBytes(buf)
	if *flagWarn {
		r.Warn = func(w bitstream.Warning) { fmt.Fprintf(os.Stderr, "%s: %s\n", fname, w.String()) }
	}

	doc, err := r.Read()
	if err != nil {
		log.Fatalf("could not parse %q: %v", fname, err)
	}

	if *flagHeaders {
		printHeaders(fname, doc)
	}
	if *flagDetails {
		printDetails(fname, doc)
	}
}

func printHeaders(fname string, doc *bitstream.Document) {
	fmt.Printf("%s: magic number: %#08x\n\n", fname, doc.Magic)
	fmt.Printf("top-level blocks:\n")
	for i, b := range doc.TopBlocks {
		fmt.Printf(" - block[%d] id=%d %s records=%d sub_blocks=%d size=%d bytes\n",
			i, b.ID, blockLabel(doc, b.ID), len(b.Records), len(b.SubBlocks), b.LengthBytes)
	}
}

func printDetails(fname string, doc *bitstream.Document) {
	fmt.Printf("%s: block tree:\n", fname)
	for i, b := range doc.TopBlocks {
		printBlock(doc, b, 0, fmt.Sprintf("%d", i))
	}
}

func printBlock(doc *bitstream.Document, b bitstream.Block, depth int, path string) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	fmt.Printf("%sblock[%s] id=%d %s abbrev_width=%d\n", indent, path, b.ID, blockLabel(doc, b.ID), b.AbbrevIDWidth)
	for i, rec := range b.Records {
		fmt.Printf("%s  record[%d] code=%d %s values=%d\n", indent, i, rec.Code, recordLabel(doc, b.ID, uint64(rec.Code)), len(rec.Values))
	}
	for i, sub := range b.SubBlocks {
		printBlock(doc, sub, depth+1, fmt.Sprintf("%s.%d", path, i))
	}
}

func blockLabel(doc *bitstream.Document, id uint32) string {
	name, ok := doc.BlockName(id)
	if !ok {
		return ""
	}
	return fmt.Sprintf("(%s)", name)
}

func recordLabel(doc *bitstream.Document, blockID uint32, code uint64) string {
	name, ok := doc.RecordName(blockID, code)
	if !ok {
		return ""
	}
	return fmt.Sprintf("(%s)", name)
}
