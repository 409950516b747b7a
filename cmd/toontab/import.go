package main

import (
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/Neumenon/toontab/dataset"
	"github.com/Neumenon/toontab/toon"
	"github.com/Neumenon/toontab/toonio"
)

var importCommand = &cli.Command{
	Name:      "import",
	Usage:     "decode a TOON-TAB text file into a Parquet dataset",
	ArgsUsage: "<input.toon[.gz]> <output.parquet>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "abort on the first bad row instead of skipping it",
		},
	},
	Action: runImport,
}

func runImport(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("import needs an input and an output path")
	}
	inPath, outPath := c.Args().Get(0), c.Args().Get(1)
	log := runLogger("import").WithField("input", inPath)

	text, err := toonio.ReadAll(inPath)
	if err != nil {
		return err
	}

	res, err := toon.DecodeWithOptions(text, toon.DecodeOptions{Strict: c.Bool("strict")})
	if err != nil {
		return errors.Wrapf(err, "decoding %s", inPath)
	}
	reportRowErrors(res)

	mem := memory.NewGoAllocator()
	rec, err := dataset.ToRecord(res.Table, mem)
	if err != nil {
		return errors.Wrap(err, "building arrow record")
	}
	defer rec.Release()

	if err := writeParquet(outPath, rec); err != nil {
		return err
	}
	log.WithFields(map[string]any{
		"output":   outPath,
		"rows":     len(res.Table.Rows),
		"bad_rows": len(res.RowErrors),
	}).Info("imported dataset")
	return nil
}

func reportRowErrors(res *toon.DecodeResult) {
	if !res.HasRowErrors() {
		return
	}
	warn := color.New(color.FgYellow)
	warn.Fprintf(os.Stderr, "skipped %d bad row(s):\n", len(res.RowErrors))
	for _, re := range res.RowErrors {
		warn.Fprintf(os.Stderr, "  %v\n", re)
	}
}

func writeParquet(path string, rec arrow.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	w, err := pqarrow.NewFileWriter(rec.Schema(), f, props, arrowProps)
	if err != nil {
		return errors.Wrap(err, "parquet writer")
	}

	at := array.NewTableFromRecords(rec.Schema(), []arrow.Record{rec})
	defer at.Release()

	if err := w.WriteTable(at, at.NumRows()); err != nil {
		w.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return w.Close()
}
