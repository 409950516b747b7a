package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/Neumenon/toontab/dataset"
	"github.com/Neumenon/toontab/toon"
	"github.com/Neumenon/toontab/toonio"
)

var exportCommand = &cli.Command{
	Name:      "export",
	Usage:     "encode a Parquet dataset as a TOON-TAB text file",
	ArgsUsage: "<input.parquet> <output.toon[.gz]>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "name",
			Usage: "schema name (default: input file stem)",
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "source string for the metadata block",
		},
		&cli.StringFlag{
			Name:  "label",
			Usage: "dataset label for the metadata block",
		},
	},
	Action: runExport,
}

func runExport(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("export needs an input and an output path")
	}
	inPath, outPath := c.Args().Get(0), c.Args().Get(1)
	log := runLogger("export").WithField("input", inPath)

	name := c.String("name")
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath))
	}

	tbl, err := readParquet(c.Context, inPath, name)
	if err != nil {
		return err
	}
	if label := c.String("label"); label != "" {
		tbl.Schema.DatasetLabel = label
	}

	opts := toon.DefaultEncodeOptions()
	opts.Source = c.String("source")
	text, err := toon.EncodeWithOptions(tbl, opts)
	if err != nil {
		return errors.Wrap(err, "encoding table")
	}

	if err := toonio.WriteAll(outPath, text); err != nil {
		return err
	}
	log.WithFields(map[string]any{
		"output":  outPath,
		"rows":    len(tbl.Rows),
		"columns": len(tbl.Schema.Columns),
	}).Info("exported dataset")
	return nil
}

func readParquet(ctx context.Context, path, name string) (*toon.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(toon.ErrNotFound, "input %s", path)
		}
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parquet reader %s", path)
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	ar, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, errors.Wrap(err, "arrow reader")
	}

	at, err := ar.ReadTable(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	defer at.Release()

	return dataset.FromTable(name, at)
}
