// Package sanitize implements program subcommands processing block content
// from files.
package sanitize

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"vdomkit/config"
)

// stdio is the name of source or destination denoting standard streams.
const stdio = "-"

// namespace returns block namespace requested on command line or generates
// a fresh one.
func namespace(cmd *cli.Command, log *zap.Logger) string {
	if ns := cmd.String("block"); len(ns) > 0 {
		return ns
	}
	ns := uuid.NewString()
	log.Info("No block specified, using generated namespace", zap.String("block", ns))
	return ns
}

// readSource reads whole source file (or STDIN) converting it to UTF-8 when
// charset is requested.
func readSource(cmd *cli.Command, rpt *config.Report, log *zap.Logger) ([]byte, error) {
	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return nil, errors.New("no input source has been specified")
	}

	var in io.Reader
	if src == stdio {
		in = os.Stdin
	} else {
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("unable to open source: %w", err)
		}
		defer f.Close()
		in = f
		rpt.Store(fmt.Sprintf("input/%s", filepath.Base(src)), src)
	}

	if cs := cmd.String("charset"); len(cs) > 0 {
		enc, err := ianaindex.IANA.Encoding(cs)
		if err != nil || enc == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cs), zap.Error(err))
		} else {
			n, _ := ianaindex.IANA.Name(enc)
			log.Debug("Converting input to UTF-8", zap.String("charset", n))
			in = enc.NewDecoder().Reader(in)
		}
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("unable to read source: %w", err)
	}
	if src == stdio {
		rpt.StoreData("input/stdin", data)
	}
	return data, nil
}

// writeDestination writes result to destination file or STDOUT when no
// destination is given, result is also added to debug report.
func writeDestination(cmd *cli.Command, name string, data []byte, rpt *config.Report, log *zap.Logger) error {
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	rpt.StoreData(fmt.Sprintf("output/%s", name), data)

	dst := cmd.Args().Get(1)
	if len(dst) == 0 || dst == stdio {
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("unable to write result: %w", err)
		}
		return nil
	}

	if _, err := os.Stat(dst); err == nil && !cmd.Bool("overwrite") {
		return fmt.Errorf("destination '%s' already exists", dst)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("unable to write destination file '%s': %w", dst, err)
	}
	log.Info("Result written", zap.String("destination", dst))
	return nil
}
