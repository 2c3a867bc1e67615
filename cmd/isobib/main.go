// Command isobib parses, renders and derives bibitem XML documents for
// standards publications.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/FocuswithJustin/isobib/core/bibitem"
	"github.com/FocuswithJustin/isobib/core/cache"
	"github.com/FocuswithJustin/isobib/core/cas"
	"github.com/FocuswithJustin/isobib/core/xml"
	"github.com/FocuswithJustin/isobib/internal/archive"
	"github.com/FocuswithJustin/isobib/internal/logging"
)

const version = "0.1.0"

// stdout receives command output; tests replace it.
var stdout io.Writer = os.Stdout

// errStopBatch ends a --fail-fast batch after the first failed document.
var errStopBatch = errors.New("batch stopped")

// CLI defines the command-line interface for isobib.
var CLI struct {
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"warn" env:"ISOBIB_LOG_LEVEL"`
	LogFormat string `name:"log-format" help:"Log format (text, json)" default:"text" enum:"text,json" env:"ISOBIB_LOG_FORMAT"`

	Parse    ParseCmd    `cmd:"" help:"Parse a bibitem document and render it again"`
	Shortref ShortrefCmd `cmd:"" help:"Print the short reference of a bibitem document"`
	Derive   DeriveCmd   `cmd:"" help:"Turn a bibitem into an all-parts or most-recent reference"`
	Verify   VerifyCmd   `cmd:"" help:"Check that a bibitem document survives a round trip"`
	Batch    BatchCmd    `cmd:"" help:"Process every bibitem in a file, archive or directory"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// RenderFlags are the rendering options shared by commands that print XML.
type RenderFlags struct {
	Indent   string `help:"Indent string for pretty-printed output" default:"  "`
	FullDate bool   `name:"full-date" help:"Render dates with their month"`
	NoYear   bool   `name:"no-year" help:"Render every date as --"`
	Note     string `help:"Add an ISO DATE note with this text"`
	NoID     bool   `name:"no-id" help:"Omit the id attribute"`
}

func (f RenderFlags) options() bibitem.RenderOptions {
	return bibitem.RenderOptions{
		FullDate: f.FullDate,
		NoYear:   f.NoYear,
		Note:     f.Note,
		Indent:   f.Indent,
	}
}

func (f RenderFlags) render(it *bibitem.IsoBibliographicItem) []byte {
	if f.NoID {
		it.DisableIDAttribute()
	}
	return it.ToXML(f.options())
}

// DeriveFlags select the derived-reference transforms.
type DeriveFlags struct {
	AllParts bool `name:"all-parts" help:"Derive a reference to all parts of the document"`
	Latest   bool `help:"Derive an undated reference to the most recent edition"`
}

func (f DeriveFlags) apply(it *bibitem.IsoBibliographicItem) error {
	if f.AllParts {
		if err := it.ToAllParts(); err != nil {
			return fmt.Errorf("all parts: %w", err)
		}
	}
	if f.Latest {
		if err := it.ToMostRecentReference(); err != nil {
			return fmt.Errorf("most recent reference: %w", err)
		}
	}
	return nil
}

// loadItem reads a single, possibly compressed, bibitem document.
func loadItem(path string) (*bibitem.IsoBibliographicItem, []byte, error) {
	data, err := archive.ReadDocument(path)
	if err != nil {
		return nil, nil, err
	}
	it, err := bibitem.FromXML(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return it, data, nil
}

// output writes data to path, or to stdout when path is empty.
func output(path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(append(data, '\n'))
		return err
	}
	return archive.WriteDocument(path, data, true)
}

// ParseCmd parses a document and renders it again.
type ParseCmd struct {
	File string `arg:"" help:"Bibitem XML file (.xml, .xml.gz or .xml.xz)" type:"existingfile"`
	Out  string `help:"Write to this file instead of stdout" type:"path"`
	RenderFlags
}

func (c *ParseCmd) Run() error {
	it, _, err := loadItem(c.File)
	if err != nil {
		return err
	}
	return output(c.Out, c.render(it))
}

// ShortrefCmd prints the short reference of a document.
type ShortrefCmd struct {
	File     string `arg:"" help:"Bibitem XML file" type:"existingfile"`
	NoYear   bool   `name:"no-year" help:"Omit the publication year"`
	AllParts bool   `name:"all-parts" help:"Append the all-parts suffix"`
}

func (c *ShortrefCmd) Run() error {
	it, _, err := loadItem(c.File)
	if err != nil {
		return err
	}
	ref := it.Shortref(nil, bibitem.ShortrefOptions{NoYear: c.NoYear, AllParts: c.AllParts})
	_, err = fmt.Fprintln(stdout, ref)
	return err
}

// DeriveCmd applies the derived-reference transforms to a document.
type DeriveCmd struct {
	File string `arg:"" help:"Bibitem XML file" type:"existingfile"`
	Out  string `help:"Write to this file instead of stdout" type:"path"`
	DeriveFlags
	RenderFlags
}

func (c *DeriveCmd) Run() error {
	if !c.AllParts && !c.Latest {
		return fmt.Errorf("derive: one of --all-parts or --latest is required")
	}
	it, _, err := loadItem(c.File)
	if err != nil {
		return err
	}
	if err := c.apply(it); err != nil {
		return err
	}
	return output(c.Out, c.render(it))
}

// lossless keeps the month of YYYY-MM dates.
var lossless = bibitem.RenderOptions{FullDate: true}

// VerifyCmd checks that a document renders back to an equivalent document
// and prints the digest of its canonical rendering.
type VerifyCmd struct {
	File   string `arg:"" help:"Bibitem XML file" type:"existingfile"`
	Golden string `help:"Expected BLAKE3 digest of the canonical rendering"`
}

func (c *VerifyCmd) Run() error {
	it, data, err := loadItem(c.File)
	if err != nil {
		return err
	}
	diff, err := xml.Diff(data, it.ToXML(lossless), "fetched")
	if err != nil {
		return err
	}
	if diff != "" {
		return fmt.Errorf("%s does not round trip:\n%s", c.File, diff)
	}

	d := cas.Sum(canonical(it))
	if c.Golden != "" && c.Golden != d.BLAKE3 {
		return fmt.Errorf("%s: digest %s does not match golden %s", c.File, d.BLAKE3, c.Golden)
	}
	_, err = fmt.Fprintf(stdout, "OK %s\n  SHA-256: %s\n  BLAKE3: %s\n", c.File, d.SHA256, d.BLAKE3)
	return err
}

// canonical renders a copy of it without the fetched date, which changes
// between retrievals of the same document.
func canonical(it *bibitem.IsoBibliographicItem) []byte {
	c := it.Clone()
	c.Fetched = time.Time{}
	return c.ToXML(lossless)
}

// BatchCmd processes every document found under a path.
type BatchCmd struct {
	Source    string `arg:"" help:"Bibitem file, archive (.tar, .tar.gz, .tar.xz) or directory" type:"path"`
	Store     string `help:"Content-addressed store to add rendered documents to" type:"path"`
	Out       string `help:"Archive to write rendered documents to (.tar, .tar.gz, .tar.xz)" type:"path"`
	FailFast  bool   `name:"fail-fast" help:"Stop at the first document that fails"`
	CacheSize int    `name:"cache-size" help:"Renderings of repeated documents to keep (0 = unbounded)" default:"256"`
	DeriveFlags
	RenderFlags
}

// rendering is the batch output for one input document.
type rendering struct {
	data []byte
	ref  string
}

func (c *BatchCmd) Run() error {
	ctx := logging.WithRunID(context.Background(), uuid.New().String())

	var store *cas.Store
	if c.Store != "" {
		var err error
		if store, err = cas.NewStore(c.Store); err != nil {
			return err
		}
	}

	var (
		docs       []archive.Document
		result     *multierror.Error
		total      int
		renderings = cache.New[string, rendering](c.CacheSize)
	)
	err := archive.Walk(c.Source, func(doc archive.Document) error {
		total++
		start := time.Now()
		key := cas.BLAKE3(doc.Data)
		r, cached := renderings.Get(key)
		if !cached {
			data, ref, err := c.process(doc.Data)
			if err != nil {
				logging.DocumentError(ctx, "batch", doc.Name, err)
				result = multierror.Append(result, fmt.Errorf("%s: %w", doc.Name, err))
				if c.FailFast {
					return errStopBatch
				}
				return nil
			}
			r = rendering{data: data, ref: ref}
			renderings.Put(key, r)
		}

		args := []any{"bytes", len(r.data), "cached", cached}
		if store != nil {
			d, err := store.Put(r.data)
			if err == nil {
				err = store.Tag(r.ref, d)
			}
			if err != nil {
				return err
			}
			args = append(args, "blake3", d.BLAKE3)
		}
		docs = append(docs, archive.Document{Name: archive.DocumentID(doc.Name) + ".xml", Data: r.data})
		logging.Document(ctx, "batch", doc.Name, r.ref, time.Since(start), args...)
		fmt.Fprintf(stdout, "%s\t%s\n", r.ref, doc.Name)
		return nil
	})
	if err != nil && !errors.Is(err, errStopBatch) {
		return err
	}

	if c.Out != "" && len(docs) > 0 {
		if err := archive.WriteArchive(c.Out, archive.DocumentID(c.Out), docs, true); err != nil {
			return err
		}
	}

	stats := renderings.Stats()
	logging.InfoContext(ctx, "batch finished", "source", c.Source, "documents", total,
		"failed", failures(result), "cache_hits", stats.Hits)
	if result != nil {
		return fmt.Errorf("%d of %d documents failed: %w", failures(result), total, result.ErrorOrNil())
	}
	return nil
}

func (c *BatchCmd) process(data []byte) ([]byte, string, error) {
	it, err := bibitem.FromXML(data)
	if err != nil {
		return nil, "", err
	}
	if err := c.apply(it); err != nil {
		return nil, "", err
	}
	return c.render(it), it.Shortref(nil, bibitem.ShortrefOptions{}), nil
}

func failures(err *multierror.Error) int {
	if err == nil {
		return 0
	}
	return len(err.Errors)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Fprintf(stdout, "isobib version %s\n", version)
	return nil
}

// configureLogging applies the --log-level and --log-format flags.
func configureLogging(level, format string) error {
	l, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}
	f, err := logging.ParseFormat(format)
	if err != nil {
		return err
	}
	logging.InitLogger(l, f)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("isobib"),
		kong.Description("Bibliographic items for standards documents"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	ctx.FatalIfErrorf(configureLogging(CLI.LogLevel, CLI.LogFormat))
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
