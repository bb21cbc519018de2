package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/abiiranathan/goflag"

	"pdfview/index"
	"pdfview/poppler"
	"pdfview/search"
)

// DefineFlags registers the subcommands and their flags.
func DefineFlags(config *Config, runServer func()) *goflag.Context {
	databaseFlag := goflag.Flag{
		FlagType:  goflag.FlagString,
		Name:      "database",
		ShortName: "d",
		Value:     &config.Database,
		Usage:     "Path to the sqlite library database",
		Required:  false,
		Validator: nil,
	}

	ctx := goflag.NewContext()

	// global flags
	ctx.AddFlag(goflag.FlagInt, "concurrency", "c",
		&config.Concurrency,
		"No of pages to be processed at once",
		false, goflag.Min(1), goflag.Max(64))

	ctx.AddSubCommand("search", "Search a single PDF file", func() {
		session, err := searchFile(context.Background(), config)
		if err != nil {
			log.Fatalln(err)
		}
		printMatches(session)
	}).AddFlag(goflag.FlagFilePath, "file", "f", &config.Filename, "The PDF file to search", true).
		AddFlag(goflag.FlagString, "query", "q", &config.Query, "The text to search for", true).
		AddFlag(goflag.FlagBool, "case", "s", &config.CaseSensitive, "Match case exactly", false).
		AddFlag(goflag.FlagBool, "word", "w", &config.WholeWord, "Match whole words only", false)

	ctx.AddSubCommand("index", "Index a directory of PDF files into the library", func() {
		if err := BuildLibrary(context.Background(), config); err != nil {
			log.Fatalln(err)
		}
	}).AddFlag(goflag.FlagDirPath, "directory", "D", &config.Directory, "The directory to index", true).
		AddFlagPtr(&databaseFlag)

	ctx.AddSubCommand("serve", "Start the HTTP search server", runServer).
		AddFlag(goflag.FlagInt, "port", "p", &config.Port, "The port to listen on", false).
		AddFlagPtr(&databaseFlag)

	return ctx
}

func searchFile(ctx context.Context, config *Config) (*search.Session, error) {
	d, err := poppler.Open(config.Filename)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	cache := index.NewCache(d)
	defer cache.Close()

	engine := search.NewEngine(cache, search.EngineConfig{Concurrency: config.Concurrency})
	return engine.Run(ctx, config.Query, search.Options{
		CaseSensitive: config.CaseSensitive,
		WholeWord:     config.WholeWord,
	})
}

func printMatches(session *search.Session) {
	for _, m := range session.Matches {
		r := m.Rects[0]
		fmt.Printf("page %d @%d: %q [%.1f,%.1f %.1fx%.1f]\n",
			m.Page, m.Start, m.Text, r.Left, r.Bottom, r.Width(), r.Height())
	}
	if len(session.SkippedPages) > 0 {
		fmt.Printf("skipped pages: %v\n", session.SkippedPages)
	}
	fmt.Printf("%d matches\n", len(session.Matches))
}
