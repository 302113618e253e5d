// Command nerprep converts doccano span annotations into subword-token IOB datasets for
// token-classification training, and inspects the annotations.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alecthomas/kong"
	"k8s.io/klog/v2"
)

const version = "0.1.0"

// CLI defines the command-line interface of nerprep.
var CLI struct {
	Verbosity int `name:"verbosity" short:"v" help:"Log verbosity level (klog -v)" default:"0"`

	Convert   ConvertCmd   `cmd:"" help:"Convert a doccano JSONL export into a tagged token dataset"`
	Entities  EntitiesCmd  `cmd:"" help:"Print the annotated entities of each record, grouped by label"`
	Highlight HighlightCmd `cmd:"" help:"Print records with their entities highlighted"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run(out io.Writer) error {
	_, err := fmt.Fprintf(out, "nerprep version %s\n", version)
	return err
}

// initLogging configures klog to log to stderr with the given verbosity.
func initLogging(verbosity int) {
	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)
	_ = fs.Set("logtostderr", "true")
	_ = fs.Set("v", strconv.Itoa(verbosity))
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("nerprep"),
		kong.Description("Prepare NER token-classification data from doccano annotations"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.BindTo(os.Stdout, (*io.Writer)(nil)),
	)
	initLogging(CLI.Verbosity)
	err := ctx.Run()
	klog.Flush()
	ctx.FatalIfErrorf(err)
}
