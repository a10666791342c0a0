// Command formctl lists field types, fills forms and exports responses
// straight from the configured store.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	_ "github.com/joho/godotenv/autoload"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/export"
	"github.com/mbolis/quick-forms/fields"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/prompt"
	"github.com/mbolis/quick-forms/service"
	"github.com/mbolis/quick-forms/store"
)

type storeEnv struct {
	Store string `envconfig:"STORE" default:"sqlite"`
	DBUrl string `envconfig:"DB_URL" default:"qforms.sqlite"`
}

const usage = `usage: formctl <command> [flags]

commands:
  types                        list the available field types
  fill -form ID                answer a form in the terminal
  export -form ID [-format F]  write the responses of a form as csv or xlsx
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "types":
		err = listTypes(os.Stdout)
	case "fill":
		err = fill(ctx, os.Args[2:])
	case "export":
		err = exportResponses(ctx, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if errors.Is(err, prompt.ErrAborted) {
		os.Exit(130)
	}
	if err != nil {
		log.Fatal("formctl:", err)
	}
}

func listTypes(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNAME\tDEFAULT LABEL")
	for _, t := range fields.ListFieldTypes() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Type, t.DisplayName, t.Default.Label)
	}
	return tw.Flush()
}

// storeFlags registers -store and -db-url with defaults from the environment.
func storeFlags(fs *flag.FlagSet) (backend, path *string, err error) {
	var e storeEnv
	if err = envconfig.Process(config.EnvPrefix, &e); err != nil {
		return nil, nil, err
	}
	backend = fs.String("store", e.Store, "storage backend: sqlite or json")
	path = fs.String("db-url", e.DBUrl, "path to the SQLite3 DB file or the JSON document")
	return backend, path, nil
}

func fill(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fill", flag.ExitOnError)
	backend, path, err := storeFlags(fs)
	if err != nil {
		return err
	}
	formID := fs.String("form", "", "id of the form to fill")
	submitter := fs.String("submitter", "", "optional label stored with the response")
	fs.Parse(args)
	if *formID == "" {
		return errors.New("missing parameter -form")
	}

	st, err := store.Open(*backend, *path)
	if err != nil {
		return err
	}
	defer st.Close()

	form, err := service.NewFormService(st).GetForm(ctx, *formID)
	if err != nil {
		return err
	}
	answers, err := prompt.Fill(ctx, prompt.NewSurveyDriver(), form)
	if err != nil {
		return err
	}

	resp, err := service.NewResponseService(st, st).SubmitResponse(ctx, form.ID, answers, *submitter)
	if err != nil {
		return err
	}
	fmt.Printf("response %s recorded\n", resp.ID)
	return nil
}

func exportResponses(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	backend, path, err := storeFlags(fs)
	if err != nil {
		return err
	}
	formID := fs.String("form", "", "id of the form to export")
	formatName := fs.String("format", string(export.CSV), "csv or xlsx")
	output := fs.String("o", "", "output file, - for stdout (default: named after the form)")
	fs.Parse(args)
	if *formID == "" {
		return errors.New("missing parameter -form")
	}
	format, ok := export.ParseFormat(*formatName)
	if !ok {
		return errors.Errorf("unsupported format %q", *formatName)
	}

	st, err := store.Open(*backend, *path)
	if err != nil {
		return err
	}
	defer st.Close()

	out, err := service.NewResponseService(st, st).ExportResponses(ctx, *formID, format)
	if err != nil {
		return err
	}

	switch *output {
	case "-":
		_, err = os.Stdout.Write(out.Data)
		return err
	case "":
		*output = out.Filename
	}
	if err := os.WriteFile(*output, out.Data, 0o644); err != nil {
		return errors.Wrap(err, "export.write")
	}
	log.Infof("wrote %d bytes to %s", len(out.Data), *output)
	return nil
}
