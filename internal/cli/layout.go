package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mosaic/pkg/api"
	"github.com/matzehuels/mosaic/pkg/errors"
	"github.com/matzehuels/mosaic/pkg/masonry"
	"github.com/matzehuels/mosaic/pkg/render"
)

const (
	formatJSON = "json"
	formatSVG  = "svg"
)

// layoutOpts holds the flags of the layout command.
type layoutOpts struct {
	width       float64
	columnWidth float64
	gap         float64
	format      string
	images      bool
	output      string
}

// layoutCommand creates the layout command for arranging media into columns.
func (c *CLI) layoutCommand() *cobra.Command {
	opts := layoutOpts{width: 1200, format: formatJSON}

	cmd := &cobra.Command{
		Use:   "layout <items.json>",
		Short: "Arrange media into masonry columns",
		Long: `Arrange media into masonry columns.

The input is either a JSON array of media objects or an API response whose
"data" (or "items") field holds that array, so the output of
'mosaic fetch gallery <id> --json' and raw API pages both work. Each media
object needs "width" and "height"; items without valid dimensions are laid
out as squares.

Column width and gap default to the [layout] section of the config file.`,
		Example: `  mosaic layout gallery.json --width 1440
  mosaic layout gallery.json -f svg --images -o gallery.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("column-width") {
				opts.columnWidth = cfg.Layout.ColumnWidth
			}
			if !cmd.Flags().Changed("gap") {
				opts.gap = cfg.Layout.Gap
			}
			return c.runLayout(args[0], opts)
		},
	}

	cmd.Flags().Float64VarP(&opts.width, "width", "w", opts.width, "container width in pixels")
	cmd.Flags().Float64Var(&opts.columnWidth, "column-width", 0, "target column width in pixels")
	cmd.Flags().Float64Var(&opts.gap, "gap", 0, "gap between columns and items in pixels")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: json, svg")
	cmd.Flags().BoolVar(&opts.images, "images", false, "embed thumbnails in SVG output")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, - for stdout (default: <input>.layout.<format>)")

	return cmd
}

// runLayout reads media from input, arranges it, and writes the result.
func (c *CLI) runLayout(input string, opts layoutOpts) error {
	for _, check := range []error{
		errors.ValidateDimension("width", opts.width, true),
		errors.ValidateDimension("column width", opts.columnWidth, false),
		errors.ValidateDimension("gap", opts.gap, true),
	} {
		if check != nil {
			return check
		}
	}
	if opts.format != formatJSON && opts.format != formatSVG {
		return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (use json or svg)", opts.format)
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}
	items, err := decodeMedia(data)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s", input)
	}

	prog := newProgress(c.Logger)
	out, plan, err := renderLayout(items, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Arranged %d items in %d columns", len(items), len(plan.Columns)))

	outputPath := opts.output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout." + opts.format
	}
	if outputPath == "-" {
		if opts.format == formatSVG && stdoutIsTerminal() {
			printWarning("writing SVG to a terminal; use -o to save it")
		}
		_, err := os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printDetail("%d columns of %.0fpx, %.0fpx tall", len(plan.Columns), plan.ColumnWidth, plan.Height())
	return nil
}

// renderLayout arranges items for opts and encodes the result.
func renderLayout(items []api.Media, opts layoutOpts) ([]byte, masonry.Plan[api.Media], error) {
	b := masonry.NewBalancer[api.Media](opts.columnWidth, opts.gap)
	b.Resize(opts.width)
	b.SetItems(items)
	plan := b.Plan()

	switch opts.format {
	case formatSVG:
		var svgOpts []render.SVGOption
		if opts.images {
			svgOpts = append(svgOpts, render.WithImages())
		}
		return render.RenderSVG(masonry.Place(plan), svgOpts...), plan, nil
	default:
		out, err := render.RenderJSON(plan)
		return out, plan, err
	}
}

// decodeMedia accepts a bare array of media, an object with a "data" or
// "items" array, or newline-delimited objects as written by fetch --json.
func decodeMedia(data []byte) ([]api.Media, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	if data[0] == '[' {
		var items []api.Media
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var items []api.Media
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var doc struct {
			Data  *[]api.Media `json:"data"`
			Items *[]api.Media `json:"items"`
		}
		err := dec.Decode(&doc)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch {
		case doc.Data != nil:
			items = append(items, *doc.Data...)
		case doc.Items != nil:
			items = append(items, *doc.Items...)
		default:
			return nil, fmt.Errorf(`expected an array or an object with "data" or "items"`)
		}
	}
	if items == nil {
		items = []api.Media{}
	}
	return items, nil
}
