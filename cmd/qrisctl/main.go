package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"example.com/qrisgate/internal/qris"
	"example.com/qrisgate/internal/render"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stdout)
		return 2
	}
	switch args[0] {
	case "rewrite":
		return rewriteCmd(args[1:], stdout, stderr)
	case "verify":
		return verifyCmd(args[1:], stdout, stderr)
	case "inspect":
		return inspectCmd(args[1:], stdout, stderr)
	case "crc":
		return crcCmd(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `qrisctl %s (built %s) <command> [options]

Commands:
  rewrite  (--payload <code> | --in <file>) --amount <amount> [--mode static|strict|legacy] [--png <file> --size <px>]
  verify   (--payload <code> | --in <file>)
  inspect  (--payload <code> | --in <file>)
  crc      --data <text>
`, version, buildDate)
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func readPayload(payload, in string) (string, error) {
	if payload != "" && in != "" {
		return "", errors.New("--payload and --in cannot be used together")
	}
	if in != "" {
		data, err := os.ReadFile(in)
		if err != nil {
			return "", errors.Wrap(err, "read payload")
		}
		payload = string(data)
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", errors.New("required: --payload or --in")
	}
	return payload, nil
}

func rewriteCmd(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("rewrite", stderr)
	payloadFlag := fs.String("payload", "", "static or dynamic QRIS code")
	in := fs.String("in", "", "file holding the QRIS code")
	amountFlag := fs.String("amount", "", "amount to embed")
	modeFlag := fs.String("mode", string(qris.ModeStatic), "rewrite mode: static, strict or legacy")
	pngOut := fs.String("png", "", "write the QR image to this file")
	size := fs.Int("size", render.DefaultQRSize, "QR image size in pixels")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	payload, err := readPayload(*payloadFlag, *in)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	amount, err := qris.ParseAmount(*amountFlag)
	if err != nil {
		fmt.Fprintf(stderr, "amount: %v\n", err)
		return 1
	}
	mode, err := qris.ParseMode(*modeFlag)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	final, err := qris.Rewrite(payload, amount, mode)
	if err != nil {
		fmt.Fprintf(stderr, "rewrite: %v\n", err)
		return 1
	}
	if *pngOut != "" {
		r, err := render.NewQRRenderer(*size, "")
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		img, err := r.Render(final)
		if err != nil {
			fmt.Fprintf(stderr, "render: %v\n", err)
			return 1
		}
		if err := os.WriteFile(*pngOut, img, 0o644); err != nil {
			fmt.Fprintf(stderr, "write png: %v\n", err)
			return 1
		}
	}
	fmt.Fprintln(stdout, final)
	return 0
}

func verifyCmd(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("verify", stderr)
	payloadFlag := fs.String("payload", "", "QRIS code")
	in := fs.String("in", "", "file holding the QRIS code")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	payload, err := readPayload(*payloadFlag, *in)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if err := qris.Verify(payload); err != nil {
		fmt.Fprintf(stdout, "INVALID: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "OK checksum %s\n", payload[len(payload)-4:])
	return 0
}

var tagNames = map[string]string{
	qris.TagPayloadFormat:  "payload format",
	qris.TagInitiation:     "point of initiation",
	qris.TagMerchantCode:   "merchant category",
	qris.TagCurrency:       "currency",
	qris.TagAmount:         "amount",
	qris.TagCountry:        "country",
	qris.TagMerchantName:   "merchant name",
	qris.TagMerchantCity:   "merchant city",
	"61":                   "postal code",
	qris.TagAdditionalData: "additional data",
	qris.TagCRC:            "checksum",
}

func inspectCmd(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("inspect", stderr)
	payloadFlag := fs.String("payload", "", "QRIS code")
	in := fs.String("in", "", "file holding the QRIS code")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	payload, err := readPayload(*payloadFlag, *in)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	p, err := qris.Parse(payload)
	if err != nil {
		fmt.Fprintf(stderr, "parse: %v\n", err)
		return 1
	}
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TAG\tLEN\tNAME\tVALUE")
	for _, f := range p {
		name := tagNames[f.Tag]
		if name == "" {
			switch {
			case f.Tag >= "26" && f.Tag <= "51":
				name = "merchant account"
			default:
				name = "-"
			}
		}
		fmt.Fprintf(tw, "%s\t%02d\t%s\t%s\n", f.Tag, f.Len(), name, f.Value)
	}
	tw.Flush()
	if err := qris.Verify(payload); err != nil {
		fmt.Fprintf(stdout, "checksum: %v\n", err)
	} else {
		fmt.Fprintln(stdout, "checksum: ok")
	}
	return 0
}

func crcCmd(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("crc", stderr)
	data := fs.String("data", "", "text to checksum")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	fmt.Fprintln(stdout, qris.Checksum(*data))
	return 0
}
