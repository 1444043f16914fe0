// Command pesan parses a single pasted order message from stdin and prints
// the extracted contact, optionally corrected against the reference
// dataset.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"go.uber.org/zap"

	"kiriman/internal/contact"
	"kiriman/internal/corrector"
	"kiriman/internal/extractor"
	"kiriman/internal/wilayah"
)

func main() {
	correct := flag.Bool("correct", false, "Resolve administrative names against the lookup service")
	baseURL := flag.String("wilayah-base", wilayah.DefaultBaseURL, "Administrative-area lookup service base URL")
	threshold := flag.Float64("threshold", corrector.DefaultThreshold, "Fuzzy match acceptance threshold")
	asJSON := flag.Bool("json", false, "Print the full record as JSON")
	flag.Parse()

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatalf("Failed to read stdin: %v", err)
	}

	draft := extractor.Extract(string(raw))
	if draft == nil {
		fmt.Fprintln(os.Stderr, "no contact found in message")
		os.Exit(1)
	}

	if *correct {
		lookup := wilayah.NewClient(*baseURL, nil, zap.NewNop())
		co := corrector.New(lookup, zap.NewNop(), *threshold)
		draft = co.Correct(context.Background(), draft)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(draft); err != nil {
			log.Fatalf("Failed to encode: %v", err)
		}
		return
	}

	fmt.Printf("Name:    %s\n", draft.Name)
	fmt.Printf("Phone:   %s\n", draft.PhoneNumber)
	fmt.Printf("Payment: %s\n", draft.Payment)
	fmt.Printf("Address: %s\n", contact.FormatAddress(draft))
	if *correct {
		fmt.Printf("Validated: %v\n", draft.Validated)
		for _, corr := range draft.Corrections {
			fmt.Printf("Corrected %s: %q -> %q\n", corr.Field, corr.OriginalValue, corr.CorrectedValue)
		}
	}
}
