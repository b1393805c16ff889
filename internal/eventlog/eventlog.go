// Package eventlog reads and writes contract event logs as JSON lines.
//
// Each non-blank line holds one event object discriminated by its "name"
// field:
//
//	{"name":"ContractCreatedEvent","contractId":1,"premium":100,"startDate":"2020-01-05"}
//	{"name":"PriceIncreasedEvent","contractId":1,"premiumIncrease":50,"atDate":"2020-03-10"}
//	{"name":"PriceDecreasedEvent","contractId":1,"premiumReduction":20,"atDate":"2020-04-01"}
//	{"name":"ContractTerminatedEvent","contractId":1,"terminationDate":"2020-03-20"}
//
// Lines are checked against an embedded JSON Schema before decoding. The
// schema checks shape and types only; it says nothing about whether the log
// is consistent. Line order is preserved exactly.
package eventlog

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/roach88/gwp/internal/contract"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "https://gwp.schemas.local/eventlog/event.schema.json"

// maxLineBytes bounds a single event line.
const maxLineBytes = 1 << 20

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to load event schema: %w", err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile event schema: %w", err)
	}
	return schema, nil
})

// DecodeError reports a line that could not be turned into an event.
// Decoding stops at the first one.
type DecodeError struct {
	File string // empty when decoding a plain reader
	Line int    // 1-based
	Err  error
}

func (e *DecodeError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("DECODE_ERROR: %s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("DECODE_ERROR: line %d: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecodeError returns true if err is or wraps a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// Decode reads every event from r in line order. Blank lines are skipped.
func Decode(r io.Reader) ([]contract.Event, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var events []contract.Event
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		e, err := decodeLine(schema, text)
		if err != nil {
			return nil, &DecodeError{Line: line, Err: err}
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, &DecodeError{Line: line + 1, Err: err}
	}

	return events, nil
}

func decodeLine(schema *jsonschema.Schema, text []byte) (contract.Event, error) {
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("invalid JSON: trailing data after event object")
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(text, &rec); err != nil {
		return nil, err
	}
	return rec.ToEvent()
}

// ReadFile decodes the event log at path. Decode errors carry the path.
func ReadFile(path string) ([]contract.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	events, err := Decode(f)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.File = path
		}
		return nil, err
	}
	return events, nil
}

// Encode writes events to w, one JSON object per line.
func Encode(w io.Writer, events []contract.Event) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for i, e := range events {
		if e == nil {
			return fmt.Errorf("event %d is nil", i)
		}
		if err := enc.Encode(RecordOf(e)); err != nil {
			return fmt.Errorf("failed to encode event %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// WriteFile writes events to path as JSON lines, replacing any existing file.
func WriteFile(path string, events []contract.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create event log: %w", err)
	}
	if err := Encode(f, events); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
