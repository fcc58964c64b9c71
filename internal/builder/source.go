package builder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// field is one key/value pair of a JSON object, kept in document order.
// value is one of: string, json.Number, bool, nil, []field or []any.
type field struct {
	key   string
	value any
}

// rawEntity is one top-level entry of a scraped data file.
type rawEntity struct {
	Name   string
	Fields []field
	Source string
}

// lookup returns the value stored under key.
func (e rawEntity) lookup(key string) (any, bool) {
	for _, f := range e.Fields {
		if f.key == key {
			return f.value, true
		}
	}
	return nil, false
}

// expandInputs resolves glob patterns to a sorted, de-duplicated file list. Patterns without
// meta characters must name an existing file.
func expandInputs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid input pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no input files match %q", pattern)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}

// readEntities reads every file in order. Entity order is file order, then key order within
// a file. A name defined twice is an error.
func readEntities(files []string) ([]rawEntity, error) {
	var out []rawEntity
	where := make(map[string]string)
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		entities, err := decodeEntities(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		for _, e := range entities {
			if prev, dup := where[e.Name]; dup {
				return nil, fmt.Errorf("entity %q defined in both %s and %s", e.Name, prev, path)
			}
			where[e.Name] = path
			e.Source = path
			out = append(out, e)
		}
	}
	return out, nil
}

// decodeEntities parses a top-level object of name -> object. encoding/json maps lose key
// order, so the stream is walked token by token.
func decodeEntities(r io.Reader) ([]rawEntity, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var out []rawEntity
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		value, err := readValue(dec)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", name, err)
		}
		fields, ok := value.([]field)
		if !ok {
			return nil, fmt.Errorf("entity %q: expected an object", name)
		}
		out = append(out, rawEntity{Name: name, Fields: fields})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level object")
	}
	return out, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func readValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '{':
		fields := []field{}
		for dec.More() {
			key, err := readKey(dec)
			if err != nil {
				return nil, err
			}
			v, err := readValue(dec)
			if err != nil {
				return nil, err
			}
			fields = append(fields, field{key: key, value: v})
		}
		return fields, expectDelim(dec, '}')
	case '[':
		items := []any{}
		for dec.More() {
			v, err := readValue(dec)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, expectDelim(dec, ']')
	default:
		return nil, fmt.Errorf("unexpected %q", d)
	}
}
