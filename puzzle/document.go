/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package puzzle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

var ErrInvalidDocument = errors.New("invalid puzzle document")

const fetchTimeout = 10 * time.Second

// Letters decodes either a JSON array of one-character strings or a single
// string, since both shapes appear in published puzzle files.
type Letters []string

func (l *Letters) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("letters must be a string or a list of strings: %w", err)
	}

	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	*l = out
	return nil
}

type Clue struct {
	Clue          string  `json:"clue"`
	Answer        string  `json:"answer,omitempty"`
	Indices       []int   `json:"indices"`
	AnswerLetters Letters `json:"answer_letters"`
}

// Document is a published acrostic.
type Document struct {
	Quote        string  `json:"quote"`
	QuoteLetters Letters `json:"quote_letters"`
	Source       string  `json:"source"`
	Clues        []Clue  `json:"clues"`
}

// Validate checks the structural rules a Session depends on.
func (d *Document) Validate() error {
	if len(d.QuoteLetters) == 0 {
		return fmt.Errorf("%w: empty quote", ErrInvalidDocument)
	}
	if len(d.Clues) == 0 {
		return fmt.Errorf("%w: no clues", ErrInvalidDocument)
	}

	for n, c := range d.Clues {
		if len(c.Indices) == 0 {
			return fmt.Errorf("%w: clue %d has no indices", ErrInvalidDocument, n+1)
		}
		if len(c.AnswerLetters) != 0 && len(c.AnswerLetters) != len(c.Indices) {
			return fmt.Errorf("%w: clue %d has %d letters but %d indices",
				ErrInvalidDocument, n+1, len(c.AnswerLetters), len(c.Indices))
		}

		seen := make(map[int]bool, len(c.Indices))
		for _, i := range c.Indices {
			if i < 0 || i >= len(d.QuoteLetters) {
				return fmt.Errorf("%w: clue %d index %d out of range", ErrInvalidDocument, n+1, i)
			}
			if seen[i] {
				return fmt.Errorf("%w: clue %d repeats index %d", ErrInvalidDocument, n+1, i)
			}
			seen[i] = true
		}
	}

	return nil
}

// Link is one entry of a puzzle index.
type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Index struct {
	Links []Link `json:"links"`
}

// DecodeDocument reads and validates a puzzle document.
func DecodeDocument(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func DecodeIndex(r io.Reader) (*Index, error) {
	var idx Index
	if err := json.NewDecoder(r).Decode(&idx); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return &idx, nil
}

// Open returns a reader for src, which is either an http(s) URL or a path
// on disk.
func Open(ctx context.Context, src string) (io.ReadCloser, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return os.Open(src)
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		cancel()
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("fetch %s: %s", src, resp.Status)
	}

	return &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}, nil
}

type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}

// LoadDocument opens and decodes a puzzle document from a URL or path.
func LoadDocument(ctx context.Context, src string) (*Document, error) {
	rc, err := Open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return DecodeDocument(rc)
}

func LoadIndex(ctx context.Context, src string) (*Index, error) {
	rc, err := Open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return DecodeIndex(rc)
}
