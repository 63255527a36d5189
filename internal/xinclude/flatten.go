package xinclude

import (
	"bufio"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/oshokin/alh2phoebus/internal/logger"
	"github.com/oshokin/alh2phoebus/internal/phoebus"
)

const (
	includeElement  = "include"
	hrefAttribute   = "href"
	xpointerAttr    = "xpointer"
	outputIndention = phoebus.DefaultIndent
)

var (
	// ErrUnsupportedXPointer is returned for an xpointer other than the children of the root.
	ErrUnsupportedXPointer = errors.New("unsupported xpointer")
	// ErrInclusionCycle is returned when a document includes itself, directly or not.
	ErrInclusionCycle = errors.New("inclusion cycle")

	// errMissingHref is returned for an inclusion without a target.
	errMissingHref = errors.New("xi:include without href")
)

// flattener copies tokens of nested documents into one encoder.
type flattener struct {
	// ctx carries the logger and cancellation.
	ctx context.Context
	// enc receives the flattened document.
	enc *xml.Encoder
	// expanding lists the absolute paths of documents being copied, outermost first.
	expanding []string
}

// Flatten writes the document at path to w with every inclusion replaced by
// the children of the referenced document's root. Relative hrefs are resolved
// against the directory of the document that contains them.
func Flatten(ctx context.Context, w io.Writer, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	if _, err = io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	f := &flattener{
		ctx: logger.WithName(ctx, "xinclude"),
		enc: xml.NewEncoder(w),
	}

	f.enc.Indent("", outputIndention)

	if err = f.copyDocument(absPath, false); err != nil {
		return err
	}

	if err = f.enc.Flush(); err != nil {
		return fmt.Errorf("flush document: %w", err)
	}

	if _, err = io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	return nil
}

// FlattenFile writes the flattened document at input to output.
func FlattenFile(ctx context.Context, input, output string) error {
	file, err := os.OpenFile(filepath.Clean(output), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, phoebus.DefaultFileMode)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}

	buffered := bufio.NewWriter(file)

	err = Flatten(ctx, buffered, input)
	if err == nil {
		err = buffered.Flush()
	}

	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close %s: %w", output, closeErr)
	}

	return err
}

// copyDocument streams the document at path into the encoder. With
// childrenOnly the root element itself is left out.
func (f *flattener) copyDocument(path string, childrenOnly bool) error {
	if slices.Contains(f.expanding, path) {
		return fmt.Errorf("%s: %w", path, ErrInclusionCycle)
	}

	f.expanding = append(f.expanding, path)
	defer func() {
		f.expanding = f.expanding[:len(f.expanding)-1]
	}()

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	defer func() {
		_ = file.Close()
	}()

	dec := xml.NewDecoder(bufio.NewReader(file))

	// Elements at this depth and below belong in the output.
	minDepth := 1
	if childrenOnly {
		minDepth = 2
	}

	var (
		token xml.Token
		depth int
	)

	for {
		if err = f.ctx.Err(); err != nil {
			return err
		}

		token, err = dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if isInclude(t) {
				if err = f.include(dec, path, t); err != nil {
					return err
				}

				continue
			}

			depth++
			if depth >= minDepth {
				err = f.enc.EncodeToken(t.Copy())
			}
		case xml.EndElement:
			if depth >= minDepth {
				err = f.enc.EncodeToken(t)
			}

			depth--
		case xml.CharData:
			if depth >= minDepth && len(bytes.TrimSpace(t)) > 0 {
				err = f.enc.EncodeToken(t.Copy())
			}
		case xml.Comment:
			if depth >= minDepth {
				err = f.enc.EncodeToken(t.Copy())
			}
		}

		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
	}
}

// include splices the document referenced by start and skips the element's content.
func (f *flattener) include(dec *xml.Decoder, path string, start xml.StartElement) error {
	href := attribute(start, hrefAttribute)
	if href == "" {
		return fmt.Errorf("%s: %w", path, errMissingHref)
	}

	if xpointer := attribute(start, xpointerAttr); xpointer != "" && xpointer != phoebus.ConfigXPointer {
		return fmt.Errorf("%s: %q: %w", path, xpointer, ErrUnsupportedXPointer)
	}

	if err := dec.Skip(); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	target := filepath.FromSlash(href)
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}

	logger.DebugKV(f.ctx, "Splicing inclusion", "document", path, "href", href)

	return f.copyDocument(target, true)
}

// isInclude reports whether start is an XInclude inclusion.
func isInclude(start xml.StartElement) bool {
	return start.Name.Space == phoebus.XIncludeNamespace && start.Name.Local == includeElement
}

// attribute returns the value of the unqualified attribute name.
func attribute(start xml.StartElement, name string) string {
	for _, attr := range start.Attr {
		if attr.Name.Space == "" && attr.Name.Local == name {
			return attr.Value
		}
	}

	return ""
}
