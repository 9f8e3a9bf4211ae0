package feed

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/paologalligit/films-feed/entities"
	"github.com/paologalligit/films-feed/utils"
)

// Outcome of a Write.
type Outcome int

const (
	Unchanged Outcome = iota
	Written
)

func (o Outcome) String() string {
	if o == Written {
		return "written"
	}
	return "unchanged"
}

// Encode serializes v with two-space indentation, without escaping HTML
// characters. Accented letters are written as-is.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Checksum hashes the legend and films only; the metadata block holding the
// hash and the generation time is not part of it.
func Checksum(f *entities.Feed) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(f); err != nil {
		return "", fmt.Errorf("failed to encode feed for checksum: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

// Build assembles the output document and stamps it with its checksum.
func Build(cinemaName string, f *entities.Feed, generatedAt time.Time) (*entities.OutputDocument, error) {
	checksum, err := Checksum(f)
	if err != nil {
		return nil, err
	}
	return &entities.OutputDocument{
		CinemaName: cinemaName,
		Legend:     f.Legend,
		Films:      f.Films,
		Meta: entities.Meta{
			Checksum:    checksum,
			GeneratedAt: generatedAt.Format(time.RFC3339),
		},
	}, nil
}

// ReadChecksum returns the checksum embedded in an existing output file. A
// missing file yields ("", false, nil); an unreadable document is reported
// as an error but callers may treat it as "changed".
func ReadChecksum(filename string) (string, bool, error) {
	previous, exists, err := readStored(filename)
	return previous.Meta.Checksum, exists, err
}

// stored is the part of a previous output file the writer compares against.
type stored struct {
	CinemaName string        `json:"cinema"`
	Meta       entities.Meta `json:"_meta"`
}

func readStored(filename string) (stored, bool, error) {
	var previous stored
	data, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return previous, false, nil
	}
	if err != nil {
		return previous, false, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := json.Unmarshal(data, &previous); err != nil {
		return stored{}, true, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return previous, true, nil
}

// Writer replaces the output file only when its content changed.
type Writer struct {
	FilePath string
	Perm     os.FileMode
}

func NewWriter(filePath string) *Writer {
	return &Writer{FilePath: filePath, Perm: 0644}
}

// Write compares doc's checksum and cinema name with the ones already on
// disk and, when either differs, atomically replaces the file. The encoded bytes are returned when
// a write happened.
func (w *Writer) Write(doc *entities.OutputDocument) (Outcome, []byte, error) {
	previous, exists, err := readStored(w.FilePath)
	if err == nil && exists && previous.Meta.Checksum != "" &&
		previous.Meta.Checksum == doc.Meta.Checksum && previous.CinemaName == doc.CinemaName {
		return Unchanged, nil, nil
	}

	data, err := Encode(doc)
	if err != nil {
		return Unchanged, nil, fmt.Errorf("failed to encode %s: %w", w.FilePath, err)
	}
	if err := utils.WriteFileAtomic(w.FilePath, data, w.Perm); err != nil {
		return Unchanged, nil, err
	}
	return Written, data, nil
}

// Verify reads an existing output file and returns the checksum it carries
// together with the one recomputed from its legend and films.
func Verify(filename string) (embedded, recomputed string, err error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", filename, err)
	}
	var doc entities.OutputDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", "", fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	recomputed, err = Checksum(&entities.Feed{Legend: doc.Legend, Films: doc.Films})
	if err != nil {
		return "", "", err
	}
	return doc.Meta.Checksum, recomputed, nil
}
