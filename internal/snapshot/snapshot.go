// Package snapshot saves analysis results as LZ4-compressed JSON so they can
// be rendered later without access to the repository.
package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/churnmap/internal/heatmap"
)

// FormatVersion is the snapshot layout written by this package.
const FormatVersion = 1

// FileExtension is the conventional snapshot file suffix.
const FileExtension = ".churnmap.lz4"

//go:embed schema.json
var schemaJSON []byte

// ErrInvalidSnapshot is returned when a snapshot does not match the schema.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is the persisted form of one analysis.
type Snapshot struct {
	Version    int                `json:"version"`
	Repository string             `json:"repository"`
	CreatedAt  time.Time          `json:"createdAt"`
	Since      string             `json:"since,omitempty"`
	Until      string             `json:"until,omitempty"`
	Summary    heatmap.Summary    `json:"summary"`
	Files      []heatmap.FileStat `json:"files"`
}

// New captures result as a snapshot.
func New(repository string, opts heatmap.Options, result *heatmap.Result, createdAt time.Time) *Snapshot {
	files := result.Files
	if files == nil {
		files = []heatmap.FileStat{}
	}

	return &Snapshot{
		Version:    FormatVersion,
		Repository: repository,
		CreatedAt:  createdAt.UTC(),
		Since:      opts.Since,
		Until:      opts.Until,
		Summary:    result.Summary,
		Files:      files,
	}
}

// Result rebuilds the tree of the snapshot's files.
func (s *Snapshot) Result() (*heatmap.Result, error) {
	return heatmap.Assemble(s.Files, s.Summary)
}

// Write encodes s as JSON into an LZ4 frame on w.
func Write(w io.Writer, s *Snapshot) error {
	zw := lz4.NewWriter(w)

	err := zw.Apply(lz4.CompressionLevelOption(lz4.Level5))
	if err != nil {
		return fmt.Errorf("configure lz4: %w", err)
	}

	encodeErr := json.NewEncoder(zw).Encode(s)
	if encodeErr != nil {
		return fmt.Errorf("encode snapshot: %w", encodeErr)
	}

	closeErr := zw.Close()
	if closeErr != nil {
		return fmt.Errorf("flush lz4: %w", closeErr)
	}

	return nil
}

// Read decompresses, validates and decodes a snapshot written by Write.
func Read(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(lz4.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}

	validateErr := Validate(data)
	if validateErr != nil {
		return nil, validateErr
	}

	var snap Snapshot

	decodeErr := json.Unmarshal(data, &snap)
	if decodeErr != nil {
		return nil, fmt.Errorf("decode snapshot: %w", decodeErr)
	}

	return &snap, nil
}

// Validate checks uncompressed snapshot JSON against the embedded schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, verr.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidSnapshot, strings.Join(problems, "; "))
}

// Save writes s to path, replacing any existing file, and returns the
// compressed size in bytes.
func Save(path string, s *Snapshot) (int, error) {
	var buf bytes.Buffer

	err := Write(&buf, s)
	if err != nil {
		return 0, err
	}

	writeErr := os.WriteFile(path, buf.Bytes(), 0o600)
	if writeErr != nil {
		return 0, fmt.Errorf("write snapshot: %w", writeErr)
	}

	return buf.Len(), nil
}

// Load reads the snapshot stored at path.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	return Read(f)
}
