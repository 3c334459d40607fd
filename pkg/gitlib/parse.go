package gitlib

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// headerMarker starts every commit header emitted with logFormat.
const headerMarker = "\x1f"

// logFormat renders a commit header as marker, hash, author name and strict ISO date.
const logFormat = "--format=%x1f%H|%an|%aI"

// numstatFields is the number of tab-separated fields of a numstat record.
const numstatFields = 3

// maxRecordSize bounds a single NUL-terminated record; paths longer than this are not realistic.
const maxRecordSize = 1 << 20

type commitHeader struct {
	hash      string
	author    string
	timestamp time.Time
}

// ParseLog parses `git log -z --numstat` output produced with logFormat into
// change records, in document order. Every header and numstat record is
// NUL-terminated and paths are emitted verbatim, so names holding quotes,
// tabs or newlines keep their real spelling. Records that are not numstat
// records with numeric counts (binary files, stray text) are skipped.
func ParseLog(r io.Reader) ([]ChangeRecord, error) {
	var (
		records []ChangeRecord
		current commitHeader
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxRecordSize)
	scanner.Split(scanNUL)

	for scanner.Scan() {
		// git separates a header from its numstat block with one newline.
		token := strings.TrimPrefix(scanner.Text(), "\n")

		if header, ok := strings.CutPrefix(token, headerMarker); ok {
			current = parseHeader(strings.TrimRight(header, "\n"))

			continue
		}

		record, ok := parseNumstat(token)
		if !ok {
			continue
		}

		record.Commit = current.hash
		record.Author = current.author
		record.Timestamp = current.timestamp
		records = append(records, record)
	}

	err := scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("scan git log: %w", err)
	}

	return records, nil
}

// scanNUL is a bufio.SplitFunc yielding NUL-terminated records. A trailing
// record without terminator is returned at EOF.
func scanNUL(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if idx := bytes.IndexByte(data, 0); idx >= 0 {
		return idx + 1, data[:idx], nil
	}

	if atEOF {
		return len(data), data, nil
	}

	return 0, nil, nil
}

// parseHeader splits "hash|author|date". The author may itself contain '|',
// so the hash is taken from the front and the date from the back.
func parseHeader(header string) commitHeader {
	hash, rest, _ := strings.Cut(header, "|")

	author := rest
	date := ""

	if idx := strings.LastIndex(rest, "|"); idx >= 0 {
		author = rest[:idx]
		date = rest[idx+1:]
	}

	parsed := commitHeader{hash: hash, author: author}

	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(date))
	if err == nil {
		parsed.timestamp = ts
	}

	return parsed
}

func parseNumstat(token string) (ChangeRecord, bool) {
	fields := strings.SplitN(token, "\t", numstatFields)
	if len(fields) != numstatFields {
		return ChangeRecord{}, false
	}

	insertions, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil || insertions < 0 {
		return ChangeRecord{}, false
	}

	deletions, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil || deletions < 0 {
		return ChangeRecord{}, false
	}

	path := fields[2]
	if path == "" {
		return ChangeRecord{}, false
	}

	return ChangeRecord{Path: path, Insertions: insertions, Deletions: deletions}, true
}
