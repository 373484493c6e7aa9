package screening

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ColumnOptions selects columns explicitly by header name or 1-based "#n"
// index. Empty fields are auto-detected.
type ColumnOptions struct {
	Comment   string
	Author    string
	Avatar    string
	Timestamp string
	Likes     string
	AuthorID  string
	IsReply   string
	ReplyTo   string
}

// FileMetadata provides header information and automatic column suggestions.
type FileMetadata struct {
	Columns   []string
	Suggested ColumnOptions
}

// CSVSource reads comments from a CSV, TSV or plain-text file. The query
// passed to Fetch is the file path.
type CSVSource struct {
	Columns ColumnOptions
	// Candidates overrides header auto-detection; nil lists use the defaults.
	Candidates ColumnCandidates
}

// Fetch parses the file at path. Plain-text files yield one comment per
// non-empty line.
func (s CSVSource) Fetch(ctx context.Context, path string) ([]CommentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return s.parseDelimited(path, ',')
	case ".tsv":
		return s.parseDelimited(path, '\t')
	default:
		return parsePlainText(path)
	}
}

func parsePlainText(path string) ([]CommentRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open text file: %w", err)
	}
	defer f.Close()
	var out []CommentRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := cleanCell(scanner.Text())
		if line == "" {
			continue
		}
		out = append(out, CommentRecord{Text: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan text file: %w", err)
	}
	return out, nil
}

func (s CSVSource) parseDelimited(path string, comma rune) ([]CommentRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return nil, errors.New("empty file")
	}
	header := cleanHeader(rows[0])
	cols, skipHeader, err := resolveColumns(header, s.Columns, s.Candidates.withDefaults())
	if err != nil {
		return nil, err
	}
	start := 0
	if skipHeader {
		start = 1
	}
	records := make([]CommentRecord, 0, len(rows)-start)
	for _, row := range rows[start:] {
		text := cols.Comment.value(row)
		if text == "" {
			continue
		}
		rec := CommentRecord{
			Text:        text,
			Author:      cols.Author.value(row),
			AvatarURL:   cols.Avatar.value(row),
			AuthorID:    cols.AuthorID.value(row),
			ReplyTarget: cols.ReplyTo.value(row),
		}
		rec.Timestamp = parseTimestamp(cols.Timestamp.value(row))
		rec.LikeCount = parseCount(cols.Likes.value(row))
		rec.IsReply = parseFlag(cols.IsReply.value(row)) || rec.ReplyTarget != ""
		records = append(records, rec)
	}
	return records, nil
}

// ReadFileMetadata returns the header and the columns auto-detection would
// pick. Plain-text files have no metadata.
func ReadFileMetadata(path string) (FileMetadata, error) {
	meta := FileMetadata{}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".tsv" {
		return meta, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return meta, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	if ext == ".tsv" {
		reader.Comma = '\t'
	}
	reader.FieldsPerRecord = -1
	row, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return meta, nil
		}
		return meta, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	header := cleanHeader(row)
	meta.Columns = header
	cols, _, err := resolveColumns(header, ColumnOptions{}, defaultColumnCandidates())
	if err == nil {
		meta.Suggested = ColumnOptions{
			Comment:   cols.Comment.HeaderName,
			Author:    cols.Author.HeaderName,
			Avatar:    cols.Avatar.HeaderName,
			Timestamp: cols.Timestamp.HeaderName,
			Likes:     cols.Likes.HeaderName,
			AuthorID:  cols.AuthorID.HeaderName,
			IsReply:   cols.IsReply.HeaderName,
			ReplyTo:   cols.ReplyTo.HeaderName,
		}
	}
	return meta, nil
}

type columnResult struct {
	Index      int
	FromHeader bool
	HeaderName string
}

func (c columnResult) value(row []string) string {
	if c.Index < 0 || c.Index >= len(row) {
		return ""
	}
	return cleanCell(row[c.Index])
}

type resolvedColumns struct {
	Comment   columnResult
	Author    columnResult
	Avatar    columnResult
	Timestamp columnResult
	Likes     columnResult
	AuthorID  columnResult
	IsReply   columnResult
	ReplyTo   columnResult
}

func (r *resolvedColumns) all() []*columnResult {
	return []*columnResult{&r.Comment, &r.Author, &r.Avatar, &r.Timestamp, &r.Likes, &r.AuthorID, &r.IsReply, &r.ReplyTo}
}

func resolveColumns(header []string, opts ColumnOptions, candidates ColumnCandidates) (resolvedColumns, bool, error) {
	var res resolvedColumns
	specs := []struct {
		explicit   string
		candidates []string
	}{
		{opts.Comment, candidates.Comment},
		{opts.Author, candidates.Author},
		{opts.Avatar, candidates.Avatar},
		{opts.Timestamp, candidates.Timestamp},
		{opts.Likes, candidates.Likes},
		{opts.AuthorID, candidates.AuthorID},
		{opts.IsReply, candidates.IsReply},
		{opts.ReplyTo, candidates.ReplyTo},
	}
	skipHeader := false
	for i, col := range res.all() {
		picked, err := pickColumn(header, specs[i].explicit, specs[i].candidates)
		if err != nil {
			return res, false, err
		}
		*col = picked
		skipHeader = skipHeader || picked.FromHeader
	}
	if res.Comment.Index < 0 {
		if skipHeader {
			return res, false, errors.New("no comment column found")
		}
		if len(header) > 0 {
			res.Comment.Index = 0
		}
	}
	for _, col := range res.all() {
		col.HeaderName = headerNameForIndex(header, col.Index, col.FromHeader)
	}
	return res, skipHeader, nil
}

func pickColumn(header []string, explicit string, candidates []string) (columnResult, error) {
	res := columnResult{Index: -1}
	if strings.TrimSpace(explicit) != "" {
		idx, fromHeader, err := matchExplicitColumn(header, explicit)
		if err != nil {
			return res, err
		}
		res.Index = idx
		res.FromHeader = fromHeader
		return res, nil
	}
	if idx := findColumn(header, candidates); idx >= 0 {
		res.Index = idx
		res.FromHeader = true
	}
	return res, nil
}

func findColumn(header []string, candidates []string) int {
	for _, cand := range candidates {
		for i, col := range header {
			if strings.EqualFold(col, cand) {
				return i
			}
		}
	}
	return -1
}

func matchExplicitColumn(header []string, explicit string) (int, bool, error) {
	trimmed := strings.TrimSpace(explicit)
	for i, col := range header {
		if strings.EqualFold(col, trimmed) {
			return i, true, nil
		}
	}
	if strings.HasPrefix(trimmed, "#") {
		idx, err := parseColumnIndex(trimmed)
		if err != nil {
			return -1, false, err
		}
		if idx >= len(header) {
			return -1, false, fmt.Errorf("column index %s is out of range", trimmed)
		}
		return idx, false, nil
	}
	return -1, false, fmt.Errorf("column %q not found", explicit)
}

func parseColumnIndex(token string) (int, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(token, "#"))
	idx, err := strconv.Atoi(trimmed)
	if err != nil {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	if idx <= 0 {
		return -1, fmt.Errorf("column indices are 1-based: %q", token)
	}
	return idx - 1, nil
}

func headerNameForIndex(header []string, idx int, fromHeader bool) string {
	if idx < 0 {
		return ""
	}
	if fromHeader && idx < len(header) {
		if name := header[idx]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("#%d", idx+1)
}

func cleanHeader(row []string) []string {
	header := make([]string, len(row))
	for i, cell := range row {
		header[i] = cleanCell(cell)
	}
	return header
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// parseTimestamp accepts common export layouts and unix seconds. Unknown
// values yield the zero time.
func parseTimestamp(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC()
	}
	return time.Time{}
}

// parseCount reads like counts such as "1,204" or "12". Bad values are 0.
func parseCount(v string) int {
	v = strings.ReplaceAll(v, ",", "")
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseFlag(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "oo":
		return true
	}
	return false
}
