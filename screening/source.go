package screening

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// Source produces comment records for a query. What the query means depends
// on the source: a file path, a feed URL or raw text.
type Source interface {
	Fetch(ctx context.Context, query string) ([]CommentRecord, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, query string) ([]CommentRecord, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, query string) ([]CommentRecord, error) {
	return f(ctx, query)
}

// TextSource treats the query as pasted text with one comment per line.
type TextSource struct{}

// Fetch splits query into non-empty lines.
func (TextSource) Fetch(ctx context.Context, query string) ([]CommentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []CommentRecord
	scanner := bufio.NewScanner(strings.NewReader(query))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := cleanCell(scanner.Text())
		if line == "" {
			continue
		}
		out = append(out, CommentRecord{Text: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan text: %w", err)
	}
	return out, nil
}
