package screening

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// WriteResultsCSV writes the canonical three-column export: Comment,
// Prediction, Confidence. Confidence is formatted as "93.00%".
func WriteResultsCSV(w io.Writer, table ResultTable) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Comment", "Prediction", "Confidence"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range table {
		label, conf := row.Flatten()
		if err := writer.Write([]string{row.Record.Text, string(label), formatConfidence(conf)}); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush results: %w", err)
	}
	return nil
}

// WriteDetailedCSV writes the results together with comment metadata and
// the failure reason for Error rows.
func WriteDetailedCSV(w io.Writer, table ResultTable) error {
	writer := csv.NewWriter(w)
	header := []string{"Index", "Comment", "Prediction", "Confidence", "Author", "AuthorID", "Timestamp", "Likes", "IsReply", "ReplyTo", "AssessedAt", "Error"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range table {
		label, conf := row.Flatten()
		rec := row.Record
		var ts, assessed, reason string
		if !rec.Timestamp.IsZero() {
			ts = rec.Timestamp.Format(time.RFC3339)
		}
		if !row.AssessedAt.IsZero() {
			assessed = row.AssessedAt.Format(time.RFC3339)
		}
		if row.Err != nil {
			reason = row.Err.Error()
		}
		line := []string{
			strconv.Itoa(row.Index + 1),
			rec.Text,
			string(label),
			formatConfidence(conf),
			rec.Author,
			rec.AuthorID,
			ts,
			strconv.Itoa(rec.LikeCount),
			strconv.FormatBool(rec.IsReply),
			rec.ReplyTarget,
			assessed,
			reason,
		}
		if err := writer.Write(line); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush results: %w", err)
	}
	return nil
}

func formatConfidence(conf float64) string {
	return fmt.Sprintf("%.2f%%", conf)
}
