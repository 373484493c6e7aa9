// Package report renders an assessed comment batch and its analytics summary
// into a PDF document.
package report

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"yashubustudio/bullyscan/screening"
)

var (
	// ErrRender marks a chart or word cloud that could not be drawn. It is
	// recorded on the section and never fails the report.
	ErrRender = errors.New("render failed")
	// ErrWrite marks a failure writing the output file.
	ErrWrite = errors.New("write report")
)

// Section names, in document order.
const (
	SectionHeader                 = "header"
	SectionExecutiveSummary       = "executive_summary"
	SectionSummaryTable           = "summary_table"
	SectionClassificationChart    = "classification_chart"
	SectionConfidenceChart        = "confidence_chart"
	SectionSentimentChart         = "sentiment_chart"
	SectionWordCloud              = "word_cloud"
	SectionCyberbullyingWordCloud = "cyberbullying_word_cloud"
	SectionResultsTable           = "results_table"
	SectionRecommendations        = "recommendations"
	SectionTechnicalNotes         = "technical_notes"
)

const disclaimer = "Labels are advisory. They are produced by an automated classifier and must be confirmed by a human moderator before any action is taken."

// Section records what happened to one part of the report.
type Section struct {
	Name     string
	Rendered bool
	// Note explains an omitted section; it is also printed in the document.
	Note string
	Err  error
}

// Report describes a written PDF.
type Report struct {
	ID          string
	Path        string
	GeneratedAt time.Time
	Sections    []Section
}

// Section returns the named section entry.
func (r *Report) Section(name string) (Section, bool) {
	for _, s := range r.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Builder assembles reports. Renderer is required; the other fields are optional.
type Builder struct {
	Renderer Renderer
	Logger   *log.Logger
	LogoPath string
	ModelID  string
	// CyberbullyingCloudMin is the flagged-comment count the second word
	// cloud needs to exceed. Zero means 5.
	CyberbullyingCloudMin int
	Now                   func() time.Time
}

type sectionFunc func(*buildState) (rendered bool, note string, err error)

type buildState struct {
	doc     *document
	table   screening.ResultTable
	summary screening.Summary
	interp  Interpretation
	report  *Report
}

// Build renders table and summary to a PDF at path. Chart and word cloud
// failures are noted in place and do not fail the build. The file is only
// created once the document is complete; a write failure removes it and
// returns an error wrapping ErrWrite. Cancellation between sections returns
// screening.ErrCancelled and leaves no file behind.
func (b *Builder) Build(ctx context.Context, table screening.ResultTable, summary screening.Summary, path string) (*Report, error) {
	if b.Renderer == nil {
		return nil, errors.New("report renderer is required")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("report path is required")
	}
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	rep := &Report{ID: uuid.NewString(), Path: path, GeneratedAt: now()}
	st := &buildState{
		doc:     newDocument("Cyberbullying Analysis Report"),
		table:   table,
		summary: summary,
		interp:  Interpret(summary),
		report:  rep,
	}
	stamp := rep.GeneratedAt.Format("2006-01-02 15:04:05")
	st.doc.pdf.SetFooterFunc(func() {
		st.doc.pdf.SetY(-pageMargin + 24)
		st.doc.pdf.SetFont("Helvetica", "I", 8)
		st.doc.pdf.SetTextColor(120, 120, 120)
		st.doc.pdf.CellFormat(0, 10, st.doc.tr(fmt.Sprintf("Generated %s | Report %s | Page %d", stamp, rep.ID[:8], st.doc.pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	st.doc.pdf.AddPage()

	sections := []struct {
		name string
		fn   sectionFunc
	}{
		{SectionHeader, b.header},
		{SectionExecutiveSummary, b.executiveSummary},
		{SectionSummaryTable, b.summaryTable},
		{SectionClassificationChart, b.classificationChart},
		{SectionConfidenceChart, b.confidenceChart},
		{SectionSentimentChart, b.sentimentChart},
		{SectionWordCloud, b.wordCloud},
		{SectionCyberbullyingWordCloud, b.cyberbullyingWordCloud},
		{SectionResultsTable, b.resultsTable},
		{SectionRecommendations, b.recommendations},
		{SectionTechnicalNotes, b.technicalNotes},
	}
	for _, s := range sections {
		if err := ctx.Err(); err != nil {
			b.logf("[CANCEL] report %s cancelled before %s", rep.ID[:8], s.name)
			return nil, fmt.Errorf("%w: %w", screening.ErrCancelled, err)
		}
		rendered, note, err := s.fn(st)
		if err != nil {
			b.logf("[WARN] report section %s skipped: %v", s.name, err)
		}
		rep.Sections = append(rep.Sections, Section{Name: s.name, Rendered: rendered, Note: note, Err: err})
	}
	if err := st.doc.pdf.Error(); err != nil {
		return nil, fmt.Errorf("assemble report: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", screening.ErrCancelled, err)
	}
	if err := writeFile(st.doc, path); err != nil {
		b.logf("[ERROR] report write failed: %v", err)
		return nil, err
	}
	b.logf("report %s written to %s", rep.ID[:8], path)
	return rep, nil
}

func writeFile(doc *document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := doc.pdf.Output(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func (b *Builder) header(st *buildState) (bool, string, error) {
	d := st.doc
	var note string
	var logoErr error
	if b.LogoPath != "" {
		data, err := os.ReadFile(b.LogoPath)
		if err == nil {
			err = d.image(data, 120)
		}
		if err != nil {
			logoErr = fmt.Errorf("%w: logo: %w", ErrRender, err)
			note = "Logo could not be loaded."
		}
	}
	d.pdf.SetFont("Helvetica", "B", 20)
	d.pdf.SetTextColor(33, 37, 41)
	d.pdf.CellFormat(d.width, 26, d.tr("Cyberbullying Analysis Report"), "", 1, "C", false, 0, "")
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.SetTextColor(108, 117, 125)
	d.pdf.CellFormat(d.width, 14, d.tr(st.report.GeneratedAt.Format("January 2, 2006 15:04 MST")), "", 1, "C", false, 0, "")
	d.pdf.Ln(10)
	return true, note, logoErr
}

func (b *Builder) executiveSummary(st *buildState) (bool, string, error) {
	st.doc.heading("Executive Summary")
	st.doc.paragraph(st.interp.ExecutiveSummary(st.summary))
	return true, "", nil
}

func (b *Builder) summaryTable(st *buildState) (bool, string, error) {
	s := st.summary
	st.doc.heading("Summary")
	rows := [][2]string{
		{"Total comments", strconv.Itoa(s.Total)},
		{"Normal", fmt.Sprintf("%d (%.1f%%)", s.NormalCount, s.NormalPct)},
		{"Cyberbullying", fmt.Sprintf("%d (%.1f%%)", s.CyberbullyingCount, s.CyberbullyingPct)},
		{"Errors", strconv.Itoa(s.ErrorCount)},
		{"High confidence (90% and above)", fmt.Sprintf("%.1f%%", 100*s.HighConfidenceFraction)},
		{"Overall sentiment", string(s.SentimentOverall)},
		{"Sentiment of cyberbullying comments", string(s.SentimentCyberbullying)},
		{"Top terms", joinTerms(s.TopTermsOverall)},
		{"Top terms in cyberbullying comments", joinTerms(s.TopTermsCyberbullying)},
	}
	st.doc.keyValueTable(rows)
	return true, "", nil
}

func joinTerms(terms []screening.TermCount) string {
	if len(terms) == 0 {
		return "-"
	}
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = fmt.Sprintf("%s (%d)", t.Term, t.Count)
	}
	return strings.Join(parts, ", ")
}

// chart draws a rendered image under a heading, or the failure note in its place.
func (b *Builder) chart(st *buildState, title string, render func() ([]byte, error)) (bool, string, error) {
	st.doc.heading(title)
	data, err := render()
	if err == nil {
		err = st.doc.image(data, 400)
	}
	if err != nil {
		note := fmt.Sprintf("%s could not be generated.", title)
		st.doc.note(note)
		return false, note, fmt.Errorf("%w: %s: %w", ErrRender, title, err)
	}
	return true, "", nil
}

func (b *Builder) classificationChart(st *buildState) (bool, string, error) {
	s := st.summary
	slices := []Slice{
		{Label: string(screening.LabelNormal), Value: float64(s.NormalCount), Color: colorNormal},
		{Label: string(screening.LabelCyberbullying), Value: float64(s.CyberbullyingCount), Color: colorCyberbullying},
	}
	if s.ErrorCount > 0 {
		slices = append(slices, Slice{Label: string(screening.LabelError), Value: float64(s.ErrorCount), Color: colorError})
	}
	return b.chart(st, "Classification Distribution", func() ([]byte, error) {
		return b.Renderer.PieChart("Classification Distribution", slices)
	})
}

func (b *Builder) confidenceChart(st *buildState) (bool, string, error) {
	bk := st.summary.Buckets
	bars := []Bar{
		{Label: "90-100%", Value: float64(bk.High), Color: colorBar},
		{Label: "80-89%", Value: float64(bk.Good), Color: colorBar},
		{Label: "70-79%", Value: float64(bk.Fair), Color: colorBar},
		{Label: "<70%", Value: float64(bk.Low), Color: colorBar},
	}
	return b.chart(st, "Confidence Distribution", func() ([]byte, error) {
		return b.Renderer.BarChart("Confidence Distribution", "Comments", bars)
	})
}

func (b *Builder) sentimentChart(st *buildState) (bool, string, error) {
	c := st.summary.SentimentCounts
	bars := []Bar{
		{Label: string(screening.Positive), Value: float64(c.Positive), Color: colorPositive},
		{Label: string(screening.Neutral), Value: float64(c.Neutral), Color: colorNeutral},
		{Label: string(screening.Negative), Value: float64(c.Negative), Color: colorNegative},
	}
	return b.chart(st, "Sentiment Distribution", func() ([]byte, error) {
		return b.Renderer.BarChart("Sentiment Distribution", "Comments", bars)
	})
}

func (b *Builder) wordCloud(st *buildState) (bool, string, error) {
	if len(st.summary.TermFrequencies) == 0 {
		st.doc.heading("Word Cloud")
		note := "No terms to display."
		st.doc.note(note)
		return false, note, nil
	}
	return b.chart(st, "Word Cloud", func() ([]byte, error) {
		return b.Renderer.WordCloud(st.summary.TermFrequencies)
	})
}

func (b *Builder) cyberbullyingWordCloud(st *buildState) (bool, string, error) {
	minCount := b.CyberbullyingCloudMin
	if minCount <= 0 {
		minCount = 5
	}
	if st.summary.CyberbullyingCount <= minCount || len(st.summary.CyberbullyingTermFrequencies) == 0 {
		return false, fmt.Sprintf("omitted: %d cyberbullying comments, more than %d required", st.summary.CyberbullyingCount, minCount), nil
	}
	return b.chart(st, "Cyberbullying Word Cloud", func() ([]byte, error) {
		return b.Renderer.WordCloud(st.summary.CyberbullyingTermFrequencies)
	})
}

func (b *Builder) resultsTable(st *buildState) (bool, string, error) {
	st.doc.heading("Detailed Results")
	if len(st.table) == 0 {
		note := "No comments were analysed."
		st.doc.note(note)
		return true, note, nil
	}
	w := st.doc.width
	cols := []column{
		{title: "#", width: 30, align: "C"},
		{title: "Comment", width: w - 30 - 90 - 70, align: "L"},
		{title: "Prediction", width: 90, align: "C"},
		{title: "Confidence", width: 70, align: "C"},
	}
	rows := make([][]string, len(st.table))
	for i, row := range st.table {
		label, conf := row.Flatten()
		rows[i] = []string{strconv.Itoa(i + 1), row.Record.Text, string(label), fmt.Sprintf("%.2f%%", conf)}
	}
	st.doc.table(cols, rows)
	return true, "", nil
}

func (b *Builder) recommendations(st *buildState) (bool, string, error) {
	st.doc.heading("Recommendations")
	for _, r := range st.interp.Recommendations() {
		st.doc.bullet(r)
	}
	st.doc.pdf.Ln(4)
	return true, "", nil
}

func (b *Builder) technicalNotes(st *buildState) (bool, string, error) {
	s := st.summary
	st.doc.heading("Technical Notes")
	if b.ModelID != "" {
		st.doc.bullet("Embedding model: " + b.ModelID)
	}
	st.doc.bullet(fmt.Sprintf("Sentiment was computed on the first %d of %d comments and the first %d of %d cyberbullying comments.",
		s.SentimentSampleSize, s.Total, s.SentimentCyberbullyingSampleSize, s.CyberbullyingCount))
	if s.SentimentDegraded {
		st.doc.bullet("The sentiment model was unavailable; sentiment figures come from a rule-based fallback and are less accurate.")
	}
	st.doc.bullet(fmt.Sprintf("Assessment: %s level, %s confidence.", st.interp.Severity, st.interp.Reliability))
	st.doc.bullet(disclaimer)
	st.doc.bullet("Generated " + st.report.GeneratedAt.Format(time.RFC1123) + ", report id " + st.report.ID + ".")
	return true, "", nil
}

func (b *Builder) logf(format string, args ...any) {
	if b.Logger != nil {
		b.Logger.Printf(format, args...)
	}
}
