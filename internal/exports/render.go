package exports

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/text/unicode/norm"
)

const (
	pdfTop          = 800.0
	pdfLeft         = 50.0
	pdfLineHeight   = 14.0
	pdfLinesPerPage = 52
)

type pdfLine struct {
	text string
	bold bool
	size int
}

type pdfDocument struct {
	Paper  string             `json:"paper"`
	Origin string             `json:"origin"`
	Pages  map[string]pdfPage `json:"pages"`
}

type pdfPage struct {
	Content pdfContent `json:"content"`
}

type pdfContent struct {
	Text []pdfText `json:"text"`
}

type pdfText struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  pdfFont    `json:"font"`
}

type pdfFont struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// renderPDF lays the report out as text lines and lets pdfcpu build the
// document from its JSON page description.
func renderPDF(ctx context.Context, rep *Report) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines := reportLines(rep)
	doc := pdfDocument{
		Paper:  "A4P",
		Origin: "LowerLeft",
		Pages:  make(map[string]pdfPage),
	}

	for i := 0; i < len(lines); i += pdfLinesPerPage {
		end := min(i+pdfLinesPerPage, len(lines))
		var page pdfPage
		for j, l := range lines[i:end] {
			font := pdfFont{Name: "Helvetica", Size: l.size}
			if l.bold {
				font.Name = "Helvetica-Bold"
			}
			page.Content.Text = append(page.Content.Text, pdfText{
				Value: pdfSafe(l.text),
				Pos:   [2]float64{pdfLeft, pdfTop - float64(j)*pdfLineHeight},
				Font:  font,
			})
		}
		doc.Pages[strconv.Itoa(len(doc.Pages)+1)] = page
	}

	spec, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := api.Create(nil, bytes.NewReader(spec), &buf, nil); err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func reportLines(rep *Report) []pdfLine {
	lines := []pdfLine{
		{text: "HACCP Plan: " + rep.PlanName, bold: true, size: 16},
	}
	if rep.Description != "" {
		lines = append(lines, pdfLine{text: rep.Description, size: 10})
	}
	lines = append(lines,
		pdfLine{text: fmt.Sprintf("Generated %s by %s", rep.GeneratedAt.Format("2006-01-02 15:04 MST"), rep.GeneratedBy), size: 9},
		pdfLine{size: 10},
		pdfLine{text: "Summary", bold: true, size: 12},
		pdfLine{text: fmt.Sprintf("CCP: %d   OPRP: %d   PRP: %d", rep.Summary.CCPCount, rep.Summary.OPRPCount, rep.Summary.PRPCount), size: 10},
		pdfLine{size: 10},
		pdfLine{text: "Decision tree", bold: true, size: 12},
	)
	for i, p := range rep.QuestionPrompts() {
		lines = append(lines, pdfLine{text: fmt.Sprintf("Q%d. %s", i+1, p), size: 9})
	}
	lines = append(lines,
		pdfLine{size: 10},
		pdfLine{text: "Hazard analysis", bold: true, size: 12},
	)

	for _, h := range rep.Hazards {
		lines = append(lines,
			pdfLine{text: fmt.Sprintf("%s  [%s]  %s", h.ID, h.Category, h.Classification), bold: true, size: 10},
			pdfLine{text: fmt.Sprintf("Step: %s   Q1: %s  Q2: %s  Q3: %s  Q4: %s", h.Step, h.Answers[0], h.Answers[1], h.Answers[2], h.Answers[3]), size: 9},
		)
		if h.Description != "" {
			lines = append(lines, pdfLine{text: h.Description, size: 9})
		}
	}
	return lines
}

// pdfSafe maps s onto the Latin-1 range the standard Type 1 fonts encode.
// A rune outside it is replaced by the Latin-1 runes of its compatibility
// decomposition, so "ő" becomes "o" and "ﬁ" becomes "fi". Runes with no such
// decomposition, such as CJK or Cyrillic letters, and control characters
// become '?'. The HTML and DOCX exports carry the text unchanged.
func pdfSafe(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r < 0x20:
			b.WriteByte('?')
		case r <= 0xff:
			b.WriteRune(r)
		default:
			b.WriteString(latinFold(r))
		}
	}
	return b.String()
}

func latinFold(r rune) string {
	var b strings.Builder
	for _, d := range norm.NFKD.String(string(r)) {
		if d >= 0x20 && d <= 0xff {
			b.WriteRune(d)
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

var htmlReport = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>HACCP Plan: {{.PlanName}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: 0.25rem 0.5rem; text-align: left; }
.CCP { font-weight: bold; }
</style>
</head>
<body>
<h1>HACCP Plan: {{.PlanName}}</h1>
{{with .Description}}<p>{{.}}</p>{{end}}
<p>Generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}} by {{.GeneratedBy}}</p>
<h2>Summary</h2>
<ul>
<li>CCP: {{.Summary.CCPCount}}</li>
<li>OPRP: {{.Summary.OPRPCount}}</li>
<li>PRP: {{.Summary.PRPCount}}</li>
</ul>
<h2>Decision tree</h2>
<ol>{{range .QuestionPrompts}}
<li>{{.}}</li>{{end}}
</ol>
<h2>Hazard analysis</h2>
<table>
<thead><tr><th>Hazard</th><th>Step</th><th>Category</th><th>Description</th><th>Q1</th><th>Q2</th><th>Q3</th><th>Q4</th><th>Classification</th></tr></thead>
<tbody>{{range .Hazards}}
<tr><td>{{.ID}}</td><td>{{.Step}}</td><td>{{.Category}}</td><td>{{.Description}}</td>{{range .Answers}}<td>{{.}}</td>{{end}}<td class="{{.Classification}}">{{.Classification}}</td></tr>{{end}}
</tbody>
</table>
</body>
</html>
`))

func renderHTML(ctx context.Context, rep *Report) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := htmlReport.Execute(&buf, rep); err != nil {
		return nil, fmt.Errorf("html: %w", err)
	}
	return buf.Bytes(), nil
}

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// renderDOCX writes a minimal WordprocessingML package: one document part
// with headings, paragraphs, and the hazard table.
func renderDOCX(ctx context.Context, rep *Report) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"word/document.xml", docxDocument(rep)},
	}

	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("docx: %w", err)
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return nil, fmt.Errorf("docx: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("docx: %w", err)
	}
	return buf.Bytes(), nil
}

func docxDocument(rep *Report) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	para(&b, "HACCP Plan: "+rep.PlanName, true)
	if rep.Description != "" {
		para(&b, rep.Description, false)
	}
	para(&b, fmt.Sprintf("Generated %s by %s", rep.GeneratedAt.Format("2006-01-02 15:04 MST"), rep.GeneratedBy), false)
	para(&b, "Summary", true)
	para(&b, fmt.Sprintf("CCP: %d   OPRP: %d   PRP: %d", rep.Summary.CCPCount, rep.Summary.OPRPCount, rep.Summary.PRPCount), false)
	para(&b, "Decision tree", true)
	for i, p := range rep.QuestionPrompts() {
		para(&b, fmt.Sprintf("Q%d. %s", i+1, p), false)
	}
	para(&b, "Hazard analysis", true)

	b.WriteString(`<w:tbl><w:tblPr><w:tblBorders>`)
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		fmt.Fprintf(&b, `<w:%s w:val="single" w:sz="4"/>`, side)
	}
	b.WriteString(`</w:tblBorders></w:tblPr>`)

	row(&b, true, "Hazard", "Step", "Category", "Description", "Q1", "Q2", "Q3", "Q4", "Classification")
	for _, h := range rep.Hazards {
		row(&b, false, h.ID, h.Step, h.Category, h.Description,
			h.Answers[0], h.Answers[1], h.Answers[2], h.Answers[3], h.Classification)
	}
	b.WriteString(`</w:tbl>`)

	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func para(b *strings.Builder, text string, bold bool) {
	b.WriteString(`<w:p><w:r>`)
	if bold {
		b.WriteString(`<w:rPr><w:b/></w:rPr>`)
	}
	b.WriteString(`<w:t xml:space="preserve">`)
	xml.EscapeText(b, []byte(text))
	b.WriteString(`</w:t></w:r></w:p>`)
}

func row(b *strings.Builder, header bool, cells ...string) {
	b.WriteString(`<w:tr>`)
	for _, c := range cells {
		b.WriteString(`<w:tc>`)
		para(b, c, header)
		b.WriteString(`</w:tc>`)
	}
	b.WriteString(`</w:tr>`)
}

func pageCount(format Format, data []byte) *int {
	if format != PDF {
		return nil
	}
	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil
	}
	return &n
}
