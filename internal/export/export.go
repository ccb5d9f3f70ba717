package export

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/14kear/council-voting/internal/entity"
	"github.com/14kear/council-voting/internal/tally"
)

type Format string

const (
	FormatCSV Format = "csv"
	// FormatPDF is served as a printable HTML document.
	FormatPDF Format = "pdf"
)

func (f Format) Valid() bool {
	return f == FormatCSV || f == FormatPDF
}

const (
	dateTimeLayout = "02/01/2006 15:04:05"
	dateLayout     = "02/01/2006"
)

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9]`)

type Document struct {
	ContentType string
	Filename    string
	Body        []byte
}

type Renderer struct {
	ChamberName string
	Location    *time.Location
}

func NewRenderer(chamberName string, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{ChamberName: chamberName, Location: loc}
}

// Render builds the export document for bill. Votes are expected newest first.
func (r *Renderer) Render(format Format, bill entity.Bill, votes []entity.Vote, generatedAt time.Time) (Document, error) {
	switch format {
	case FormatCSV:
		return Document{
			ContentType: "text/csv; charset=utf-8",
			Filename:    Filename(bill.Title, "csv"),
			Body:        r.CSV(votes),
		}, nil
	case FormatPDF:
		body, err := r.HTML(bill, votes, generatedAt)
		if err != nil {
			return Document{}, err
		}
		return Document{
			ContentType: "text/html; charset=utf-8",
			Filename:    Filename(bill.Title, "html"),
			Body:        body,
		}, nil
	}
	return Document{}, fmt.Errorf("unsupported export format %q", format)
}

// Filename is votacao-<title>.<ext> with every non-alphanumeric replaced by '-'.
func Filename(title, ext string) string {
	return "votacao-" + unsafeFilename.ReplaceAllString(title, "-") + "." + ext
}

// CSV renders one row per vote followed by a summary block. Every cell is
// quoted and embedded quotes are doubled.
func (r *Renderer) CSV(votes []entity.Vote) []byte {
	stats := tally.Count(votes)

	rows := [][]string{{"Nome", "E-mail", "Voto", "Data/Hora"}}
	for _, v := range votes {
		name, email := voter(v)
		rows = append(rows, []string{
			name,
			email,
			v.Option.Label(),
			v.CreatedAt.In(r.Location).Format(dateTimeLayout),
		})
	}

	rows = append(rows,
		nil,
		[]string{"RESUMO", "", "", ""},
		[]string{"Total de votos:", strconv.Itoa(stats.Total), "", ""},
		[]string{"Sim:", strconv.Itoa(stats.Yes), percent(stats.Percentages.Yes), ""},
		[]string{"Não:", strconv.Itoa(stats.No), percent(stats.Percentages.No), ""},
		[]string{"Abstenção:", strconv.Itoa(stats.Abstention), percent(stats.Percentages.Abstention), ""},
	)

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, cell := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(cell, `"`, `""`))
			b.WriteByte('"')
		}
	}
	return []byte(b.String())
}

type htmlVote struct {
	Name     string
	Email    string
	Label    string
	Class    string
	CastedAt string
}

type htmlData struct {
	ChamberName string
	Title       string
	Description string
	Author      string
	Status      entity.BillStatus
	Window      string
	Stats       tally.Stats
	Votes       []htmlVote
	GeneratedAt string
}

// HTML renders the printable result sheet. Output depends only on its
// arguments.
func (r *Renderer) HTML(bill entity.Bill, votes []entity.Vote, generatedAt time.Time) ([]byte, error) {
	data := htmlData{
		ChamberName: r.ChamberName,
		Title:       bill.Title,
		Description: bill.Description,
		Status:      bill.Status,
		Window:      "Não definido",
		Stats:       tally.Count(votes),
		GeneratedAt: generatedAt.In(r.Location).Format(dateTimeLayout),
	}
	if bill.Author != nil {
		data.Author = bill.Author.Name
	}
	if bill.HasWindow() {
		data.Window = bill.VotingStart.In(r.Location).Format(dateLayout) +
			" a " + bill.VotingEnd.In(r.Location).Format(dateLayout)
	}
	for _, v := range votes {
		name, email := voter(v)
		data.Votes = append(data.Votes, htmlVote{
			Name:     name,
			Email:    email,
			Label:    v.Option.Label(),
			Class:    optionClass(v.Option),
			CastedAt: v.CreatedAt.In(r.Location).Format(dateTimeLayout),
		})
	}

	var buf bytes.Buffer
	if err := resultSheet.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("export.HTML: %w", err)
	}
	return buf.Bytes(), nil
}

func voter(v entity.Vote) (string, string) {
	if v.User == nil {
		return "", ""
	}
	return v.User.Name, v.User.Email
}

func percent(p int) string {
	return strconv.Itoa(p) + "%"
}

func optionClass(o entity.VoteOption) string {
	switch o {
	case entity.VoteYes:
		return "vote-yes"
	case entity.VoteNo:
		return "vote-no"
	default:
		return "vote-abstention"
	}
}

var resultSheet = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Resultado da Votação - {{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 40px; }
.header { text-align: center; margin-bottom: 30px; }
.title { font-size: 24px; font-weight: bold; margin-bottom: 10px; }
.subtitle { font-size: 16px; color: #666; margin-bottom: 20px; }
.section { margin-bottom: 30px; }
.section-title { font-size: 18px; font-weight: bold; margin-bottom: 15px; border-bottom: 2px solid #333; padding-bottom: 5px; }
table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
th { background-color: #f2f2f2; font-weight: bold; }
.summary { background-color: #f9f9f9; padding: 15px; border-radius: 5px; }
.vote-yes { color: #22c55e; font-weight: bold; }
.vote-no { color: #ef4444; font-weight: bold; }
.vote-abstention { color: #6b7280; font-weight: bold; }
</style>
</head>
<body>
<div class="header">
<div class="title">{{.ChamberName}}</div>
<div class="subtitle">Sistema de Votação Eletrônica</div>
</div>
<div class="section">
<div class="section-title">Projeto de Lei</div>
<div class="info">
<strong>Título:</strong> {{.Title}}<br>
<strong>Descrição:</strong> {{.Description}}<br>
<strong>Autor:</strong> {{.Author}}<br>
<strong>Status:</strong> {{.Status}}<br>
<strong>Período de Votação:</strong> {{.Window}}
</div>
</div>
<div class="section">
<div class="section-title">Resultados</div>
<div class="summary">
<p><strong>Total de votos:</strong> {{.Stats.Total}}</p>
<p><span class="vote-yes">Sim:</span> {{.Stats.Yes}} ({{.Stats.Percentages.Yes}}%)</p>
<p><span class="vote-no">Não:</span> {{.Stats.No}} ({{.Stats.Percentages.No}}%)</p>
<p><span class="vote-abstention">Abstenção:</span> {{.Stats.Abstention}} ({{.Stats.Percentages.Abstention}}%)</p>
</div>
</div>
<div class="section">
<div class="section-title">Votos Registrados</div>
<table>
<thead>
<tr><th>Nome</th><th>E-mail</th><th>Voto</th><th>Data/Hora</th></tr>
</thead>
<tbody>
{{- range .Votes}}
<tr><td>{{.Name}}</td><td>{{.Email}}</td><td class="{{.Class}}">{{.Label}}</td><td>{{.CastedAt}}</td></tr>
{{- end}}
</tbody>
</table>
</div>
<div style="text-align: center; margin-top: 50px; color: #666; font-size: 12px;">
Gerado em {{.GeneratedAt}}
</div>
</body>
</html>
`))
