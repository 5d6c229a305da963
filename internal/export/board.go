package export

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"strings"

	"github.com/derickschaefer/yojitsu/internal/layout"
	"github.com/derickschaefer/yojitsu/internal/model"
)

// echartsAssets is where the go-echarts renderer loads echarts from.
const echartsAssets = "https://go-echarts.github.io/go-echarts-assets/assets/echarts.min.js"

var boardTmpl = template.Must(template.New("board").Parse(`<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="{{.Assets}}"></script>
<style>
body { font-family: "Hiragino Sans", "Noto Sans JP", sans-serif; margin: 16px; background: #f9fafb; }
.board { display: grid; grid-template: {{.Grid}}; gap: 16px; }
.slot { background: #fff; border: 1px solid #e5e7eb; border-radius: 8px; padding: 8px; min-height: 200px; }
.slot.empty { display: flex; align-items: center; justify-content: center; color: #9ca3af; border-style: dashed; }
.echart-box .item { margin: 0 auto; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="board">
{{- range .Slots}}
<div class="slot{{if not .Chart}} empty{{end}}" style="grid-area: {{.Area}}" data-slot="{{.Index}}">
{{- if .Chart}}{{.Chart}}{{else}}グラフを追加{{end -}}
</div>
{{- end}}
</div>
</body>
</html>
`))

type boardSlot struct {
	Index int
	Area  template.CSS
	Chart template.HTML
}

type boardPage struct {
	Title  string
	Assets string
	Grid   template.CSS
	Slots  []boardSlot
}

// WriteBoard renders a page of the dashboard as HTML: one grid cell per
// slot, placed by the layout's grid template, with the chart model found
// in models under the slot's chart id. Slots with no chart, or no model,
// render as empty placeholders.
func WriteBoard(w io.Writer, b layout.Board, models map[string]model.ChartModel, size Size) error {
	page := boardPage{
		Title:  fmt.Sprintf("%s (%s)", pageTitle(b.Page), b.Layout),
		Assets: echartsAssets,
		Grid:   template.CSS(b.GridTemplate),
	}
	for _, s := range b.Slots {
		slot := boardSlot{Index: s.Slot, Area: template.CSS(s.GridArea)}
		if m, ok := models[s.ChartID]; ok && s.ChartID != "" {
			var buf bytes.Buffer
			if err := Chart(m, size).Render(&buf); err != nil {
				return fmt.Errorf("rendering slot %d: %w", s.Slot, err)
			}
			slot.Chart = template.HTML(chartContent(buf.String()))
		}
		page.Slots = append(page.Slots, slot)
	}
	if err := boardTmpl.Execute(w, page); err != nil {
		return fmt.Errorf("rendering board: %w", err)
	}
	slog.Debug("board written", "page", b.Page, "layout", b.Layout, "slots", len(b.Slots))
	return nil
}

func pageTitle(p model.Page) string {
	if p == model.PageShipment {
		return "出荷ダッシュボード"
	}
	return "入荷ダッシュボード"
}

// chartContent cuts the chart container and its script out of a full
// go-echarts page so several charts can share one document.
func chartContent(html string) string {
	start := strings.Index(html, `<div class="container">`)
	end := strings.Index(html, `</body>`)
	if start == -1 || end == -1 || end < start {
		return html
	}
	content := html[start:end]
	content = strings.ReplaceAll(content, `class="container"`, `class="echart-box"`)
	return removeStyleTags(content)
}

func removeStyleTags(content string) string {
	const closeTag = "</style>"
	for {
		i := strings.Index(content, "<style>")
		if i == -1 {
			return content
		}
		j := strings.Index(content[i:], closeTag)
		if j == -1 {
			return content
		}
		content = content[:i] + content[i+j+len(closeTag):]
	}
}
