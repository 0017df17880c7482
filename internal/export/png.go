package export

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/Freeeeeet/school_timetable/internal/model"
)

// Константы размеров и отступов
const (
	headerHeight     = 60
	dayHeaderHeight  = 36
	periodLabelWidth = 150
	dayColumnWidth   = 170
	rowHeight        = 56
	breakRowHeight   = 28
	cellPadding      = 4.0
	cellRadius       = 6.0
	shadowOffset     = 2.0
	footerHeight     = 16
)

// Цветовая схема
var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 255}
	periodLabelColor = color.RGBA{110, 115, 120, 255}
	lineColor        = color.NRGBA{150, 150, 150, 255}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{228, 228, 228, 255}
	breakColor       = color.RGBA{210, 214, 220, 255}

	cellColor       = color.RGBA{133, 193, 85, 230}
	cellTextColor   = color.RGBA{20, 24, 28, 255}
	cellShadowColor = color.RGBA{0, 0, 0, 20}
)

// Размеры шрифтов
const (
	titleFontSize = 20
	labelFontSize = 13
	cellFontSize  = 12
)

var (
	fontsMu     sync.Mutex
	cachedFonts = make(map[bool]*opentype.Font)
)

// loadFont ставит Go Regular/Bold (есть кириллица) или basicfont как fallback
func loadFont(dc *gg.Context, size float64, bold bool) {
	f, err := parsedFont(bold)
	if err == nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			dc.SetFontFace(face)
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

func parsedFont(bold bool) (*opentype.Font, error) {
	fontsMu.Lock()
	defer fontsMu.Unlock()

	if f, ok := cachedFonts[bold]; ok {
		return f, nil
	}
	data := goregular.TTF
	if bold {
		data = gobold.TTF
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	cachedFonts[bold] = f
	return f, nil
}

// RenderPNG рисует расписание таблицей дни × уроки
func RenderPNG(t *Timetable) ([]byte, error) {
	days := t.days()
	periods := t.periods()

	width, height := canvasSize(len(days), periods)
	dc := gg.NewContext(width, height)
	dc.SetColor(bgColor)
	dc.Clear()

	drawTitle(dc, t.Title)
	if len(days) == 0 || len(periods) == 0 {
		loadFont(dc, labelFontSize, false)
		dc.SetColor(periodLabelColor)
		dc.DrawStringAnchored("No timetable structure assigned", float64(width)/2, float64(headerHeight)+20, 0.5, 0.5)
		return encodePNG(dc)
	}

	drawDayColumns(dc, days, height)

	y := float64(headerHeight + dayHeaderHeight)
	for _, p := range periods {
		h := float64(rowHeight)
		if p.IsBreak() {
			h = breakRowHeight
		}
		drawPeriodLabel(dc, p, y, h)
		for i, day := range days {
			x := float64(periodLabelWidth + i*dayColumnWidth)
			drawCell(dc, t.cell(day, p), x, y, h)
		}

		dc.SetLineWidth(0.3)
		dc.SetColor(lineColor)
		dc.DrawLine(0, y+h, float64(width), y+h)
		dc.Stroke()
		y += h
	}

	return encodePNG(dc)
}

func canvasSize(days int, periods []model.Period) (int, int) {
	if days == 0 {
		days = 3
	}
	height := headerHeight + dayHeaderHeight + footerHeight
	for _, p := range periods {
		if p.IsBreak() {
			height += breakRowHeight
		} else {
			height += rowHeight
		}
	}
	if len(periods) == 0 {
		height += rowHeight
	}
	return periodLabelWidth + days*dayColumnWidth, height
}

// drawTitle рисует заголовок
func drawTitle(dc *gg.Context, title string) {
	loadFont(dc, titleFontSize, true)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, 16, float64(headerHeight)/2, 0, 0.5)
}

// drawDayColumns рисует фон и заголовки дней
func drawDayColumns(dc *gg.Context, days []model.DayName, height int) {
	for i, day := range days {
		x := float64(periodLabelWidth + i*dayColumnWidth)
		if i%2 == 0 {
			dc.SetColor(evenDayColor)
		} else {
			dc.SetColor(oddDayColor)
		}
		dc.DrawRectangle(x, float64(headerHeight), dayColumnWidth, float64(height-headerHeight-footerHeight))
		dc.Fill()

		loadFont(dc, labelFontSize, true)
		dc.SetColor(textColor)
		dc.DrawStringAnchored(dayLabel(day), x+dayColumnWidth/2, float64(headerHeight)+dayHeaderHeight/2, 0.5, 0.5)
	}
}

// drawPeriodLabel рисует название и время урока слева
func drawPeriodLabel(dc *gg.Context, p model.Period, y, h float64) {
	loadFont(dc, labelFontSize, false)
	dc.SetColor(periodLabelColor)
	if p.IsBreak() {
		dc.DrawStringAnchored(p.StartTime+"-"+p.EndTime, periodLabelWidth-8, y+h/2, 1, 0.5)
		return
	}
	dc.DrawStringAnchored(truncate(p.Name, 20), periodLabelWidth-8, y+h/2-8, 1, 0.5)
	dc.DrawStringAnchored(p.StartTime+"-"+p.EndTime, periodLabelWidth-8, y+h/2+8, 1, 0.5)
}

// drawCell рисует одну ячейку
func drawCell(dc *gg.Context, c Cell, x, y, h float64) {
	w := float64(dayColumnWidth) - cellPadding*2
	loadFont(dc, cellFontSize, false)

	if c.Break {
		dc.SetColor(breakColor)
		dc.DrawRectangle(x, y, dayColumnWidth, h)
		dc.Fill()
		dc.SetColor(periodLabelColor)
		dc.DrawStringAnchored(truncate(c.Subject, 22), x+dayColumnWidth/2, y+h/2, 0.5, 0.5)
		return
	}
	if c.Subject == "" && c.Teacher == "" {
		return
	}

	// Тень
	dc.SetColor(cellShadowColor)
	dc.DrawRoundedRectangle(x+cellPadding+shadowOffset, y+cellPadding+shadowOffset, w, h-cellPadding*2, cellRadius)
	dc.Fill()

	dc.SetColor(cellColor)
	dc.DrawRoundedRectangle(x+cellPadding, y+cellPadding, w, h-cellPadding*2, cellRadius)
	dc.Fill()

	dc.SetColor(darkenColor(cellColor, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+cellPadding, y+cellPadding, w, h-cellPadding*2, cellRadius)
	dc.Stroke()

	dc.SetColor(cellTextColor)
	txtX := x + cellPadding + 8
	dc.DrawStringAnchored(truncate(c.Subject, 22), txtX, y+h/2-8, 0, 0.5)
	if c.Teacher != "" {
		dc.DrawStringAnchored(truncate(c.Teacher, 22), txtX, y+h/2+8, 0, 0.5)
	}
}

// darkenColor затемняет цвет на указанный множитель
func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// encodePNG кодирует изображение в PNG
func encodePNG(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
