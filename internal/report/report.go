// Package report renders a finished battle as a printable PDF: the matchup,
// the result, both teams' final HP and the turn-by-turn log.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"pokebattle/internal/arena"
	"pokebattle/internal/game"
	"pokebattle/internal/narration"
)

const (
	pageW     = 595
	pageH     = 842
	margin    = 40
	fontSize  = 9
	titleSize = 18
	lineH     = 12.0
	barW      = 160.0
	barH      = 8.0
	badgeW    = 46.0
)

// typeColors tints type badges.
var typeColors = map[string][3]int{
	game.TypeNormal:   {168, 167, 122},
	game.TypeFire:     {238, 129, 48},
	game.TypeWater:    {99, 144, 240},
	game.TypeGrass:    {122, 199, 76},
	game.TypeElectric: {247, 208, 44},
	game.TypeIce:      {150, 217, 214},
	game.TypeFighting: {194, 46, 40},
	game.TypePoison:   {163, 62, 161},
	game.TypeGround:   {226, 191, 101},
	game.TypeFlying:   {169, 143, 243},
	game.TypePsychic:  {249, 85, 135},
	game.TypeBug:      {166, 185, 26},
	game.TypeRock:     {182, 161, 54},
	game.TypeGhost:    {115, 87, 151},
	game.TypeDragon:   {111, 53, 252},
	game.TypeDark:     {112, 87, 70},
	game.TypeSteel:    {183, 183, 206},
	game.TypeFairy:    {214, 133, 173},
}

// Generate returns the PDF bytes for rec.
func Generate(rec arena.Record) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle("Battle report "+rec.ID, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetDrawColor(40, 40, 60)
	pdf.SetTextColor(30, 30, 40)

	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.CellFormat(0, 22, "Battle Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", fontSize)
	pdf.CellFormat(0, lineH, tr(fmt.Sprintf("Battle %s against %s", rec.ID, rec.Opponent.Name)), "", 1, "L", false, 0, "")
	if !rec.FinishedAt.IsZero() {
		pdf.CellFormat(0, lineH, rec.FinishedAt.UTC().Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	drawResult(pdf, tr, rec)
	pdf.Ln(8)

	drawTeam(pdf, tr, "Your team", rec.Outcome.Final.Player)
	pdf.Ln(6)
	drawTeam(pdf, tr, "Opponent: "+rec.Opponent.Name, rec.Outcome.Final.Opponent)
	pdf.Ln(10)

	drawLog(pdf, tr, rec.Outcome.Events)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawResult(pdf *gofpdf.Fpdf, tr func(string) string, rec arena.Record) {
	out := rec.Outcome
	headline := "Defeat"
	if out.PlayerWon() {
		headline = "Victory"
		pdf.SetFillColor(210, 240, 210)
	} else {
		pdf.SetFillColor(245, 215, 215)
	}
	if out.Forfeit {
		headline = "Forfeit"
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 18, fmt.Sprintf("%s after %d turns", headline, out.Turns), "1", 1, "C", true, 0, "")
	pdf.SetFont("Helvetica", "", fontSize)

	quote := rec.Opponent.Defeat()
	if out.PlayerWon() {
		quote = rec.Opponent.Victory()
	}
	pdf.SetFont("Helvetica", "I", fontSize)
	pdf.MultiCell(0, lineH, tr(quote), "", "L", false)
	pdf.SetFont("Helvetica", "", fontSize)

	if r := rec.Rewards; r.Coins > 0 || r.Badge > 0 {
		parts := []string{}
		if r.Coins > 0 {
			parts = append(parts, fmt.Sprintf("%d coins (balance %d)", r.Coins, r.Balance))
		}
		if r.Badge > 0 {
			b := fmt.Sprintf("badge #%d", r.Badge)
			if r.NewBadge {
				b += " (new!)"
			}
			parts = append(parts, b)
		}
		pdf.CellFormat(0, lineH, "Rewards: "+strings.Join(parts, ", "), "", 1, "L", false, 0, "")
	}
}

func drawTeam(pdf *gofpdf.Fpdf, tr func(string) string, title string, side game.SideSnapshot) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 16, tr(title), "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", fontSize)
	pdf.Ln(2)

	for _, m := range side.Members {
		if pdf.GetY()+lineH+4 > pageH-margin {
			pdf.AddPage()
		}
		x, y := pdf.GetXY()
		name := m.Name
		if m.Index == side.Active {
			name += " *"
		}
		pdf.CellFormat(110, lineH, tr(name), "", 0, "L", false, 0, "")

		bx := x + 110
		for _, t := range m.Types {
			drawTypeBadge(pdf, bx, y+1, t)
			bx += badgeW + 4
		}

		drawHPBar(pdf, x+220, y+2, m.HP, m.MaxHP)
		pdf.SetXY(x+220+barW+8, y)
		pdf.CellFormat(60, lineH, fmt.Sprintf("%d/%d HP", m.HP, m.MaxHP), "", 1, "L", false, 0, "")
		pdf.SetX(x)
	}
}

func drawTypeBadge(pdf *gofpdf.Fpdf, x, y float64, typ string) {
	c, ok := typeColors[typ]
	if !ok {
		c = [3]int{200, 200, 200}
	}
	pdf.SetFillColor(c[0], c[1], c[2])
	pdf.Rect(x, y, badgeW, lineH-2, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 6)
	pdf.SetXY(x, y)
	pdf.CellFormat(badgeW, lineH-2, strings.ToUpper(typ), "", 0, "C", false, 0, "")
	pdf.SetTextColor(30, 30, 40)
	pdf.SetFont("Helvetica", "", fontSize)
}

func drawHPBar(pdf *gofpdf.Fpdf, x, y float64, hp, maxHP int) {
	frac := 0.0
	if maxHP > 0 {
		frac = float64(max(0, hp)) / float64(maxHP)
	}
	switch {
	case frac > 0.5:
		pdf.SetFillColor(80, 190, 90)
	case frac > 0.2:
		pdf.SetFillColor(235, 190, 50)
	default:
		pdf.SetFillColor(220, 70, 60)
	}
	if frac > 0 {
		pdf.Rect(x, y, barW*frac, barH, "F")
	}
	pdf.SetLineWidth(0.5)
	pdf.Rect(x, y, barW, barH, "D")
	pdf.SetLineWidth(1)
}

func drawLog(pdf *gofpdf.Fpdf, tr func(string) string, events []game.Event) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 16, "Battle log", "B", 1, "L", false, 0, "")
	pdf.Ln(2)

	turn := -1
	for _, ev := range events {
		line := narration.Line(ev)
		if line == "" {
			continue
		}
		if ev.Turn != turn && ev.Turn > 0 {
			turn = ev.Turn
			pdf.Ln(2)
			pdf.SetFont("Helvetica", "B", fontSize)
			pdf.CellFormat(0, lineH, fmt.Sprintf("Turn %d", turn), "", 1, "L", false, 0, "")
		}
		pdf.SetFont("Helvetica", "", fontSize)
		pdf.SetX(margin + 12)
		pdf.MultiCell(pageW-2*margin-12, lineH, tr(line), "", "L", false)
	}
}
