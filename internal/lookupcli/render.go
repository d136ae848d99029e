package lookupcli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/localscan/internal/domain/model"
	"github.com/okian/localscan/internal/domain/tags"
)

const (
	killboardURL = "https://zkillboard.com/character/%d/"
	rule         = "----------------------------------------"
)

// RenderCards writes one text card per record.
func RenderCards(w io.Writer, records []model.CharacterRecord) error {
	var b strings.Builder
	for i := range records {
		if i > 0 {
			b.WriteString("\n")
		}
		renderCard(&b, &records[i])
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderCard(b *strings.Builder, r *model.CharacterRecord) {
	b.WriteString(rule + "\n")
	title := r.Name
	if tags.IsDangerous(r.KillboardStats) {
		title = "!! " + title
	}
	fmt.Fprintf(b, "%s\n", title)
	fmt.Fprintf(b, "  "+killboardURL+"\n", r.CharacterID)

	cardTags := r.Tags
	if cardTags == nil {
		cardTags = tags.Classify(r.KillboardStats)
	}
	if len(cardTags) > 0 {
		texts := make([]string, len(cardTags))
		for i, t := range cardTags {
			texts[i] = "[" + t.Text + "]"
		}
		fmt.Fprintf(b, "  %s\n", strings.Join(texts, " "))
	}

	if r.Corporation != nil {
		fmt.Fprintf(b, "  Corporation: %s [%s]\n", r.Corporation.Name, r.Corporation.Ticker)
	} else {
		b.WriteString("  Corporation: N/A\n")
	}
	if r.Alliance != nil {
		fmt.Fprintf(b, "  Alliance: %s [%s]\n", r.Alliance.Name, r.Alliance.Ticker)
	} else {
		b.WriteString("  No Alliance\n")
	}

	if r.PilotProfile != nil && *r.PilotProfile != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(strings.TrimSpace(*r.PilotProfile), "\n") {
			fmt.Fprintf(b, "  %s\n", strings.TrimSpace(line))
		}
	}

	s := r.KillboardStats
	b.WriteString("\n")
	fmt.Fprintf(b, "  Danger Ratio: %s\n", value(s, func(s *model.KillboardStats) model.Number { return s.DangerRatio }))
	fmt.Fprintf(b, "  Gang Ratio: %s\n", value(s, func(s *model.KillboardStats) model.Number { return s.GangRatio }))
	fmt.Fprintf(b, "  Ships Destroyed: %s\n", value(s, func(s *model.KillboardStats) model.Number { return s.ShipsDestroyed }))
	fmt.Fprintf(b, "  Ships Lost: %s\n", value(s, func(s *model.KillboardStats) model.Number { return s.ShipsLost }))

	b.WriteString("\n  Recently Used Ships:\n")
	ships := s.Ships()
	if len(ships) == 0 {
		b.WriteString("    No recent activity\n")
	}
	for _, ship := range ships {
		fmt.Fprintf(b, "    %s\n", ship.Name)
	}

	if r.FleetAnalysis != nil && len(r.FleetAnalysis.FleetMembers) > 0 {
		b.WriteString("\n  Possible Gang Composition:\n")
		for _, m := range r.FleetAnalysis.FleetMembers {
			fmt.Fprintf(b, "    %dx %s\n", m.Count, m.ShipName)
		}
	}
}

func value(s *model.KillboardStats, get func(*model.KillboardStats) model.Number) string {
	if s == nil {
		return "N/A"
	}
	v, ok := get(s).Get()
	if !ok {
		return "N/A"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
