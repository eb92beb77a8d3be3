package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"aqdash/internal/models"
)

// renderReport prints the KPIs, ranking and segmentation of v with integers
// grouped the way lang writes them.
func renderReport(w io.Writer, v models.Views, lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("lang %q: %w", lang, err)
	}
	p := message.NewPrinter(tag)

	p.Fprintf(w, "Models:     %d\n", v.KPIs.ModelCount)
	p.Fprintf(w, "Countries:  %d\n", v.KPIs.DistinctCountryCount)
	p.Fprintf(w, "Pollutants: %d\n", v.KPIs.DistinctPollutants)
	fmt.Fprintln(w)

	if v.Ranking.Status != models.StatusOK {
		fmt.Fprintln(w, "Ranking: no data")
	} else {
		fmt.Fprintln(w, "Ranking")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for i, r := range v.Ranking.Rows {
			p.Fprintf(tw, "  %d.\t%s\t%d\n", i+1, r.Country, r.ModelCount)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)

	seg := v.Segmentation
	if seg.Status != models.StatusOK {
		fmt.Fprintf(w, "Segmentation: %s (%s)\n", seg.Status, seg.Explanation)
		return nil
	}
	fmt.Fprintf(w, "Segmentation (k = %d)\n", seg.ProducedK)
	for _, s := range seg.Segments {
		p.Fprintf(w, "  %s: %d countries (~%.1f%%) - %s\n", s.Label, s.Countries, s.Percentage, s.Description)
	}
	return nil
}
