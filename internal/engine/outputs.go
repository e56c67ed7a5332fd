package engine

import (
	"fmt"
	"sort"
	"time"

	"golang-lettrage-service/internal/models"
)

// Lettrage is a finalized, disjoint reconciliation group with its
// sequential identifier. Monetary fields stay in authoritative cents;
// rendering to major units is the reporter's job.
type Lettrage struct {
	ID             string     `json:"id_lettrage"`
	TierCode       string     `json:"code_tiers"`
	TierName       string     `json:"raison_sociale"`
	LineCount      int        `json:"nb_lignes"`
	PaymentCount   int        `json:"nb_rc"`
	SumCents       int64      `json:"somme_cents"`
	GapCents       int64      `json:"ecart_cents"`
	DateScore      int        `json:"score_proximite_date"`
	DueDateMin     *time.Time `json:"date_echeance_min,omitempty"`
	DueDateMax     *time.Time `json:"date_echeance_max,omitempty"`
	InvoiceSummary string     `json:"no_facture"`
	EntrySummary   string     `json:"numero_ecriture"`
	LineIDs        []int      `json:"ids_lignes"`
}

// LetteredLine is one constituent line tagged with its lettrage id
type LetteredLine struct {
	LettrageID string `json:"id_lettrage"`
	*models.LedgerLine
}

// Metrics summarizes a run
type Metrics struct {
	TiersConsidered     int     `json:"tiers_total"`
	CandidatesGenerated int     `json:"candidats"`
	LettragesRetained   int     `json:"lettrages_retenus"`
	ElapsedSeconds      float64 `json:"temps_s"`
}

// Result is the complete outcome of one engine run
type Result struct {
	Lettrages      []*Lettrage            `json:"lettrages"`
	LetteredLines  []*LetteredLine        `json:"lignes_lettrees"`
	RemainingLines []*models.LedgerLine   `json:"lignes_restantes"`
	Metrics        Metrics                `json:"metrics"`
}

// BuildOutputs materializes the three result tables from the selected
// candidates. Lettrages are numbered sequentially from 1 in acceptance
// order; every post-filter line lands either in a lettrage's detail rows or
// in the remaining table, never both, never neither.
func BuildOutputs(filtered []*models.LedgerLine, selected []*Candidate) ([]*Lettrage, []*LetteredLine, []*models.LedgerLine) {
	lettrages := make([]*Lettrage, 0, len(selected))
	var lettered []*LetteredLine
	used := make(map[int]bool)

	for i, candidate := range selected {
		id := fmt.Sprintf("LET-%04d", i+1)

		for _, line := range filtered {
			if containsID(candidate, line.LineID) {
				lettered = append(lettered, &LetteredLine{LettrageID: id, LedgerLine: line})
				used[line.LineID] = true
			}
		}

		ids := candidate.LineIDs()
		sort.Ints(ids)

		lettrages = append(lettrages, &Lettrage{
			ID:             id,
			TierCode:       candidate.TierCode,
			TierName:       candidate.TierName,
			LineCount:      candidate.LineCount,
			PaymentCount:   candidate.PaymentCount,
			SumCents:       candidate.SumCents,
			GapCents:       candidate.GapCents,
			DateScore:      candidate.DateScore,
			DueDateMin:     candidate.DueDateMin,
			DueDateMax:     candidate.DueDateMax,
			InvoiceSummary: candidate.InvoiceSummary,
			EntrySummary:   candidate.EntrySummary,
			LineIDs:        ids,
		})
	}

	var remaining []*models.LedgerLine
	for _, line := range filtered {
		if !used[line.LineID] {
			remaining = append(remaining, line)
		}
	}

	return lettrages, lettered, remaining
}

func containsID(candidate *Candidate, lineID int) bool {
	for _, id := range candidate.PaymentIDs {
		if id == lineID {
			return true
		}
	}
	for _, id := range candidate.OtherIDs {
		if id == lineID {
			return true
		}
	}
	return false
}
