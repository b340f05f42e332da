// Package scorer applies a detector catalog to normalized text.
package scorer

import (
	"unicode/utf8"

	"github.com/hejijunhao/khmerid/internal/engine/catalog"
	"github.com/hejijunhao/khmerid/internal/model"
)

// Score evaluates every rule in c against text and sums the weights of the
// rules that match. Matched names follow catalog order.
func Score(text string, c *catalog.Catalog) model.ScoreResult {
	res := model.ScoreResult{SourceLength: utf8.RuneCountInString(text)}
	c.Each(func(r catalog.Rule) {
		if r.Match(text) {
			res.Total += r.Weight
			res.Matched = append(res.Matched, r.Name)
		}
	})
	return res
}
