package grocery

import (
	"math"
	"strings"

	"github.com/dukerupert/listkeeper/internal/model"
)

var unitAliases = map[string]string{
	"un":         "un",
	"unidade":    "un",
	"unidades":   "un",
	"kg":         "kg",
	"quilo":      "kg",
	"quilos":     "kg",
	"kilo":       "kg",
	"kilos":      "kg",
	"g":          "g",
	"grama":      "g",
	"gramas":     "g",
	"l":          "L",
	"litro":      "L",
	"litros":     "L",
	"ml":         "ml",
	"mililitro":  "ml",
	"mililitros": "ml",
	"cx":         "cx",
	"caixa":      "cx",
	"caixas":     "cx",
	"pct":        "pct",
	"pacote":     "pct",
	"pacotes":    "pct",
}

// NormalizeUnit maps spoken or abbreviated units to one of model.Units.
// Unknown units become model.DefaultUnit.
func NormalizeUnit(unit string) string {
	if u, ok := unitAliases[strings.ToLower(strings.TrimSpace(unit))]; ok {
		return u
	}
	return model.DefaultUnit
}

// ItemsFromVoice converts parsed speech records into item inputs. Records
// without a product name are skipped. Quantities are rounded up to whole
// units with a minimum of one and a maximum of model.MaxQuantity, and the
// category is derived from the name.
func ItemsFromVoice(records []model.VoiceItem) []model.ItemInput {
	out := make([]model.ItemInput, 0, len(records))
	for _, r := range records {
		name := strings.TrimSpace(r.Produto)
		if name == "" {
			continue
		}
		qty := 1
		if q := r.Quantidade; q > 1 && !math.IsNaN(q) {
			qty = int(math.Ceil(math.Min(q, model.MaxQuantity)))
		}
		out = append(out, model.ItemInput{
			Name:     name,
			Quantity: qty,
			Unit:     NormalizeUnit(r.Unidade),
			Category: Categorize(name),
		})
	}
	return out
}
