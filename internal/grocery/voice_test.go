package grocery

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dukerupert/listkeeper/internal/model"
)

func TestItemsFromVoice(t *testing.T) {
	got := ItemsFromVoice([]model.VoiceItem{
		{Produto: "leite", Quantidade: 2, Unidade: "litros"},
		{Produto: "  ", Quantidade: 3},
		{Produto: "arroz", Quantidade: 0},
		{Produto: "carne moída", Quantidade: 1.5, Unidade: "quilos"},
		{Produto: "sabão", Quantidade: math.Inf(1), Unidade: "bacia"},
	})

	assert.Equal(t, []model.ItemInput{
		{Name: "leite", Quantity: 2, Unit: "L", Category: Laticinios},
		{Name: "arroz", Quantity: 1, Unit: "un", Category: Outros},
		{Name: "carne moída", Quantity: 2, Unit: "kg", Category: Carnes},
		{Name: "sabão", Quantity: 1, Unit: "un", Category: Limpeza},
	}, got)
}

func TestNormalizeUnit(t *testing.T) {
	tests := map[string]string{
		"L": "L", "litro": "L", " KG ": "kg", "pacote": "pct", "": "un", "xícara": "un",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeUnit(in), "NormalizeUnit(%q)", in)
	}
}

func TestItemsFromVoiceClampsQuantity(t *testing.T) {
	got := ItemsFromVoice([]model.VoiceItem{
		{Produto: "arroz", Quantidade: 1e300},
		{Produto: "feijão", Quantidade: math.NaN()},
	})

	assert.Len(t, got, 2)
	assert.Equal(t, model.MaxQuantity, got[0].Quantity)
	assert.Equal(t, 1, got[1].Quantity)
}
