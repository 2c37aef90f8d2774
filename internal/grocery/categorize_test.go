package grocery

import "testing"

func TestCategorizeExactMatch(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"leite", Laticinios},
		{"frango", Carnes},
		{"pão", Padaria},
		{"sorvete", Congelados},
		{"café", Bebidas},
		{"detergente", Limpeza},
		{"shampoo", Higiene},
		{"atum", Enlatados},
		{"banana", Hortifruti},
	}
	for _, tt := range tests {
		got := Categorize(tt.input)
		if got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCategorizeSubstringMatch(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"peito de frango", Carnes},
		{"leite integral", Laticinios},
		{"leite condensado", Enlatados},
		{"creme de leite fresco", Laticinios},
		{"pão de forma", Padaria},
		{"pão de queijo congelado", Congelados},
		{"sabão em pó omo", Limpeza},
		{"papel higiênico 12 rolos", Higiene},
		{"suco de laranja natural", Bebidas},
		{"milho em lata", Enlatados},
	}
	for _, tt := range tests {
		got := Categorize(tt.input)
		if got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCategorizeCaseAndWhitespace(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"LEITE", Laticinios},
		{"  Frango  ", Carnes},
		{"Cerveja Artesanal", Bebidas},
	}
	for _, tt := range tests {
		got := Categorize(tt.input)
		if got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCategorizeFallback(t *testing.T) {
	for _, input := range []string{"", "   ", "parafuso", "xyz123"} {
		if got := Categorize(input); got != Outros {
			t.Errorf("Categorize(%q) = %q, want %q", input, got, Outros)
		}
	}
}

func TestResolveCategory(t *testing.T) {
	if got := ResolveCategory("Bebidas", "leite"); got != Bebidas {
		t.Errorf("known category should win, got %q", got)
	}
	if got := ResolveCategory("", "leite"); got != Laticinios {
		t.Errorf("empty category should be derived, got %q", got)
	}
	if got := ResolveCategory("eletronicos", "pilha"); got != Outros {
		t.Errorf("unknown category should fall back, got %q", got)
	}
}

func TestCatalogue(t *testing.T) {
	cats := Categories()
	if len(cats) != 10 {
		t.Fatalf("categories = %d, want 10", len(cats))
	}
	if cats[0].ID != Carnes || cats[len(cats)-1].ID != Outros {
		t.Errorf("unexpected order: first %q last %q", cats[0].ID, cats[len(cats)-1].ID)
	}
	cats[0].Name = "mutated"
	if CategoryName(Carnes) != "Carnes" {
		t.Error("Categories must return a copy")
	}
	if CategoryName("nope") != "Outros" {
		t.Error("unknown id should map to Outros")
	}
}
