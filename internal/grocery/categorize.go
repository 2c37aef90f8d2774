package grocery

import "strings"

// Category ids.
const (
	Carnes     = "carnes"
	Hortifruti = "hortifruti"
	Laticinios = "laticinios"
	Padaria    = "padaria"
	Bebidas    = "bebidas"
	Limpeza    = "limpeza"
	Higiene    = "higiene"
	Enlatados  = "enlatados"
	Congelados = "congelados"
	Outros     = "outros"
)

// Category is one supermarket section.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

var catalogue = []Category{
	{Carnes, "Carnes", "#F44336"},
	{Hortifruti, "Hortifruti", "#4CAF50"},
	{Laticinios, "Laticínios", "#FFEB3B"},
	{Padaria, "Padaria", "#FF9800"},
	{Bebidas, "Bebidas", "#2196F3"},
	{Limpeza, "Limpeza", "#03A9F4"},
	{Higiene, "Higiene", "#9C27B0"},
	{Enlatados, "Enlatados", "#795548"},
	{Congelados, "Congelados", "#607D8B"},
	{Outros, "Outros", "#9E9E9E"},
}

// Categories returns the catalogue in display order.
func Categories() []Category {
	out := make([]Category, len(catalogue))
	copy(out, catalogue)
	return out
}

// IsCategory reports whether id is in the catalogue.
func IsCategory(id string) bool {
	for _, c := range catalogue {
		if c.ID == id {
			return true
		}
	}
	return false
}

// CategoryName returns the display name for id, "Outros" for unknown ids.
func CategoryName(id string) string {
	for _, c := range catalogue {
		if c.ID == id {
			return c.Name
		}
	}
	return "Outros"
}

func categoryRank(id string) int {
	for i, c := range catalogue {
		if c.ID == id {
			return i
		}
	}
	return len(catalogue) - 1
}

// ResolveCategory keeps a known category and otherwise derives one from the name.
func ResolveCategory(category, itemName string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if IsCategory(category) {
		return category
	}
	return Categorize(itemName)
}

// Categorize returns the category id for the given item name.
// Matching is case-insensitive: exact match first, then substring match.
// Falls back to Outros.
func Categorize(itemName string) string {
	name := strings.ToLower(strings.TrimSpace(itemName))
	if name == "" {
		return Outros
	}

	if cat, ok := exactMatch[name]; ok {
		return cat
	}

	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.category
		}
	}

	return Outros
}

var exactMatch = map[string]string{
	// Hortifruti
	"banana":       Hortifruti,
	"bananas":      Hortifruti,
	"maçã":         Hortifruti,
	"maçãs":        Hortifruti,
	"laranja":      Hortifruti,
	"laranjas":     Hortifruti,
	"limão":        Hortifruti,
	"limões":       Hortifruti,
	"tomate":       Hortifruti,
	"tomates":      Hortifruti,
	"batata":       Hortifruti,
	"batatas":      Hortifruti,
	"cebola":       Hortifruti,
	"cebolas":      Hortifruti,
	"alho":         Hortifruti,
	"alface":       Hortifruti,
	"cenoura":      Hortifruti,
	"cenouras":     Hortifruti,
	"pepino":       Hortifruti,
	"abobrinha":    Hortifruti,
	"uva":          Hortifruti,
	"uvas":         Hortifruti,
	"mamão":        Hortifruti,
	"abacaxi":      Hortifruti,
	"manga":        Hortifruti,
	"melancia":     Hortifruti,
	"morango":      Hortifruti,
	"morangos":     Hortifruti,
	"cheiro-verde": Hortifruti,
	"couve":        Hortifruti,

	// Carnes
	"frango":   Carnes,
	"carne":    Carnes,
	"picanha":  Carnes,
	"alcatra":  Carnes,
	"patinho":  Carnes,
	"costela":  Carnes,
	"linguiça": Carnes,
	"bacon":    Carnes,
	"presunto": Carnes,
	"peixe":    Carnes,
	"salmão":   Carnes,
	"tilápia":  Carnes,
	"camarão":  Carnes,

	// Laticínios
	"leite":          Laticinios,
	"queijo":         Laticinios,
	"manteiga":       Laticinios,
	"iogurte":        Laticinios,
	"requeijão":      Laticinios,
	"creme de leite": Laticinios,
	"ovos":           Laticinios,
	"ovo":            Laticinios,
	"nata":           Laticinios,

	// Padaria
	"pão":         Padaria,
	"pães":        Padaria,
	"pão francês": Padaria,
	"bolo":        Padaria,
	"biscoito":    Padaria,
	"bolacha":     Padaria,
	"torrada":     Padaria,
	"croissant":   Padaria,

	// Bebidas
	"água":         Bebidas,
	"agua":         Bebidas,
	"suco":         Bebidas,
	"refrigerante": Bebidas,
	"cerveja":      Bebidas,
	"vinho":        Bebidas,
	"café":         Bebidas,
	"cafe":         Bebidas,
	"chá":          Bebidas,
	"energético":   Bebidas,

	// Limpeza
	"detergente":     Limpeza,
	"sabão em pó":    Limpeza,
	"amaciante":      Limpeza,
	"água sanitária": Limpeza,
	"desinfetante":   Limpeza,
	"esponja":        Limpeza,
	"vassoura":       Limpeza,
	"saco de lixo":   Limpeza,

	// Higiene
	"shampoo":         Higiene,
	"xampu":           Higiene,
	"condicionador":   Higiene,
	"sabonete":        Higiene,
	"pasta de dente":  Higiene,
	"creme dental":    Higiene,
	"escova de dente": Higiene,
	"desodorante":     Higiene,
	"papel higiênico": Higiene,
	"fio dental":      Higiene,
	"absorvente":      Higiene,

	// Enlatados
	"milho":             Enlatados,
	"ervilha":           Enlatados,
	"atum":              Enlatados,
	"sardinha":          Enlatados,
	"extrato de tomate": Enlatados,
	"molho de tomate":   Enlatados,
	"palmito":           Enlatados,
	"azeitona":          Enlatados,

	// Congelados
	"sorvete":      Congelados,
	"pizza":        Congelados,
	"lasanha":      Congelados,
	"nuggets":      Congelados,
	"hambúrguer":   Congelados,
	"batata frita": Congelados,
	"gelo":         Congelados,
}

type substringEntry struct {
	keyword  string
	category string
}

// substringMatches is ordered so that more specific keywords come first.
var substringMatches = []substringEntry{
	// Multi-word keywords that would otherwise hit a shorter one.
	{"creme de leite", Laticinios},
	{"leite condensado", Enlatados},
	{"leite de coco", Enlatados},
	{"sabão em pó", Limpeza},
	{"sabão líquido", Limpeza},
	{"água sanitária", Limpeza},
	{"papel higiênico", Higiene},
	{"papel toalha", Limpeza},
	{"pasta de dente", Higiene},
	{"batata frita", Congelados},
	{"pão de queijo", Congelados},
	{"molho de tomate", Enlatados},
	{"extrato de tomate", Enlatados},
	{"suco de laranja", Bebidas},
	{"água de coco", Bebidas},

	// Congelados
	{"congelad", Congelados},
	{"sorvete", Congelados},
	{"picolé", Congelados},
	{"lasanha", Congelados},
	{"pizza", Congelados},

	// Enlatados
	{"lata", Enlatados},
	{"enlatad", Enlatados},
	{"conserva", Enlatados},
	{"atum", Enlatados},
	{"sardinha", Enlatados},

	// Carnes
	{"frango", Carnes},
	{"carne", Carnes},
	{"bife", Carnes},
	{"peito de", Carnes},
	{"coxa", Carnes},
	{"linguiça", Carnes},
	{"peixe", Carnes},
	{"filé", Carnes},
	{"moída", Carnes},

	// Laticínios
	{"leite", Laticinios},
	{"queijo", Laticinios},
	{"iogurte", Laticinios},
	{"manteiga", Laticinios},
	{"requeijão", Laticinios},
	{"ovos", Laticinios},

	// Padaria
	{"pão", Padaria},
	{"bolo", Padaria},
	{"biscoito", Padaria},
	{"bolacha", Padaria},
	{"rosca", Padaria},

	// Bebidas
	{"refrigerante", Bebidas},
	{"cerveja", Bebidas},
	{"suco", Bebidas},
	{"vinho", Bebidas},
	{"café", Bebidas},
	{"água", Bebidas},

	// Limpeza
	{"detergente", Limpeza},
	{"sabão", Limpeza},
	{"amaciante", Limpeza},
	{"desinfetante", Limpeza},
	{"limpador", Limpeza},
	{"multiuso", Limpeza},
	{"esponja", Limpeza},

	// Higiene
	{"shampoo", Higiene},
	{"sabonete", Higiene},
	{"desodorante", Higiene},
	{"escova", Higiene},
	{"creme dental", Higiene},
	{"fralda", Higiene},

	// Hortifruti
	{"fruta", Hortifruti},
	{"verdura", Hortifruti},
	{"legume", Hortifruti},
	{"alface", Hortifruti},
	{"tomate", Hortifruti},
	{"batata", Hortifruti},
	{"cebola", Hortifruti},
	{"banana", Hortifruti},
	{"maçã", Hortifruti},
}
