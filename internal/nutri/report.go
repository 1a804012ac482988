package nutri

import (
	"fmt"
	"strings"
)

// FormatarRelatorio renders a Resultado as readable chat text.
func FormatarRelatorio(r *Resultado, nome string) string {
	if nome == "" {
		nome = "Colaborador"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Avaliacao Nutricional - %s\n\n", nome)

	fmt.Fprintf(&b, "Dados Antropometricos:\n")
	fmt.Fprintf(&b, "* IMC: %.1f - %s\n\n", r.IMC, r.ClassificacaoIMC)

	fmt.Fprintf(&b, "Taxa Metabolica Basal (TMB):\n")
	fmt.Fprintf(&b, "* Harris-Benedict: %.0f kcal\n", r.TMBHarrisBenedict)
	fmt.Fprintf(&b, "* Mifflin-St Jeor: %.0f kcal\n", r.TMBMifflin)
	if r.TMBKatchMcArdle > 0 {
		fmt.Fprintf(&b, "* Katch-McArdle: %.0f kcal\n", r.TMBKatchMcArdle)
	}
	fmt.Fprintf(&b, "* Utilizada: %.0f kcal (%s)\n\n", r.TMBUtilizada, r.FormulaEscolhida)

	fmt.Fprintf(&b, "Gasto Energetico Total (GET):\n")
	fmt.Fprintf(&b, "* TMB x Fator (%.3g): base\n", r.FatorAtividade)
	fmt.Fprintf(&b, "* Ajuste turno noturno: %+.0f kcal\n", r.AjusteNoturno)
	fmt.Fprintf(&b, "* Efeito termico alimentos: +%.0f kcal\n", r.TEF)
	fmt.Fprintf(&b, "* NEAT ocupacional: +%.0f kcal\n", r.NEAT)
	fmt.Fprintf(&b, "* GET Total: %.0f kcal\n\n", r.GETTotal)

	fmt.Fprintf(&b, "Meta Calorica: %.0f kcal/dia (%+.0f kcal)\n\n", r.MetaCalorica, r.DeficitSuperavit)

	fmt.Fprintf(&b, "Distribuicao de Macronutrientes:\n")
	fmt.Fprintf(&b, "* Proteina: %dg (%.1f%%) = %.0f kcal\n", r.Macros.ProteinaG, r.Macros.ProteinaPct, r.Macros.ProteinaKcal)
	fmt.Fprintf(&b, "* Carboidratos: %dg (%.1f%%) = %.0f kcal\n", r.Macros.CarboidratosG, r.Macros.CarboidratosPct, r.Macros.CarboidratosKcal)
	fmt.Fprintf(&b, "* Gorduras: %dg (%.1f%%) = %.0f kcal\n\n", r.Macros.GordurasG, r.Macros.GordurasPct, r.Macros.GordurasKcal)

	fmt.Fprintf(&b, "Hidratacao: %d ml/dia\n", r.AguaML)
	fmt.Fprintf(&b, "Fibra: %dg/dia", r.FibraG)
	return b.String()
}
