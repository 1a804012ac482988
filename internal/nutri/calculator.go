// Package nutri implements the nutritional formulas used by the agent:
// basal metabolic rate (TMB), total energy expenditure (GET) with
// offshore-specific adjustments, macro distribution, hydration and fiber.
package nutri

import (
	"fmt"
	"math"
	"strings"
)

// Sexo values accepted by the formulas.
const (
	SexoMasculino = "M"
	SexoFeminino  = "F"
)

// Nivel de atividade values.
const (
	AtividadeSedentario = "sedentario"
	AtividadeLeve       = "leve"
	AtividadeModerado   = "moderado"
	AtividadeIntenso    = "intenso"
)

// Turno values.
const (
	TurnoDiurno  = "diurno"
	TurnoNoturno = "noturno"
)

// Objetivo values.
const (
	ObjetivoPerdaPeso   = "perda_peso"
	ObjetivoGanhoMassa  = "ganho_massa"
	ObjetivoManutencao  = "manutencao"
	ObjetivoPerformance = "performance"
	ObjetivoSaudeGeral  = "saude_geral"
)

// fatoresAtividade are the classic activity multipliers applied to TMB.
var fatoresAtividade = map[string]float64{
	AtividadeSedentario: 1.2,
	AtividadeLeve:       1.375,
	AtividadeModerado:   1.55,
	AtividadeIntenso:    1.725,
}

// ajusteNEATFuncao is the occupational NEAT adjustment in kcal/day per
// platform role. Roles with heavy physical demand get larger additions.
var ajusteNEATFuncao = map[string]float64{
	"administrativo":     0,
	"supervisor":         50,
	"tecnico_seguranca":  80,
	"operador_producao":  150,
	"tecnico_manutencao": 200,
	"eletricista":        180,
	"mecanico":           220,
	"soldador":           250,
	"plataformista":      300,
	"guindasteiro":       180,
	"cozinheiro":         120,
	"camareiro":          150,
}

// Perfil holds the inputs for a complete nutritional assessment.
// PercentualGordura of zero means body composition is unknown.
type Perfil struct {
	PesoKG            float64
	AlturaCM          float64
	Idade             int
	Sexo              string
	NivelAtividade    string
	Turno             string
	Objetivo          string
	PercentualGordura float64
	Cargo             string
}

// GET breaks down the total energy expenditure calculation.
type GET struct {
	Base           float64
	FatorAtividade float64
	AjusteNoturno  float64
	TEF            float64
	NEAT           float64
	Total          float64
}

// Macros is the daily macronutrient split.
type Macros struct {
	ProteinaG        int
	CarboidratosG    int
	GordurasG        int
	ProteinaKcal     float64
	CarboidratosKcal float64
	GordurasKcal     float64
	ProteinaPct      float64
	CarboidratosPct  float64
	GordurasPct      float64
}

// Resultado is a full nutritional assessment.
type Resultado struct {
	TMBHarrisBenedict float64
	TMBMifflin        float64
	TMBKatchMcArdle   float64 // zero when body fat is unknown
	TMBUtilizada      float64
	FormulaEscolhida  string
	FatorAtividade    float64
	AjusteNoturno     float64
	TEF               float64
	NEAT              float64
	GETTotal          float64
	MetaCalorica      float64
	DeficitSuperavit  float64
	Macros            Macros
	AguaML            int
	FibraG            int
	IMC               float64
	ClassificacaoIMC  string
}

// IMC computes body mass index and its classification.
func IMC(pesoKG, alturaCM float64) (float64, string, error) {
	if alturaCM <= 0 {
		return 0, "", fmt.Errorf("altura deve ser maior que zero")
	}
	if pesoKG <= 0 {
		return 0, "", fmt.Errorf("peso deve ser maior que zero")
	}
	alturaM := alturaCM / 100
	imc := pesoKG / (alturaM * alturaM)

	var classificacao string
	switch {
	case imc < 18.5:
		classificacao = "Abaixo do peso"
	case imc < 25:
		classificacao = "Peso normal"
	case imc < 30:
		classificacao = "Sobrepeso"
	case imc < 35:
		classificacao = "Obesidade Grau I"
	case imc < 40:
		classificacao = "Obesidade Grau II"
	default:
		classificacao = "Obesidade Grau III"
	}
	return math.Round(imc*10) / 10, classificacao, nil
}

// TMBHarrisBenedict computes basal metabolic rate using the revised
// Harris-Benedict equation (1984).
func TMBHarrisBenedict(pesoKG, alturaCM float64, idade int, sexo string) float64 {
	var tmb float64
	if sexo == SexoMasculino {
		tmb = 88.362 + 13.397*pesoKG + 4.799*alturaCM - 5.677*float64(idade)
	} else {
		tmb = 447.593 + 9.247*pesoKG + 3.098*alturaCM - 4.330*float64(idade)
	}
	return math.Round(tmb)
}

// TMBMifflinStJeor computes basal metabolic rate using the Mifflin-St
// Jeor equation (1990).
func TMBMifflinStJeor(pesoKG, alturaCM float64, idade int, sexo string) float64 {
	tmb := 10*pesoKG + 6.25*alturaCM - 5*float64(idade)
	if sexo == SexoMasculino {
		tmb += 5
	} else {
		tmb -= 161
	}
	return math.Round(tmb)
}

// TMBKatchMcArdle computes basal metabolic rate from lean mass.
func TMBKatchMcArdle(pesoKG, percentualGordura float64) float64 {
	massaMagra := pesoKG * (1 - percentualGordura/100)
	return math.Round(370 + 21.6*massaMagra)
}

// EscolherTMB picks the most accurate formula for the available inputs:
// Katch-McArdle when body composition is known, Mifflin-St Jeor otherwise.
func EscolherTMB(p Perfil) (float64, string) {
	if p.PercentualGordura > 0 {
		return TMBKatchMcArdle(p.PesoKG, p.PercentualGordura), "Katch-McArdle (massa magra disponivel)"
	}
	return TMBMifflinStJeor(p.PesoKG, p.AlturaCM, p.Idade, p.Sexo), "Mifflin-St Jeor (padrao-ouro sem composicao corporal)"
}

// CalcularGET computes total energy expenditure. Night shift reduces
// expenditure by 7% of the activity-adjusted base; the thermic effect of
// food adds 10%; the occupational NEAT adjustment depends on the role.
func CalcularGET(tmb float64, nivelAtividade, turno, cargo string) GET {
	fator, ok := fatoresAtividade[nivelAtividade]
	if !ok {
		fator = fatoresAtividade[AtividadeModerado]
	}
	base := tmb * fator

	var ajusteNoturno float64
	if turno == TurnoNoturno {
		ajusteNoturno = -(base * 0.07)
	}

	tef := base * 0.10
	neat := ajusteNEATFuncao[strings.ToLower(cargo)]

	return GET{
		Base:           math.Round(base),
		FatorAtividade: fator,
		AjusteNoturno:  math.Round(ajusteNoturno),
		TEF:            math.Round(tef),
		NEAT:           neat,
		Total:          math.Round(base + ajusteNoturno + tef + neat),
	}
}

// MetaCalorica applies the objective adjustment to GET, with a safety
// floor of 1200 kcal/day. Returns the target and the applied adjustment.
func MetaCalorica(getTotal float64, objetivo string) (float64, float64) {
	ajustes := map[string]float64{
		ObjetivoPerdaPeso:   -400,
		ObjetivoGanhoMassa:  250,
		ObjetivoManutencao:  0,
		ObjetivoPerformance: 100,
		ObjetivoSaudeGeral:  0,
	}
	ajuste := ajustes[objetivo]
	meta := math.Max(getTotal+ajuste, 1200)
	return math.Round(meta), ajuste
}

// DistribuirMacros splits the caloric target into protein, carbohydrate
// and fat grams. Protein is set per kg by objective, fat per kg with a
// dyslipidemia reduction, and carbohydrates take the remainder with a
// 50g minimum. Type 2 diabetes shifts 20% of carbohydrates into fat.
func DistribuirMacros(metaCalorica, pesoKG float64, objetivo string, condicoes []string) Macros {
	var proteinaPorKG float64
	switch objetivo {
	case ObjetivoGanhoMassa, ObjetivoPerformance:
		proteinaPorKG = 2.0
	case ObjetivoPerdaPeso:
		proteinaPorKG = 2.2
	default:
		proteinaPorKG = 1.6
	}
	proteinaG := int(math.Round(pesoKG * proteinaPorKG))
	proteinaKcal := float64(proteinaG * 4)

	gorduraPorKG := 1.0
	if temCondicao(condicoes, "dislipidemia") {
		gorduraPorKG = 0.8
	}
	gorduraG := int(math.Round(pesoKG * gorduraPorKG))
	gorduraKcal := float64(gorduraG * 9)

	carbKcal := metaCalorica - proteinaKcal - gorduraKcal
	carbG := int(math.Round(math.Max(carbKcal/4, 50)))
	carbKcal = float64(carbG * 4)

	if temCondicao(condicoes, "diabetes_tipo2") {
		reducao := int(math.Round(float64(carbG) * 0.20))
		carbG -= reducao
		gorduraG += int(math.Round(float64(reducao) * 4 / 9))
		carbKcal = float64(carbG * 4)
		gorduraKcal = float64(gorduraG * 9)
	}

	totalKcal := proteinaKcal + carbKcal + gorduraKcal
	pct := func(kcal float64) float64 {
		return math.Round(kcal/totalKcal*1000) / 10
	}

	return Macros{
		ProteinaG:        proteinaG,
		CarboidratosG:    carbG,
		GordurasG:        gorduraG,
		ProteinaKcal:     proteinaKcal,
		CarboidratosKcal: carbKcal,
		GordurasKcal:     gorduraKcal,
		ProteinaPct:      pct(proteinaKcal),
		CarboidratosPct:  pct(carbKcal),
		GordurasPct:      pct(gorduraKcal),
	}
}

// Hidratacao computes the daily water target in ml, rounded to 50 ml.
// Offshore heat exposure adds a fixed 200 ml; night shift another 100 ml.
func Hidratacao(pesoKG float64, nivelAtividade, turno string) int {
	ajustes := map[string]float64{
		AtividadeSedentario: 0,
		AtividadeLeve:       300,
		AtividadeModerado:   500,
		AtividadeIntenso:    800,
	}
	ajuste, ok := ajustes[nivelAtividade]
	if !ok {
		ajuste = 300
	}

	agua := pesoKG*35 + ajuste + 200
	if turno == TurnoNoturno {
		agua += 100
	}
	return int(math.Round(agua/50)) * 50
}

// Fibra computes the daily fiber target in grams (14g per 1000 kcal,
// minimum 25, raised to 30 for type 2 diabetes, capped at 40).
func Fibra(metaCalorica float64, condicoes []string) int {
	base := int(math.Round(metaCalorica / 1000 * 14))
	if base < 25 {
		base = 25
	}
	if temCondicao(condicoes, "diabetes_tipo2") && base < 30 {
		base = 30
	}
	if base > 40 {
		base = 40
	}
	return base
}

// CalcularCompleto runs the full assessment pipeline for a profile.
func CalcularCompleto(p Perfil, condicoes []string) (*Resultado, error) {
	imc, classificacao, err := IMC(p.PesoKG, p.AlturaCM)
	if err != nil {
		return nil, err
	}

	tmbHB := TMBHarrisBenedict(p.PesoKG, p.AlturaCM, p.Idade, p.Sexo)
	tmbMifflin := TMBMifflinStJeor(p.PesoKG, p.AlturaCM, p.Idade, p.Sexo)
	var tmbKatch float64
	if p.PercentualGordura > 0 {
		tmbKatch = TMBKatchMcArdle(p.PesoKG, p.PercentualGordura)
	}

	tmbEscolhida, formula := EscolherTMB(p)
	get := CalcularGET(tmbEscolhida, p.NivelAtividade, p.Turno, p.Cargo)
	meta, ajuste := MetaCalorica(get.Total, p.Objetivo)
	macros := DistribuirMacros(meta, p.PesoKG, p.Objetivo, condicoes)

	return &Resultado{
		TMBHarrisBenedict: tmbHB,
		TMBMifflin:        tmbMifflin,
		TMBKatchMcArdle:   tmbKatch,
		TMBUtilizada:      tmbEscolhida,
		FormulaEscolhida:  formula,
		FatorAtividade:    get.FatorAtividade,
		AjusteNoturno:     get.AjusteNoturno,
		TEF:               get.TEF,
		NEAT:              get.NEAT,
		GETTotal:          get.Total,
		MetaCalorica:      meta,
		DeficitSuperavit:  ajuste,
		Macros:            macros,
		AguaML:            Hidratacao(p.PesoKG, p.NivelAtividade, p.Turno),
		FibraG:            Fibra(meta, condicoes),
		IMC:               imc,
		ClassificacaoIMC:  classificacao,
	}, nil
}

func temCondicao(condicoes []string, nome string) bool {
	for _, c := range condicoes {
		if strings.EqualFold(strings.TrimSpace(c), nome) {
			return true
		}
	}
	return false
}
