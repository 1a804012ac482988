// Package notify generates shift-aware reminders, motivational messages
// and nutritional screening alerts for colaboradores.
package notify

import (
	"fmt"
	"math/rand"
)

// Notification types.
const (
	TipoLembreteRefeicao = "lembrete_refeicao"
	TipoHidratacao       = "hidratacao"
	TipoPesagem          = "pesagem"
	TipoMotivacional     = "motivacional"
	TipoAlertaMedico     = "alerta_medico"
)

// Lembrete is a scheduled reminder entry.
type Lembrete struct {
	Horario     string `json:"horario"`
	Mensagem    string `json:"mensagem"`
	Tipo        string `json:"tipo"`
	Recorrencia string `json:"recorrencia"`
	DiaSemana   string `json:"dia_semana,omitempty"`
}

var mensagensMotivacionais = []string{
	"Lembre-se: cada refeicao e uma oportunidade de cuidar da sua saude!",
	"Voce esta no caminho certo. Consistencia e mais importante que perfeicao!",
	"Hidratacao e fundamental! Ja bebeu agua nas ultimas 2 horas?",
	"Seu corpo e seu maior patrimonio. Invista nele com boas escolhas alimentares!",
	"Embarque e temporario, mas os habitos saudaveis que voce constroi aqui ficam para sempre.",
	"Nao se compare com ontem dos outros, compare-se com o ontem de voce mesmo.",
	"Faltam poucas horas pro fim do turno. Mantenha o foco na hidratacao!",
	"Proteina em cada refeicao = mais energia e menos fome. Nao esqueca!",
	"Dormir bem e tao importante quanto comer bem. Prepare-se para um bom descanso.",
	"Voce ja registrou suas refeicoes hoje? Acompanhar e o primeiro passo!",
}

// lembretesDiurno maps meal reminder times for the day shift.
var lembretesDiurno = []Lembrete{
	{Horario: "05:30", Mensagem: "Bom dia! Hora do cafe da manha. Comece com proteina e fibra para manter a energia."},
	{Horario: "09:30", Mensagem: "Hora do lanche da manha! Uma fruta com castanhas e uma otima opcao."},
	{Horario: "11:30", Mensagem: "Preparando para o almoco. Lembre-se: comece pela salada!"},
	{Horario: "15:00", Mensagem: "Lanche da tarde! Iogurte natural ou uma fruta para manter o foco."},
	{Horario: "18:30", Mensagem: "Hora do jantar. Escolha proteina magra e vegetais. Evite frituras a noite."},
	{Horario: "21:00", Mensagem: "Se sentir fome, uma ceia leve: cha + torrada integral ou fruta."},
}

// lembretesNoturno maps meal reminder times for the night shift.
var lembretesNoturno = []Lembrete{
	{Horario: "17:30", Mensagem: "Boa noite de trabalho! Comece com uma refeicao completa e equilibrada."},
	{Horario: "21:30", Mensagem: "Lanche noturno. Algo leve e nutritivo para manter a energia."},
	{Horario: "00:00", Mensagem: "Meia-noite! Hora de um lanche proteico. Evite carboidratos simples agora."},
	{Horario: "03:00", Mensagem: "Madrugada. Hidratacao e essencial! Beba agua ou cha sem acucar."},
	{Horario: "06:30", Mensagem: "Fim do turno se aproximando. Refeicao leve para preparar para o sono."},
	{Horario: "07:30", Mensagem: "Hora de descansar. Evite cafeina e refeicoes pesadas antes de dormir."},
}

var lembretesHidratacao = []string{
	"Hora de beber agua! Mantenha-se hidratado.",
	"Lembrete de hidratacao - um copo de agua agora faz diferenca no seu rendimento!",
	"O ar condicionado da plataforma resseca. Beba agua regularmente!",
}

// GerarLembretesDiarios builds the reminder schedule for a shift: meal
// reminders from the shift template plus five hydration reminders spread
// across working hours.
func GerarLembretesDiarios(turno string) []Lembrete {
	template := lembretesDiurno
	horasHidratacao := []string{"08:00", "10:00", "12:00", "14:00", "16:00"}
	if turno == "noturno" {
		template = lembretesNoturno
		horasHidratacao = []string{"20:00", "22:00", "00:00", "02:00", "04:00"}
	}

	lembretes := make([]Lembrete, 0, len(template)+len(horasHidratacao))
	for _, l := range template {
		l.Tipo = TipoLembreteRefeicao
		l.Recorrencia = "diaria"
		lembretes = append(lembretes, l)
	}
	for i, hora := range horasHidratacao {
		lembretes = append(lembretes, Lembrete{
			Horario:     hora,
			Mensagem:    lembretesHidratacao[i%len(lembretesHidratacao)],
			Tipo:        TipoHidratacao,
			Recorrencia: "diaria",
		})
	}
	return lembretes
}

// GerarLembretePesagem returns the weekly weighing reminder.
func GerarLembretePesagem() Lembrete {
	return Lembrete{
		Horario:     "06:00",
		Mensagem:    "Dia de pesagem! Va a enfermaria em jejum, antes do cafe. Registre o peso no app.",
		Tipo:        TipoPesagem,
		Recorrencia: "semanal",
		DiaSemana:   "segunda",
	}
}

// MensagemMotivacional returns the message at indice (wrapping), or a
// random one when indice is negative.
func MensagemMotivacional(indice int) string {
	if indice < 0 {
		indice = rand.Intn(len(mensagensMotivacionais))
	}
	return mensagensMotivacionais[indice%len(mensagensMotivacionais)]
}

// DadosSaude carries the most recent measurement values screened for
// nutritional alerts. Zero means the value was not measured.
type DadosSaude struct {
	GlicemiaJejum     float64
	ColesterolTotal   float64
	Triglicerides     float64
	PressaoSistolica  int
	PressaoDiastolica int
	IMC               float64
}

// Alerta is a screening finding with severity and guidance.
type Alerta struct {
	Tipo         string `json:"tipo"` // urgente, moderado
	Motivo       string `json:"motivo"`
	Recomendacao string `json:"recomendacao"`
}

// VerificarAlertasNutricionais screens measurement values against
// clinical reference ranges and returns any findings.
func VerificarAlertasNutricionais(d DadosSaude) []Alerta {
	var alertas []Alerta

	if d.GlicemiaJejum > 126 {
		alertas = append(alertas, Alerta{
			Tipo:         "urgente",
			Motivo:       fmt.Sprintf("Glicemia de jejum elevada: %.0f mg/dL (ref: <100)", d.GlicemiaJejum),
			Recomendacao: "Encaminhar para avaliacao medica. Ajustar plano para baixo indice glicemico.",
		})
	} else if d.GlicemiaJejum > 100 {
		alertas = append(alertas, Alerta{
			Tipo:         "moderado",
			Motivo:       fmt.Sprintf("Glicemia de jejum alterada: %.0f mg/dL (pre-diabetes: 100-125)", d.GlicemiaJejum),
			Recomendacao: "Monitorar. Reforcar alimentacao com baixo IG e fibras.",
		})
	}

	if d.ColesterolTotal > 240 {
		alertas = append(alertas, Alerta{
			Tipo:         "moderado",
			Motivo:       fmt.Sprintf("Colesterol total elevado: %.0f mg/dL (ref: <200)", d.ColesterolTotal),
			Recomendacao: "Reduzir gordura saturada. Aumentar fibras e omega-3.",
		})
	}

	if d.Triglicerides > 200 {
		alertas = append(alertas, Alerta{
			Tipo:         "moderado",
			Motivo:       fmt.Sprintf("Triglicerideos elevados: %.0f mg/dL (ref: <150)", d.Triglicerides),
			Recomendacao: "Reduzir carboidratos simples e acucar. Aumentar omega-3.",
		})
	}

	if d.PressaoSistolica > 0 && d.PressaoDiastolica > 0 {
		if d.PressaoSistolica >= 180 || d.PressaoDiastolica >= 120 {
			alertas = append(alertas, Alerta{
				Tipo:         "urgente",
				Motivo:       fmt.Sprintf("Crise hipertensiva: %d/%d mmHg", d.PressaoSistolica, d.PressaoDiastolica),
				Recomendacao: "ENCAMINHAR IMEDIATAMENTE para medico de bordo.",
			})
		} else if d.PressaoSistolica >= 140 || d.PressaoDiastolica >= 90 {
			alertas = append(alertas, Alerta{
				Tipo:         "moderado",
				Motivo:       fmt.Sprintf("Pressao arterial elevada: %d/%d mmHg", d.PressaoSistolica, d.PressaoDiastolica),
				Recomendacao: "Aplicar dieta DASH. Reduzir sodio para <2g/dia.",
			})
		}
	}

	if d.IMC >= 40 {
		alertas = append(alertas, Alerta{
			Tipo:         "urgente",
			Motivo:       fmt.Sprintf("Obesidade Grau III (IMC: %.1f)", d.IMC),
			Recomendacao: "Acompanhamento medico obrigatorio. Plano nutricional supervisionado.",
		})
	} else if d.IMC > 0 && d.IMC < 18.5 {
		alertas = append(alertas, Alerta{
			Tipo:         "moderado",
			Motivo:       fmt.Sprintf("Baixo peso (IMC: %.1f)", d.IMC),
			Recomendacao: "Investigar causas. Plano hipercalorico supervisionado.",
		})
	}

	return alertas
}
