package notify

import (
	"strings"
	"testing"
)

func TestGerarLembretesDiarios_Diurno(t *testing.T) {
	lembretes := GerarLembretesDiarios("diurno")

	// 6 meal reminders + 5 hydration reminders
	if len(lembretes) != 11 {
		t.Fatalf("lembretes = %d, want 11", len(lembretes))
	}
	if lembretes[0].Horario != "05:30" || lembretes[0].Tipo != TipoLembreteRefeicao {
		t.Errorf("first reminder = %+v", lembretes[0])
	}

	var hidratacao int
	for _, l := range lembretes {
		if l.Tipo == TipoHidratacao {
			hidratacao++
		}
		if l.Recorrencia != "diaria" {
			t.Errorf("recorrencia = %q, want diaria", l.Recorrencia)
		}
	}
	if hidratacao != 5 {
		t.Errorf("hydration reminders = %d, want 5", hidratacao)
	}
}

func TestGerarLembretesDiarios_Noturno(t *testing.T) {
	lembretes := GerarLembretesDiarios("noturno")

	if lembretes[0].Horario != "17:30" {
		t.Errorf("first reminder at %q, want 17:30", lembretes[0].Horario)
	}
	for _, l := range lembretes {
		if l.Tipo == TipoHidratacao && l.Horario == "08:00" {
			t.Error("night shift should not get day-shift hydration hours")
		}
	}
}

func TestGerarLembretePesagem(t *testing.T) {
	l := GerarLembretePesagem()
	if l.Tipo != TipoPesagem || l.Recorrencia != "semanal" || l.DiaSemana != "segunda" {
		t.Errorf("pesagem = %+v", l)
	}
}

func TestMensagemMotivacional(t *testing.T) {
	// Index wraps around the message list.
	if MensagemMotivacional(0) != MensagemMotivacional(10) {
		t.Error("index 10 should wrap to index 0")
	}
	if MensagemMotivacional(-1) == "" {
		t.Error("random message should not be empty")
	}
}

func TestVerificarAlertasNutricionais(t *testing.T) {
	alertas := VerificarAlertasNutricionais(DadosSaude{
		GlicemiaJejum:     130,
		PressaoSistolica:  185,
		PressaoDiastolica: 100,
	})
	if len(alertas) != 2 {
		t.Fatalf("alertas = %d, want 2", len(alertas))
	}
	if alertas[0].Tipo != "urgente" || !strings.Contains(alertas[0].Motivo, "Glicemia") {
		t.Errorf("first alert = %+v", alertas[0])
	}
	if alertas[1].Tipo != "urgente" || !strings.Contains(alertas[1].Motivo, "hipertensiva") {
		t.Errorf("second alert = %+v", alertas[1])
	}
}

func TestVerificarAlertasNutricionais_Limites(t *testing.T) {
	// Pre-diabetes band is moderate, not urgent.
	alertas := VerificarAlertasNutricionais(DadosSaude{GlicemiaJejum: 110})
	if len(alertas) != 1 || alertas[0].Tipo != "moderado" {
		t.Errorf("alertas = %+v, want one moderado", alertas)
	}

	// Unmeasured values produce nothing.
	if alertas := VerificarAlertasNutricionais(DadosSaude{}); len(alertas) != 0 {
		t.Errorf("empty data should produce no alerts, got %+v", alertas)
	}
}
