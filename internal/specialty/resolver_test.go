package specialty

import (
	"testing"

	"cmc-padron/internal/record"

	"github.com/stretchr/testify/assert"
)

func newTestResolver(entries ...Entry) *Resolver {
	c := NewCatalog()
	c.Replace(entries)
	return NewResolver(c, record.DefaultAliases)
}

func TestTokens_Step1_SlotsInOrderSkippingZeroAndBlank(t *testing.T) {
	r := newTestResolver()
	rec := record.Record{
		"nro_especialidad":  "7",
		"nro_especialidad2": 0,
		"nro_especialidad3": "",
		"nro_especialidad4": "0",
		"nro_especialidad5": 12.0,
		"nro_especialidad6": "4",
	}
	assert.Equal(t, []string{"7", "12", "4"}, r.Tokens(rec))
}

func TestTokens_Step2_CatalogTranslationWithRawFallback(t *testing.T) {
	r := newTestResolver(Entry{ID: "3", Name: "Pediatría"})
	rec := record.Record{"nro_especialidad": "3", "nro_especialidad2": "99"}

	assert.Equal(t, []string{"Pediatría", "99"}, r.Tokens(rec))
}

func TestTokens_Step2_CatalogNotLoaded(t *testing.T) {
	r := NewResolver(NewCatalog(), nil)
	rec := record.Record{"nro_especialidad": "3"}

	assert.Equal(t, []string{"3"}, r.Tokens(rec))
}

func TestTokens_Step3_LegacyField(t *testing.T) {
	r := newTestResolver(Entry{ID: "3", Name: "Pediatría"})

	t.Run("delimited string", func(t *testing.T) {
		rec := record.Record{"nro_especialidad": "3", "especialidades": "Cardiología; Clínica | Nefrología"}
		assert.Equal(t, []string{"Pediatría", "Cardiología", "Clínica", "Nefrología"}, r.Tokens(rec))
	})

	t.Run("array of objects", func(t *testing.T) {
		rec := record.Record{"especialidades": []any{
			map[string]any{"nombre": "Dermatología"},
			map[string]any{"name": "Oftalmología"},
			map[string]any{"otro": "ignorado"},
		}}
		assert.Equal(t, []string{"Dermatología", "Oftalmología"}, r.Tokens(rec))
	})

	t.Run("legacy key spelling", func(t *testing.T) {
		rec := record.Record{"ESPECIALIDAD": "Traumatología"}
		assert.Equal(t, []string{"Traumatología"}, r.Tokens(rec))
	})
}

func TestTokens_Step4_DedupIsCaseAndAccentInsensitive(t *testing.T) {
	r := newTestResolver(Entry{ID: "3", Name: "Pediatría"})
	rec := record.Record{
		"nro_especialidad":  "3",
		"nro_especialidad2": "03",
		"especialidades":    "PEDIATRIA, pediatría, Cardiología",
	}
	tokens := r.Tokens(rec)
	assert.Equal(t, []string{"Pediatría", "Cardiología"}, tokens)

	seen := map[string]bool{}
	for _, tok := range tokens {
		key := record.NormalizeText(tok)
		assert.False(t, seen[key], "duplicate token %q", tok)
		seen[key] = true
	}
}

func TestTokens_Step5_SentinelAndEmpty(t *testing.T) {
	r := newTestResolver()

	assert.Equal(t, []string{"médico"}, r.Tokens(record.Record{"especialidades": "sin especialidad"}))
	assert.Equal(t, []string{"médico"}, r.Tokens(record.Record{"especialidades": "Sin Especialidad, Cardiología"}))
	assert.Equal(t, []string{"médico"}, r.Tokens(record.Record{}))
	assert.Equal(t, []string{"médico"}, r.Tokens(record.Record{"nro_especialidad": 0}))
}

func TestTokens_Step5_SentinelFromCatalog(t *testing.T) {
	r := newTestResolver(Entry{ID: "1", Name: "SIN ESPECIALIDAD"})
	assert.Equal(t, []string{"médico"}, r.Tokens(record.Record{"nro_especialidad": "1"}))
}

func TestTokens_Step6_MedicoSuppressed(t *testing.T) {
	r := newTestResolver()

	assert.Equal(t, []string{"Cardiología"}, r.Tokens(record.Record{"especialidades": "médico, Cardiología"}))
	assert.Equal(t, []string{"Cardiología"}, r.Tokens(record.Record{"especialidades": "MEDICO|Cardiología"}))
	assert.Equal(t, []string{"Médico"}, r.Tokens(record.Record{"especialidades": "Médico"}), "single médico is kept")
}

func TestIsMissing(t *testing.T) {
	r := newTestResolver()

	assert.True(t, r.IsMissing(record.Record{}))
	assert.True(t, r.IsMissing(record.Record{"especialidades": "sin especialidad"}))
	assert.False(t, r.IsMissing(record.Record{"nro_especialidad": "5"}))
}

func TestMatches(t *testing.T) {
	r := newTestResolver(Entry{ID: "3", Name: "Pediatría"}, Entry{ID: "8", Name: "Cirugía Cardiovascular"})
	rec := record.Record{"sexo": "F", "provincia": "Corrientes", "nro_especialidad": "3"}

	assert.True(t, r.Matches(rec, ""), "empty selection matches everything")
	assert.True(t, r.Matches(rec, "pedia"), "substring, accent-insensitive")
	assert.True(t, r.Matches(rec, "PEDIATRÍA"))
	assert.True(t, r.Matches(rec, "Pediatría infantil"), "selection containing the token")
	assert.True(t, r.Matches(rec, "3"), "catalog id selection")
	assert.False(t, r.Matches(rec, "cardio"))
	assert.False(t, r.Matches(rec, "8"))
}

func TestMatches_GeneralPractitioner(t *testing.T) {
	r := newTestResolver()
	assert.True(t, r.Matches(record.Record{}, "médico"))
	assert.True(t, r.Matches(record.Record{}, "medico"))
}

func TestJoin(t *testing.T) {
	r := newTestResolver(Entry{ID: "3", Name: "Pediatría"})
	assert.Equal(t, "Pediatría, Neonatología", r.Join(record.Record{"nro_especialidad": 3, "especialidades": "Neonatología"}))
}
