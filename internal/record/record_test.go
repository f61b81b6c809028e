package record

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_FirstNonBlankAlias(t *testing.T) {
	r := Record{
		"vencimiento_malapraxis": "",
		"MALAPRAXIS_VENCIMIENTO": "2025-03-01",
		"venc_malapraxis":        "2026-01-01",
	}
	v := Resolve(r, DefaultAliases[FieldMalapraxisVenc])
	assert.Equal(t, "2025-03-01", v)
}

func TestResolve_BlankValuesAreSkipped(t *testing.T) {
	r := Record{
		"a": nil,
		"b": "   ",
		"c": []any{},
		"d": map[string]any{},
	}
	assert.Equal(t, "", Resolve(r, []string{"a", "b", "c", "d", "missing"}))

	r["e"] = 0
	assert.Equal(t, 0, Resolve(r, []string{"a", "e"}), "zero is a present value")
}

func TestAliasTable_UnknownFieldUsesLiteralKey(t *testing.T) {
	r := Record{"observaciones": "pendiente"}
	assert.Equal(t, "pendiente", DefaultAliases.String(r, "observaciones"))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "12", ToString(12.0))
	assert.Equal(t, "12.5", ToString(12.5))
	assert.Equal(t, "7", ToString(json.Number("7")))
	assert.Equal(t, "true", ToString(true))
	assert.Equal(t, "2024-05-06", ToString(time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Clínica, Pediatría", ToString([]any{
		map[string]any{"nombre": "Clínica"},
		map[string]any{"name": "Pediatría"},
	}))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "pediatria", NormalizeText("  Pediatría "))
	assert.Equal(t, "medico", NormalizeText("MÉDICO"))
	assert.Equal(t, "sin especialidad", NormalizeText("Sin   Especialidad"))
	assert.Equal(t, "nunez", NormalizeText("Núñez"))
	assert.Equal(t, "", NormalizeText(nil))
}

func TestParseDate_Formats(t *testing.T) {
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	cases := map[string]any{
		"iso":           "2024-03-15",
		"iso datetime":  "2024-03-15T22:10:00-03:00",
		"dmy":           "15/03/2024",
		"dmy short":     "15/3/2024",
		"dmy dashes":    "15-03-2024",
		"epoch seconds": float64(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC).Unix()),
		"epoch millis":  time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC).UnixMilli(),
		"epoch string":  "1710504000",
		"time value":    time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC),
		"generic":       "March 15, 2024",
		"slashes":       "2024/03/15",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := ParseDate(in)
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseDate_Unparseable(t *testing.T) {
	for _, in := range []any{nil, "", "no informado", "31/02/2024", "0000-00-00", 0, true, []any{}} {
		_, ok := ParseDate(in)
		assert.False(t, ok, "%v should not parse", in)
	}
}

func TestParseDate_ShortDigitStrings(t *testing.T) {
	d, ok := ParseDate("20240115")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), d)

	for _, in := range []string{"2024", "0", "15", "20241345", "12345678"} {
		_, ok := ParseDate(in)
		assert.False(t, ok, "%q should not parse", in)
	}

	// 9 位以上仍按 epoch 秒解析
	d, ok = ParseDate("946684800")
	require.True(t, ok)
	assert.Equal(t, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), d)
}

func TestParseDate_EpochUsesLocation(t *testing.T) {
	loc := time.FixedZone("ART", -3*3600)
	// 2024-03-16 01:00 UTC is still 2024-03-15 in Argentina
	ts := time.Date(2024, 3, 16, 1, 0, 0, 0, time.UTC).Unix()

	got, ok := ParseDateIn(ts, loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDate_Idempotent(t *testing.T) {
	for _, in := range []any{"2024-02-29", "01/12/1999", int64(1700000000), "Jan 2, 2006"} {
		first, ok := ParseDate(in)
		require.True(t, ok)
		second, ok := ParseDate(first.Format(time.RFC3339Nano))
		require.True(t, ok)
		assert.Equal(t, first, second)
	}
}

func TestInRange(t *testing.T) {
	d := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	from := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)

	assert.True(t, InRange(d, from, to), "bounds are inclusive")
	assert.True(t, InRange(d, time.Time{}, time.Time{}), "open range")
	assert.True(t, InRange(d, time.Time{}, to))
	assert.False(t, InRange(AddDays(d, -1), from, to))
	assert.False(t, InRange(AddDays(to, 1), from, to))
}

func TestParseTriState(t *testing.T) {
	for _, in := range []any{true, 1, 1.0, "1", "S", "Sí", "si", "true", "activo", "A"} {
		v, known := ParseTriState(in)
		assert.True(t, known, "%v", in)
		assert.True(t, v, "%v", in)
	}
	for _, in := range []any{false, 0, "0", "N", "no", "Baja", "inactivo"} {
		v, known := ParseTriState(in)
		assert.True(t, known, "%v", in)
		assert.False(t, v, "%v", in)
	}
	for _, in := range []any{nil, "", "quizás", 2} {
		v, known := ParseTriState(in)
		assert.False(t, known, "%v", in)
		assert.False(t, v, "%v", in)
	}
}

func TestLoadAliasTable_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("malapraxis_vencimiento:\n  - venc_mp\n"), 0o600))

	table, err := LoadAliasTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"venc_mp"}, table[FieldMalapraxisVenc])
	assert.Equal(t, DefaultAliases[FieldSexo], table[FieldSexo])
	// defaults untouched
	assert.NotEqual(t, []string{"venc_mp"}, DefaultAliases[FieldMalapraxisVenc])
}

func TestLoadAliasTable_EmptyPath(t *testing.T) {
	table, err := LoadAliasTable("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAliases, table)
}

func TestParseAliasTable_Invalid(t *testing.T) {
	_, err := ParseAliasTable([]byte("malapraxis: [unclosed"))
	assert.Error(t, err)
}
