package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RespetaElNivel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Env: "production", Level: "warn", Writer: &buf})

	log.Info().Msg("no debería salir")
	assert.Zero(t, buf.Len(), "info queda por debajo del nivel warn")

	log.Warn().Msg("sí sale")
	assert.Contains(t, buf.String(), "sí sale")
}

func TestWithService_EtiquetaCadaLinea(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Env: "production", Level: "info", Writer: &buf})

	ws := log.WithService("wsfe", "homologacion")
	ws.Info().Int("punto_venta", 3).Msg("consulta de numeración")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "wsfe", line["ws"])
	assert.Equal(t, "homologacion", line["afip_env"])
	assert.Equal(t, float64(3), line["punto_venta"])
	assert.Equal(t, "consulta de numeración", line["message"])
}

func TestWithService_NoContaminaElPadre(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Env: "production", Level: "info", Writer: &buf})
	_ = log.WithService("wsaa:wsfe", "produccion")

	log.Info().Msg("línea del logger base")
	assert.NotContains(t, buf.String(), "wsaa", "el sublogger no modifica al padre")
}
