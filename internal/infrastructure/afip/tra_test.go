package afip

import (
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTRA_EstructuraYFechas(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	raw, err := buildTRA("wsfe", now, 2400*time.Minute, time.Minute)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(raw))

	root := doc.SelectElement("loginTicketRequest")
	require.NotNil(t, root)
	assert.Equal(t, "1.0", root.SelectAttrValue("version", ""))
	assert.Equal(t, "wsfe", root.SelectElement("service").Text())

	header := root.SelectElement("header")
	require.NotNil(t, header)
	assert.Equal(t, "1788264000", header.SelectElement("uniqueId").Text(), "uniqueId es el epoch en segundos")

	generated, err := time.Parse(time.RFC3339, header.SelectElement("generationTime").Text())
	require.NoError(t, err)
	expires, err := time.Parse(time.RFC3339, header.SelectElement("expirationTime").Text())
	require.NoError(t, err)
	assert.True(t, generated.Before(now), "generationTime retrocede el margen de reloj")
	assert.True(t, expires.After(now), "expirationTime queda en el futuro")
}

func TestBuildTRA_SalidaCanonica(t *testing.T) {
	raw, err := buildTRA("ws_sr_constancia_inscripcion", time.Now(), time.Hour, time.Minute)
	require.NoError(t, err)

	// La forma canónica no lleva declaración XML: lo que se firma son los
	// bytes canonicalizados, no la serialización cruda del builder.
	assert.NotContains(t, string(raw), "<?xml")
	assert.Contains(t, string(raw), "<service>ws_sr_constancia_inscripcion</service>")
}

func TestCanonicalizeXML_MalFormadoFalla(t *testing.T) {
	_, err := canonicalizeXML([]byte("<loginTicketRequest><header>"))
	assert.Error(t, err, "un XML mal formado no puede canonicalizarse ni firmarse")
}
