package afip

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestionpos/facturacion-api/internal/domain"
)

func testTicket(expiresIn time.Duration) *Ticket {
	now := time.Now().UTC().Truncate(time.Second)
	return &Ticket{
		Token:       "token-de-prueba",
		Sign:        "firma-de-prueba",
		GeneratedAt: now,
		ExpiresAt:   now.Add(expiresIn),
		Service:     "wsfe",
	}
}

func TestFileTicketCache_MissIsTicketNotFound(t *testing.T) {
	cache, err := NewFileTicketCache(t.TempDir())
	require.NoError(t, err)

	_, err = cache.Load(context.Background(), "wsfe")
	assert.ErrorIs(t, err, domain.ErrTicketNotFound, "servicio sin ticket debe ser cache miss")
}

func TestFileTicketCache_StoreAndLoad(t *testing.T) {
	cache, err := NewFileTicketCache(t.TempDir())
	require.NoError(t, err)

	stored := testTicket(12 * time.Hour)
	require.NoError(t, cache.Store(context.Background(), "wsfe", stored))

	loaded, err := cache.Load(context.Background(), "wsfe")
	require.NoError(t, err)
	assert.Equal(t, stored.Token, loaded.Token)
	assert.Equal(t, stored.Sign, loaded.Sign)
	assert.Equal(t, "wsfe", loaded.Service)
	assert.True(t, stored.ExpiresAt.Equal(loaded.ExpiresAt), "el vencimiento debe sobrevivir al round-trip")
}

func TestFileTicketCache_ExpiredTreatedAsMiss(t *testing.T) {
	cache, err := NewFileTicketCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cache.Store(context.Background(), "wsfe", testTicket(-time.Minute)))

	_, err = cache.Load(context.Background(), "wsfe")
	assert.ErrorIs(t, err, domain.ErrTicketNotFound, "un ticket vencido nunca se sirve como válido")
}

func TestFileTicketCache_CorruptFileTreatedAsMiss(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewFileTicketCache(dir)
	require.NoError(t, err)

	// Simula un registro a medio escribir por otro proceso.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "TA-wsfe.xml"), []byte("<loginTicketResp"), 0o644))

	_, err = cache.Load(context.Background(), "wsfe")
	assert.ErrorIs(t, err, domain.ErrTicketNotFound)
}

func TestFileTicketCache_StoreLeavesNoTemporaries(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewFileTicketCache(dir)
	require.NoError(t, err)

	require.NoError(t, cache.Store(context.Background(), "wsfe", testTicket(time.Hour)))
	require.NoError(t, cache.Store(context.Background(), "ws_sr_constancia_inscripcion", testTicket(time.Hour)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, ".xml", filepath.Ext(e.Name()), "no deben quedar temporales: %s", e.Name())
	}
	assert.Len(t, entries, 2)
}

func TestFileTicketCache_ServicesDoNotShareTickets(t *testing.T) {
	cache, err := NewFileTicketCache(t.TempDir())
	require.NoError(t, err)

	wsfe := testTicket(time.Hour)
	require.NoError(t, cache.Store(context.Background(), "wsfe", wsfe))

	_, err = cache.Load(context.Background(), "ws_sr_constancia_inscripcion")
	assert.ErrorIs(t, err, domain.ErrTicketNotFound, "los tickets se cachean por servicio")
}

func TestMemoryTicketCache(t *testing.T) {
	cache := NewMemoryTicketCache()
	ctx := context.Background()

	_, err := cache.Load(ctx, "wsfe")
	assert.ErrorIs(t, err, domain.ErrTicketNotFound)

	require.NoError(t, cache.Store(ctx, "wsfe", testTicket(time.Hour)))
	loaded, err := cache.Load(ctx, "wsfe")
	require.NoError(t, err)
	assert.Equal(t, "token-de-prueba", loaded.Token)

	require.NoError(t, cache.Store(ctx, "wsfe", testTicket(-time.Second)))
	_, err = cache.Load(ctx, "wsfe")
	assert.ErrorIs(t, err, domain.ErrTicketNotFound, "al vencer vuelve a ser miss")
}
