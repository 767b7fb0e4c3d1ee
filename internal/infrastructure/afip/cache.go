package afip

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gestionpos/facturacion-api/internal/domain"
)

// TicketCache persiste tickets de acceso por nombre de servicio. Un ticket
// vencido, faltante o corrupto se trata igual: domain.ErrTicketNotFound,
// que dispara una nueva autenticación contra WSAA.
type TicketCache interface {
	Load(ctx context.Context, service string) (*Ticket, error)
	Store(ctx context.Context, service string, ticket *Ticket) error
}

// ── Cache en archivos ─────────────────────────────────────────────────────────

// FileTicketCache guarda un XML por servicio bajo un directorio conocido.
// La escritura es write-then-rename: otros procesos que lean el mismo
// directorio nunca observan un ticket a medio escribir.
type FileTicketCache struct {
	dir string
	now func() time.Time
}

// NewFileTicketCache crea la cache sobre dir (se crea si no existe).
func NewFileTicketCache(dir string) (*FileTicketCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache de tickets: crear directorio %s: %w", dir, err)
	}
	return &FileTicketCache{dir: dir, now: time.Now}, nil
}

// Load lee y parsea el ticket del servicio. Archivo ausente, ilegible o
// vencido -> ErrTicketNotFound (nunca se sirve un ticket vencido).
func (c *FileTicketCache) Load(_ context.Context, service string) (*Ticket, error) {
	data, err := os.ReadFile(c.path(service))
	if err != nil {
		return nil, domain.ErrTicketNotFound
	}
	ticket, err := ParseLoginTicketResponse(data, service)
	if err != nil {
		// Registro corrupto o a medio escribir por otro proceso: cache miss.
		return nil, domain.ErrTicketNotFound
	}
	if !ticket.Valid(c.now()) {
		return nil, domain.ErrTicketNotFound
	}
	return ticket, nil
}

// Store persiste el ticket con reemplazo atómico (tmp + rename).
func (c *FileTicketCache) Store(_ context.Context, service string, ticket *Ticket) error {
	data, err := ticket.MarshalXML()
	if err != nil {
		return fmt.Errorf("cache de tickets: serializar: %w", err)
	}
	dst := c.path(service)
	tmp, err := os.CreateTemp(c.dir, "ta-*.tmp")
	if err != nil {
		return fmt.Errorf("cache de tickets: crear temporal: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("cache de tickets: escribir: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cache de tickets: cerrar temporal: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cache de tickets: renombrar: %w", err)
	}
	return nil
}

func (c *FileTicketCache) path(service string) string {
	// El nombre de servicio AFIP es seguro, pero se sanea por las dudas.
	name := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, strings.ToLower(service))
	return filepath.Join(c.dir, "TA-"+name+".xml")
}

// ── Cache en memoria (tests y procesos efímeros) ──────────────────────────────

// MemoryTicketCache implementación en memoria, segura para concurrencia.
type MemoryTicketCache struct {
	mu      sync.RWMutex
	tickets map[string]*Ticket
	now     func() time.Time
}

// NewMemoryTicketCache crea una cache vacía.
func NewMemoryTicketCache() *MemoryTicketCache {
	return &MemoryTicketCache{tickets: make(map[string]*Ticket), now: time.Now}
}

func (c *MemoryTicketCache) Load(_ context.Context, service string) (*Ticket, error) {
	c.mu.RLock()
	ticket, ok := c.tickets[service]
	c.mu.RUnlock()
	if !ok || !ticket.Valid(c.now()) {
		return nil, domain.ErrTicketNotFound
	}
	return ticket, nil
}

func (c *MemoryTicketCache) Store(_ context.Context, service string, ticket *Ticket) error {
	c.mu.Lock()
	c.tickets[service] = ticket
	c.mu.Unlock()
	return nil
}
