package afip

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gestionpos/facturacion-api/internal/domain"
)

// RedisTicketCache cache de tickets compartida entre instancias vía Redis.
// La clave expira junto con el ticket, así Redis descarta solo los vencidos.
type RedisTicketCache struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisTicketCache crea la cache sobre un cliente Redis ya configurado.
func NewRedisTicketCache(rdb *redis.Client) *RedisTicketCache {
	return &RedisTicketCache{rdb: rdb, now: time.Now}
}

func ticketKey(service string) string {
	return "afip:ta:" + service
}

func (c *RedisTicketCache) Load(ctx context.Context, service string) (*Ticket, error) {
	data, err := c.rdb.Get(ctx, ticketKey(service)).Bytes()
	if err != nil {
		// redis.Nil (miss) y errores de conexión se tratan igual: re-autenticar.
		return nil, domain.ErrTicketNotFound
	}
	ticket, err := ParseLoginTicketResponse(data, service)
	if err != nil {
		return nil, domain.ErrTicketNotFound
	}
	if !ticket.Valid(c.now()) {
		return nil, domain.ErrTicketNotFound
	}
	return ticket, nil
}

func (c *RedisTicketCache) Store(ctx context.Context, service string, ticket *Ticket) error {
	data, err := ticket.MarshalXML()
	if err != nil {
		return fmt.Errorf("cache redis: serializar ticket: %w", err)
	}
	ttl := time.Until(ticket.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("cache redis: el ticket ya está vencido")
	}
	if err := c.rdb.Set(ctx, ticketKey(service), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache redis: guardar ticket: %w", err)
	}
	return nil
}
