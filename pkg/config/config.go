package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App   AppConfig
	DB    DBConfig
	JWT   JWTConfig
	HTTP  HTTPConfig
	AFIP  AFIPConfig
	Redis RedisConfig
}

// AFIPConfig configuración para facturación electrónica AFIP (Argentina).
type AFIPConfig struct {
	CUIT           int64  // CUIT del emisor (sin guiones)
	Environment    string // "produccion" | "homologacion"
	CertPath       string // Ruta al certificado X.509 .pem o bundle .p12
	KeyPath        string // Ruta a la llave privada .pem (vacío si CertPath es .p12)
	KeyPassphrase  string // Passphrase de la llave PEM o password del .p12 (vacío = sin proteger)
	TicketTTL      int    // Vida solicitada del ticket de acceso, en minutos (default 2400)
	TicketCacheDir string // Directorio donde se persisten los tickets WSAA (un XML por servicio)
	PuntoVenta     int    // Punto de venta habilitado en AFIP para este emisor
}

// RedisConfig configuración opcional de Redis (cache de tickets compartida entre instancias).
type RedisConfig struct {
	Addr     string // vacío = usar cache de tickets en archivos
	Password string
	DB       int
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TicketTTLDuration devuelve la vida solicitada del ticket como time.Duration.
func (c AFIPConfig) TicketTTLDuration() time.Duration {
	return time.Duration(c.TicketTTL) * time.Minute
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo .env).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, AFIP_CUIT, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "facturacion-api"),
		},
		DB: DBConfig{
			DatabaseURL: v.GetString("DATABASE_URL"),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    v.GetString("DB_PASSWORD"),
			DBName:      getString(v, "DB_NAME", "facturacion"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("JWT_SECRET"),
			Expiration: getInt(v, "JWT_EXPIRATION", 480),
			Issuer:     getString(v, "JWT_ISSUER", "facturacion-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		AFIP: AFIPConfig{
			CUIT:           v.GetInt64("AFIP_CUIT"),
			Environment:    getString(v, "AFIP_ENV", "homologacion"),
			CertPath:       v.GetString("AFIP_CERT_PATH"),
			KeyPath:        v.GetString("AFIP_KEY_PATH"),
			KeyPassphrase:  v.GetString("AFIP_KEY_PASSPHRASE"),
			TicketTTL:      getInt(v, "AFIP_TICKET_TTL", 2400),
			TicketCacheDir: getString(v, "AFIP_TICKET_CACHE_DIR", "./tickets"),
			PuntoVenta:     getInt(v, "AFIP_PUNTO_VENTA", 1),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       getInt(v, "REDIS_DB", 0),
		},
	}

	if cfg.AFIP.Environment != "produccion" && cfg.AFIP.Environment != "homologacion" {
		return nil, fmt.Errorf("config: AFIP_ENV inválido %q (usar 'produccion' u 'homologacion')", cfg.AFIP.Environment)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("AFIP_ENV", "homologacion")
	v.SetDefault("AFIP_TICKET_TTL", 2400)
}

func getString(v *viper.Viper, key, def string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		if n := v.GetInt(key); n != 0 {
			return n
		}
	}
	return def
}
