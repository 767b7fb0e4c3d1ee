// seedparams carga en la base las tablas de parámetros de AFIP (tipos de
// comprobante, monedas, alícuotas) a partir de los CSV que publica el
// organismo. Los archivos vienen en Windows-1252, no UTF-8.
//
// Uso:
//
//	seedparams -table monedas -file ./Monedas.csv
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/gestionpos/facturacion-api/internal/infrastructure/postgres"
	"github.com/gestionpos/facturacion-api/pkg/config"
	"github.com/gestionpos/facturacion-api/pkg/logger"
)

var allowedTables = map[string]string{
	"comprobantes": "afip_voucher_types",
	"monedas":      "afip_currencies",
	"alicuotas":    "afip_vat_rates",
}

func main() {
	table := flag.String("table", "", "tabla a cargar: comprobantes | monedas | alicuotas")
	file := flag.String("file", "", "CSV descargado de AFIP (Windows-1252, separador ;)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "info"})

	target, ok := allowedTables[*table]
	if !ok || *file == "" {
		fmt.Fprintln(os.Stderr, "uso: seedparams -table {comprobantes|monedas|alicuotas} -file <csv>")
		os.Exit(2)
	}

	rows, err := readAFIPCSV(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("leer CSV")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	inserted := 0
	for _, row := range rows {
		query := fmt.Sprintf(`
			INSERT INTO %s (code, description)
			VALUES ($1, $2)
			ON CONFLICT (code) DO UPDATE SET description = EXCLUDED.description`, target)
		if _, err := pool.Exec(ctx, query, row.code, row.description); err != nil {
			log.Fatal().Err(err).Str("code", row.code).Msg("insertar parámetro")
		}
		inserted++
	}

	log.Info().
		Str("table", target).
		Int("rows", inserted).
		Msg("tabla de parámetros cargada")
}

type paramRow struct {
	code        string
	description string
}

// readAFIPCSV decodifica el CSV de Windows-1252 a UTF-8 y devuelve los pares
// código/descripción. Se espera cabecera en la primera fila.
func readAFIPCSV(path string) ([]paramRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(transform.NewReader(f, charmap.Windows1252.NewDecoder()))
	r.Comma = ';'
	r.FieldsPerRecord = -1

	var rows []paramRow
	first := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsear CSV: %w", err)
		}
		if first {
			first = false
			continue
		}
		if len(record) < 2 {
			continue
		}
		code := strings.TrimSpace(record[0])
		description := strings.TrimSpace(record[1])
		if code == "" {
			continue
		}
		rows = append(rows, paramRow{code: code, description: description})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("el CSV no tiene filas de datos")
	}
	return rows, nil
}
