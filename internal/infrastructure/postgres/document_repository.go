package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gestionpos/facturacion-api/internal/domain"
	"github.com/gestionpos/facturacion-api/internal/domain/entity"
	"github.com/gestionpos/facturacion-api/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo implementación de DocumentRepository (usable con pool o tx).
// Documento, ítems y tributos aplicados viven en tres tablas; los tributos se
// guardan como snapshot para que un documento emitido no cambie si después se
// reconfigura el tributo.
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

// Create persiste el documento con sus ítems y tributos.
func (r *DocumentRepo) Create(doc *entity.Document) error {
	query := `
		INSERT INTO documents (
			id, company_id, customer_id, kind, state, voucher_type, point_of_sale,
			sequential_number, concept, issue_date, service_from, service_to, payment_due,
			currency, currency_rate, gross_amount, vat_amount, exempt_amount,
			levies_amount, total_amount, cae, cae_expiration, associated_document_id,
			void_reason, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
		)`
	_, err := r.q.Exec(context.Background(), query,
		doc.ID, doc.CompanyID, doc.CustomerID, doc.Kind, doc.State, doc.VoucherType, doc.PointOfSale,
		doc.SequentialNumber, doc.Concept, doc.IssueDate, doc.ServiceFrom, doc.ServiceTo, doc.PaymentDue,
		doc.Currency, doc.CurrencyRate, doc.GrossAmount, doc.VATAmount, doc.ExemptAmount,
		doc.LeviesAmount, doc.TotalAmount, doc.CAE, doc.CAEExpiration, doc.AssociatedDocumentID,
		doc.VoidReason, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert document: %w", err)
	}
	if err := r.insertItems(doc); err != nil {
		return err
	}
	return r.insertLevies(doc)
}

// GetByID obtiene un documento con ítems y tributos.
func (r *DocumentRepo) GetByID(id string) (*entity.Document, error) {
	query := `
		SELECT id, company_id, customer_id, kind, state, voucher_type, point_of_sale,
		       sequential_number, concept, issue_date, service_from, service_to, payment_due,
		       currency, currency_rate, gross_amount, vat_amount, exempt_amount,
		       levies_amount, total_amount, cae, cae_expiration, associated_document_id,
		       void_reason, created_at, updated_at
		FROM documents WHERE id = $1`
	doc, err := r.scanDocument(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	if err := r.loadItems(doc); err != nil {
		return nil, err
	}
	if err := r.loadLevies(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update actualiza el documento y reemplaza ítems y tributos.
// El reemplazo solo ocurre en borradores; un documento emitido ya no cambia de líneas.
func (r *DocumentRepo) Update(doc *entity.Document) error {
	query := `
		UPDATE documents SET
			state = $2, sequential_number = $3, gross_amount = $4, vat_amount = $5,
			exempt_amount = $6, levies_amount = $7, total_amount = $8, cae = $9,
			cae_expiration = $10, void_reason = $11, updated_at = $12
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		doc.ID, doc.State, doc.SequentialNumber, doc.GrossAmount, doc.VATAmount,
		doc.ExemptAmount, doc.LeviesAmount, doc.TotalAmount, doc.CAE,
		doc.CAEExpiration, doc.VoidReason, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if _, err := r.q.Exec(context.Background(), `DELETE FROM document_items WHERE document_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("delete document items: %w", err)
	}
	if _, err := r.q.Exec(context.Background(), `DELETE FROM document_levies WHERE document_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("delete document levies: %w", err)
	}
	if err := r.insertItems(doc); err != nil {
		return err
	}
	return r.insertLevies(doc)
}

// NextSequential incrementa y devuelve el contador local de numeración para
// (tipo de comprobante, punto de venta). Solo informativo en documentos
// fiscales: ahí la numeración la fija AFIP.
func (r *DocumentRepo) NextSequential(companyID string, voucherType, pointOfSale int) (int64, error) {
	query := `
		INSERT INTO voucher_sequences (company_id, voucher_type, point_of_sale, last_number)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (company_id, voucher_type, point_of_sale)
		DO UPDATE SET last_number = voucher_sequences.last_number + 1
		RETURNING last_number`
	var next int64
	err := r.q.QueryRow(context.Background(), query, companyID, voucherType, pointOfSale).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next sequential: %w", err)
	}
	return next, nil
}

// ListByCompany lista documentos de una empresa, más recientes primero.
// Los listados no cargan ítems; el detalle se pide por documento.
func (r *DocumentRepo) ListByCompany(companyID string, limit, offset int) ([]*entity.Document, error) {
	query := `
		SELECT id, company_id, customer_id, kind, state, voucher_type, point_of_sale,
		       sequential_number, concept, issue_date, service_from, service_to, payment_due,
		       currency, currency_rate, gross_amount, vat_amount, exempt_amount,
		       levies_amount, total_amount, cae, cae_expiration, associated_document_id,
		       void_reason, created_at, updated_at
		FROM documents
		WHERE company_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*entity.Document
	for rows.Next() {
		doc, err := r.scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ── Internos ──────────────────────────────────────────────────────────────────

func (r *DocumentRepo) scanDocument(row pgx.Row) (*entity.Document, error) {
	var d entity.Document
	err := row.Scan(
		&d.ID, &d.CompanyID, &d.CustomerID, &d.Kind, &d.State, &d.VoucherType, &d.PointOfSale,
		&d.SequentialNumber, &d.Concept, &d.IssueDate, &d.ServiceFrom, &d.ServiceTo, &d.PaymentDue,
		&d.Currency, &d.CurrencyRate, &d.GrossAmount, &d.VATAmount, &d.ExemptAmount,
		&d.LeviesAmount, &d.TotalAmount, &d.CAE, &d.CAEExpiration, &d.AssociatedDocumentID,
		&d.VoidReason, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &d, nil
}

func (r *DocumentRepo) insertItems(doc *entity.Document) error {
	query := `
		INSERT INTO document_items (id, document_id, product_id, detail, quantity, unit_price, iva_rate_id, exempt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, item := range doc.Items {
		_, err := r.q.Exec(context.Background(), query,
			item.ID, doc.ID, item.ProductID, item.Detail, item.Quantity, item.UnitPrice, item.IVARateID, item.Exempt,
		)
		if err != nil {
			return fmt.Errorf("insert document item: %w", err)
		}
	}
	return nil
}

func (r *DocumentRepo) insertLevies(doc *entity.Document) error {
	query := `
		INSERT INTO document_levies (id, document_id, levy_id, tribute_id, name, base, rate, base_amount, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, line := range doc.Levies {
		_, err := r.q.Exec(context.Background(), query,
			line.ID, doc.ID, line.Levy.ID, line.Levy.TributeID, line.Levy.Name,
			line.Levy.Base, line.Levy.Rate, line.BaseAmount, line.Amount,
		)
		if err != nil {
			return fmt.Errorf("insert document levy: %w", err)
		}
	}
	return nil
}

func (r *DocumentRepo) loadItems(doc *entity.Document) error {
	query := `
		SELECT id, document_id, product_id, detail, quantity, unit_price, iva_rate_id, exempt
		FROM document_items WHERE document_id = $1
		ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, doc.ID)
	if err != nil {
		return fmt.Errorf("load document items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item entity.DocumentItem
		if err := rows.Scan(
			&item.ID, &item.DocumentID, &item.ProductID, &item.Detail,
			&item.Quantity, &item.UnitPrice, &item.IVARateID, &item.Exempt,
		); err != nil {
			return fmt.Errorf("scan document item: %w", err)
		}
		doc.Items = append(doc.Items, &item)
	}
	return rows.Err()
}

func (r *DocumentRepo) loadLevies(doc *entity.Document) error {
	query := `
		SELECT id, document_id, levy_id, tribute_id, name, base, rate, base_amount, amount
		FROM document_levies WHERE document_id = $1
		ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, doc.ID)
	if err != nil {
		return fmt.Errorf("load document levies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line entity.LevyLine
		levy := &entity.Levy{CompanyID: doc.CompanyID}
		if err := rows.Scan(
			&line.ID, &line.DocumentID, &levy.ID, &levy.TributeID, &levy.Name,
			&levy.Base, &levy.Rate, &line.BaseAmount, &line.Amount,
		); err != nil {
			return fmt.Errorf("scan document levy: %w", err)
		}
		line.Levy = levy
		doc.Levies = append(doc.Levies, &line)
	}
	return rows.Err()
}
