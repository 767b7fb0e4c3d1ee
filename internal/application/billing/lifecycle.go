package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gestionpos/facturacion-api/internal/application/dto"
	"github.com/gestionpos/facturacion-api/internal/domain"
	domafip "github.com/gestionpos/facturacion-api/internal/domain/afip"
	"github.com/gestionpos/facturacion-api/internal/domain/entity"
	"github.com/gestionpos/facturacion-api/internal/domain/repository"
	"github.com/gestionpos/facturacion-api/pkg/afip"
	"github.com/gestionpos/facturacion-api/pkg/logger"
)

// DocumentUseCase orquesta el ciclo de vida de documentos de venta/compra:
// borrador, emisión interna o fiscal (con CAE) y anulación con nota de crédito.
// Todo cambio de estado que mueve mercadería registra sus movimientos de stock
// en la misma transacción que el documento.
type DocumentUseCase struct {
	txRunner     TxRunner
	documentRepo repository.DocumentRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	companyRepo  repository.CompanyRepository
	levyRepo     repository.LevyRepository
	authority    InvoiceAuthorizer
	pointOfSale  int
	log          *logger.Logger
}

// NewDocumentUseCase construye el caso de uso.
func NewDocumentUseCase(
	txRunner TxRunner,
	documentRepo repository.DocumentRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	companyRepo repository.CompanyRepository,
	levyRepo repository.LevyRepository,
	authority InvoiceAuthorizer,
	pointOfSale int,
	log *logger.Logger,
) *DocumentUseCase {
	return &DocumentUseCase{
		txRunner:     txRunner,
		documentRepo: documentRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		companyRepo:  companyRepo,
		levyRepo:     levyRepo,
		authority:    authority,
		pointOfSale:  pointOfSale,
		log:          log,
	}
}

// ── Borrador ──────────────────────────────────────────────────────────────────

// CreateDraft crea un documento en borrador. Un borrador no reserva stock ni
// numeración: ambos se asignan recién al emitir.
func (uc *DocumentUseCase) CreateDraft(ctx context.Context, companyID, userID string, in dto.CreateDocumentRequest) (*entity.Document, error) {
	if in.Kind != entity.KindSale && in.Kind != entity.KindPurchase {
		return nil, fmt.Errorf("%w: clase de documento %q", domain.ErrInvalidInput, in.Kind)
	}
	if !afip.ValidVoucherTypes[in.VoucherType] {
		return nil, fmt.Errorf("%w: tipo de comprobante %d", domain.ErrInvalidInput, in.VoucherType)
	}
	if afip.ConceptRequiresServiceDates(in.Concept) && (in.ServiceFrom == nil || in.ServiceTo == nil || in.PaymentDue == nil) {
		return nil, fmt.Errorf("%w: concepto %d exige fechas de servicio y vencimiento de pago", domain.ErrInvalidInput, in.Concept)
	}

	customer, err := uc.customerRepo.GetByID(in.CustomerID)
	if err != nil || customer == nil {
		return nil, domain.ErrNotFound
	}
	if customer.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}

	currency := in.Currency
	if currency == "" {
		currency = afip.CurrencyPeso
	}
	rate := in.CurrencyRate
	if currency == afip.CurrencyPeso {
		rate = decimal.NewFromInt(1)
	}
	if !afip.ValidCurrencyCodes[currency] || !rate.IsPositive() {
		return nil, fmt.Errorf("%w: moneda %q con cotización %s", domain.ErrInvalidInput, currency, rate)
	}

	now := time.Now()
	doc := &entity.Document{
		ID:           uuid.New().String(),
		CompanyID:    companyID,
		CustomerID:   customer.ID,
		Kind:         in.Kind,
		State:        entity.StateDraft,
		VoucherType:  in.VoucherType,
		PointOfSale:  uc.pointOfSale,
		Concept:      in.Concept,
		IssueDate:    now,
		ServiceFrom:  in.ServiceFrom,
		ServiceTo:    in.ServiceTo,
		PaymentDue:   in.PaymentDue,
		Currency:     currency,
		CurrencyRate: rate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.buildItems(doc, companyID, in.Items); err != nil {
		return nil, err
	}
	levies, err := uc.resolveLevies(companyID, in.LevyIDs)
	if err != nil {
		return nil, err
	}
	totals, err := ComputeTotals(doc.Items, levies)
	if err != nil {
		return nil, err
	}
	totals.Apply(doc)
	for _, line := range doc.Levies {
		line.ID = uuid.New().String()
		line.DocumentID = doc.ID
	}

	if err := uc.documentRepo.Create(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateDraftItems reemplaza las líneas de un borrador y recalcula totales.
func (uc *DocumentUseCase) UpdateDraftItems(ctx context.Context, companyID, docID string, in dto.UpdateDocumentItemsRequest) (*entity.Document, error) {
	doc, err := uc.ownedDocument(companyID, docID)
	if err != nil {
		return nil, err
	}
	if !doc.IsEditable() {
		return nil, fmt.Errorf("%w: el documento en estado %s no admite cambios de ítems", domain.ErrInvalidTransition, doc.State)
	}

	doc.Items = nil
	if err := uc.buildItems(doc, companyID, in.Items); err != nil {
		return nil, err
	}
	levies := make([]*entity.Levy, 0, len(doc.Levies))
	for _, line := range doc.Levies {
		levies = append(levies, line.Levy)
	}
	totals, err := ComputeTotals(doc.Items, levies)
	if err != nil {
		return nil, err
	}
	totals.Apply(doc)
	for _, line := range doc.Levies {
		line.ID = uuid.New().String()
		line.DocumentID = doc.ID
	}
	doc.UpdatedAt = time.Now()

	if err := uc.documentRepo.Update(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ── Emisión ───────────────────────────────────────────────────────────────────

// IssueNonFiscal emite un borrador como documento interno sin CAE.
// El stock se mueve en la misma transacción que el cambio de estado.
func (uc *DocumentUseCase) IssueNonFiscal(ctx context.Context, companyID, userID, docID string) (*entity.Document, error) {
	doc, err := uc.ownedDocument(companyID, docID)
	if err != nil {
		return nil, err
	}
	if !doc.CanTransition(entity.StateNonFiscal) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, doc.State, entity.StateNonFiscal)
	}

	err = uc.txRunner.RunBilling(ctx, func(
		docRepo repository.DocumentRepository,
		movementRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		seq, err := docRepo.NextSequential(companyID, doc.VoucherType, doc.PointOfSale)
		if err != nil {
			return err
		}
		doc.SequentialNumber = seq
		if err := doc.TransitionTo(entity.StateNonFiscal); err != nil {
			return err
		}
		if err := uc.applyIssueStock(doc, userID, movementRepo, productRepo); err != nil {
			return err
		}
		return docRepo.Update(doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// IssueFiscal emite un borrador como comprobante fiscal: solicita el CAE y,
// solo con el CAE confirmado, confirma documento y movimientos de stock en una
// transacción. Si AFIP falla o rechaza, el documento queda en borrador intacto.
func (uc *DocumentUseCase) IssueFiscal(ctx context.Context, companyID, userID, docID string) (*entity.Document, error) {
	doc, err := uc.ownedDocument(companyID, docID)
	if err != nil {
		return nil, err
	}
	if !doc.CanTransition(entity.StateFiscal) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, doc.State, entity.StateFiscal)
	}
	company, err := uc.companyRepo.GetByID(companyID)
	if err != nil || company == nil {
		return nil, domain.ErrNotFound
	}
	customer, err := uc.customerRepo.GetByID(doc.CustomerID)
	if err != nil || customer == nil {
		return nil, domain.ErrNotFound
	}

	req := uc.buildInvoiceRequest(doc, customer, nil)
	resp, err := uc.requestCAEWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}

	err = uc.txRunner.RunBilling(ctx, func(
		docRepo repository.DocumentRepository,
		movementRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		doc.SequentialNumber = resp.VoucherNumber
		doc.CAE = resp.CAE
		exp := resp.CAEExpiration
		doc.CAEExpiration = &exp
		if err := doc.TransitionTo(entity.StateFiscal); err != nil {
			return err
		}
		if err := uc.applyIssueStock(doc, userID, movementRepo, productRepo); err != nil {
			return err
		}
		return docRepo.Update(doc)
	})
	if err != nil {
		// El CAE ya fue otorgado: queda trazado para conciliación manual.
		uc.log.Error().
			Str("document_id", doc.ID).
			Str("cae", resp.CAE).
			Int64("voucher_number", resp.VoucherNumber).
			Err(err).
			Msg("billing: CAE otorgado pero la transacción local falló")
		return nil, err
	}

	uc.log.Info().
		Str("document_id", doc.ID).
		Int("voucher_type", doc.VoucherType).
		Int64("voucher_number", doc.SequentialNumber).
		Str("cae", doc.CAE).
		Msg("billing: comprobante fiscal emitido")
	return doc, nil
}

// ── Anulación ─────────────────────────────────────────────────────────────────

// Void anula un documento emitido.
//
// NON_FISCAL pasa a VOIDED con la devolución de stock, sin llamada remota.
// FISCAL exige primero una nota de crédito vinculada con CAE propio; recién con
// esa autorización confirmada el original pasa a VOIDED y el stock vuelve.
// Borradores y anulados rechazan con ErrInvalidTransition.
func (uc *DocumentUseCase) Void(ctx context.Context, companyID, userID, docID, reason string) (*entity.Document, error) {
	doc, err := uc.ownedDocument(companyID, docID)
	if err != nil {
		return nil, err
	}
	if !doc.CanTransition(entity.StateVoided) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, doc.State, entity.StateVoided)
	}

	switch doc.State {
	case entity.StateNonFiscal:
		err = uc.txRunner.RunBilling(ctx, func(
			docRepo repository.DocumentRepository,
			movementRepo repository.StockMovementRepository,
			productRepo repository.ProductRepository,
		) error {
			if err := doc.TransitionTo(entity.StateVoided); err != nil {
				return err
			}
			doc.VoidReason = reason
			if err := uc.applyVoidStock(doc, userID, movementRepo, productRepo); err != nil {
				return err
			}
			return docRepo.Update(doc)
		})
		if err != nil {
			return nil, err
		}
		return doc, nil

	case entity.StateFiscal:
		return uc.voidFiscal(ctx, companyID, userID, doc, reason)

	default:
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, doc.State, entity.StateVoided)
	}
}

// voidFiscal genera la nota de crédito espejo, obtiene su CAE y recién entonces
// anula el original. La nota referencia al padre vía AssociatedDocumentID; el
// padre nunca conoce a la nota.
func (uc *DocumentUseCase) voidFiscal(ctx context.Context, companyID, userID string, original *entity.Document, reason string) (*entity.Document, error) {
	creditType, ok := afip.CreditNoteFor(original.VoucherType)
	if !ok {
		return nil, fmt.Errorf("%w: el comprobante %d no admite nota de crédito", domain.ErrInvalidTransition, original.VoucherType)
	}
	company, err := uc.companyRepo.GetByID(companyID)
	if err != nil || company == nil {
		return nil, domain.ErrNotFound
	}
	customer, err := uc.customerRepo.GetByID(original.CustomerID)
	if err != nil || customer == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	credit := &entity.Document{
		ID:                   uuid.New().String(),
		CompanyID:            original.CompanyID,
		CustomerID:           original.CustomerID,
		Kind:                 original.Kind,
		State:                entity.StateDraft,
		VoucherType:          creditType,
		PointOfSale:          original.PointOfSale,
		Concept:              original.Concept,
		IssueDate:            now,
		ServiceFrom:          original.ServiceFrom,
		ServiceTo:            original.ServiceTo,
		PaymentDue:           original.PaymentDue,
		Currency:             original.Currency,
		CurrencyRate:         original.CurrencyRate,
		GrossAmount:          original.GrossAmount,
		VATAmount:            original.VATAmount,
		ExemptAmount:         original.ExemptAmount,
		LeviesAmount:         original.LeviesAmount,
		TotalAmount:          original.TotalAmount,
		AssociatedDocumentID: &original.ID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	for _, item := range original.Items {
		credit.Items = append(credit.Items, &entity.DocumentItem{
			ID:         uuid.New().String(),
			DocumentID: credit.ID,
			ProductID:  item.ProductID,
			Detail:     item.Detail,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			IVARateID:  item.IVARateID,
			Exempt:     item.Exempt,
		})
	}
	for _, line := range original.Levies {
		credit.Levies = append(credit.Levies, &entity.LevyLine{
			ID:         uuid.New().String(),
			DocumentID: credit.ID,
			Levy:       line.Levy,
			BaseAmount: line.BaseAmount,
			Amount:     line.Amount,
		})
	}

	req := uc.buildInvoiceRequest(credit, customer, &domafip.AssociatedVoucher{
		VoucherType: original.VoucherType,
		PointOfSale: original.PointOfSale,
		Number:      original.SequentialNumber,
		CUIT:        company.CUIT,
		IssueDate:   &original.IssueDate,
	})
	resp, err := uc.requestCAEWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}

	err = uc.txRunner.RunBilling(ctx, func(
		docRepo repository.DocumentRepository,
		movementRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		credit.SequentialNumber = resp.VoucherNumber
		credit.CAE = resp.CAE
		exp := resp.CAEExpiration
		credit.CAEExpiration = &exp
		if err := credit.TransitionTo(entity.StateFiscal); err != nil {
			return err
		}
		if err := docRepo.Create(credit); err != nil {
			return err
		}

		if err := original.TransitionTo(entity.StateVoided); err != nil {
			return err
		}
		original.VoidReason = reason
		if err := uc.applyVoidStock(original, userID, movementRepo, productRepo); err != nil {
			return err
		}
		return docRepo.Update(original)
	})
	if err != nil {
		uc.log.Error().
			Str("document_id", original.ID).
			Str("credit_note_cae", resp.CAE).
			Err(err).
			Msg("billing: CAE de nota de crédito otorgado pero la transacción local falló")
		return nil, err
	}

	uc.log.Info().
		Str("document_id", original.ID).
		Str("credit_note_id", credit.ID).
		Int64("credit_note_number", credit.SequentialNumber).
		Msg("billing: documento fiscal anulado con nota de crédito")
	return original, nil
}

// ── Lectura ───────────────────────────────────────────────────────────────────

// GetDocument devuelve un documento de la empresa.
func (uc *DocumentUseCase) GetDocument(ctx context.Context, companyID, docID string) (*entity.Document, error) {
	return uc.ownedDocument(companyID, docID)
}

// ListDocuments lista documentos de la empresa paginados.
func (uc *DocumentUseCase) ListDocuments(ctx context.Context, companyID string, limit, offset int) ([]*entity.Document, error) {
	return uc.documentRepo.ListByCompany(companyID, limit, offset)
}

// ── Internos ──────────────────────────────────────────────────────────────────

func (uc *DocumentUseCase) ownedDocument(companyID, docID string) (*entity.Document, error) {
	doc, err := uc.documentRepo.GetByID(docID)
	if err != nil || doc == nil {
		return nil, domain.ErrNotFound
	}
	if doc.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return doc, nil
}

// buildItems valida y materializa las líneas contra el catálogo de productos.
func (uc *DocumentUseCase) buildItems(doc *entity.Document, companyID string, items []dto.DocumentItemInput) error {
	for _, in := range items {
		if in.ProductID == "" || in.Quantity <= 0 {
			return fmt.Errorf("%w: línea de documento incompleta", domain.ErrInvalidInput)
		}
		product, err := uc.productRepo.GetByID(in.ProductID)
		if err != nil || product == nil {
			return domain.ErrNotFound
		}
		if product.CompanyID != companyID {
			return domain.ErrForbidden
		}
		price := in.UnitPrice
		if price.IsZero() {
			price = product.Price
		}
		detail := in.Detail
		if detail == "" {
			detail = product.Name
		}
		doc.Items = append(doc.Items, &entity.DocumentItem{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			ProductID:  product.ID,
			Detail:     detail,
			Quantity:   in.Quantity,
			UnitPrice:  price,
			IVARateID:  product.IVARateID,
			Exempt:     in.Exempt,
		})
	}
	return nil
}

func (uc *DocumentUseCase) resolveLevies(companyID string, levyIDs []string) ([]*entity.Levy, error) {
	if len(levyIDs) == 0 {
		return nil, nil
	}
	configured, err := uc.levyRepo.ListByCompany(companyID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Levy, len(configured))
	for _, levy := range configured {
		byID[levy.ID] = levy
	}
	levies := make([]*entity.Levy, 0, len(levyIDs))
	for _, id := range levyIDs {
		levy, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: tributo %s", domain.ErrNotFound, id)
		}
		levies = append(levies, levy)
	}
	return levies, nil
}

// buildInvoiceRequest traduce el documento al pedido normalizado de CAE.
// associated no nil agrega el comprobante original (caso nota de crédito).
func (uc *DocumentUseCase) buildInvoiceRequest(doc *entity.Document, customer *entity.Customer, associated *domafip.AssociatedVoucher) *domafip.InvoiceRequest {
	req := &domafip.InvoiceRequest{
		PointOfSale:      doc.PointOfSale,
		VoucherType:      doc.VoucherType,
		Concept:          doc.Concept,
		BuyerDocType:     customer.DocType,
		BuyerDocNumber:   customer.DocNumber,
		IssueDate:        doc.IssueDate,
		AmountTotal:      doc.TotalAmount,
		AmountNet:        doc.GrossAmount,
		AmountVAT:        doc.VATAmount,
		AmountExempt:     doc.ExemptAmount,
		AmountOtherTaxes: doc.LeviesAmount,
		CurrencyCode:     doc.Currency,
		CurrencyRate:     doc.CurrencyRate,
		ServiceFrom:      doc.ServiceFrom,
		ServiceTo:        doc.ServiceTo,
		PaymentDue:       doc.PaymentDue,
	}

	// Subtotales de IVA por alícuota, recalculados de las líneas para que la
	// identidad de totales cierre exacta contra lo persistido.
	if totals, err := ComputeTotals(doc.Items, nil); err == nil {
		req.VATBreakdown = totals.VATByRate
	}
	for _, line := range doc.Levies {
		req.OtherTaxes = append(req.OtherTaxes, domafip.OtherTax{
			TributeID: line.Levy.TributeID,
			Detail:    line.Levy.Name,
			Base:      line.BaseAmount,
			Rate:      line.Levy.Rate.Mul(decimal.NewFromInt(100)),
			Amount:    line.Amount,
		})
	}
	if associated != nil {
		req.AssociatedVouchers = []domafip.AssociatedVoucher{*associated}
	}
	return req
}

// requestCAEWithRetry pide el CAE reintentando una vez ante conflicto de
// numeración (otra caja tomó el número entre la lectura y el envío).
func (uc *DocumentUseCase) requestCAEWithRetry(ctx context.Context, req *domafip.InvoiceRequest) (*domafip.InvoiceResponse, error) {
	resp, err := uc.authority.RequestCAE(ctx, req, true)
	if errors.Is(err, domain.ErrSequenceConflict) {
		uc.log.Warn().
			Int("point_of_sale", req.PointOfSale).
			Int("voucher_type", req.VoucherType).
			Msg("billing: conflicto de numeración, se relee el último autorizado")
		resp, err = uc.authority.RequestCAE(ctx, req, true)
	}
	return resp, err
}

// applyIssueStock registra los movimientos de la emisión: las ventas sacan
// stock, las compras lo ingresan.
func (uc *DocumentUseCase) applyIssueStock(doc *entity.Document, userID string, movementRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
	direction := entity.MovementOut
	origin := entity.MovementOriginSale
	if doc.Kind == entity.KindPurchase {
		direction = entity.MovementIn
		origin = entity.MovementOriginPurchase
	}
	return uc.applyStock(doc, userID, direction, origin, movementRepo, productRepo)
}

// applyVoidStock revierte los movimientos de la emisión con origen return.
func (uc *DocumentUseCase) applyVoidStock(doc *entity.Document, userID string, movementRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
	direction := entity.MovementIn
	if doc.Kind == entity.KindPurchase {
		direction = entity.MovementOut
	}
	return uc.applyStock(doc, userID, direction, entity.MovementOriginReturn, movementRepo, productRepo)
}

func (uc *DocumentUseCase) applyStock(doc *entity.Document, userID, direction, origin string, movementRepo repository.StockMovementRepository, productRepo repository.ProductRepository) error {
	for _, item := range doc.Items {
		delta := item.Quantity
		if direction == entity.MovementOut {
			delta = -delta
		}
		resulting, err := productRepo.AdjustStock(item.ProductID, delta)
		if err != nil {
			return err
		}
		if resulting < 0 {
			return fmt.Errorf("%w: producto %s", domain.ErrInsufficientStock, item.ProductID)
		}
		movement := &entity.StockMovement{
			ID:             uuid.New().String(),
			CompanyID:      doc.CompanyID,
			ProductID:      item.ProductID,
			Direction:      direction,
			Origin:         origin,
			Quantity:       item.Quantity,
			ResultingStock: resulting,
			DocumentID:     &doc.ID,
			CreatedAt:      time.Now(),
			CreatedBy:      userID,
		}
		if err := movementRepo.Create(movement); err != nil {
			return err
		}
	}
	return nil
}
