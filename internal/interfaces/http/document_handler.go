package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gestionpos/facturacion-api/internal/application/billing"
	"github.com/gestionpos/facturacion-api/internal/application/dto"
	"github.com/gestionpos/facturacion-api/internal/domain/entity"
)

// DocumentHandler maneja el ciclo de vida de documentos (protegido).
type DocumentHandler struct {
	uc  *billing.DocumentUseCase
	pdf *billing.PDFUseCase
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(uc *billing.DocumentUseCase, pdf *billing.PDFUseCase) *DocumentHandler {
	return &DocumentHandler{uc: uc, pdf: pdf}
}

// Create godoc
// @Summary      Crear documento en borrador
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDocumentRequest  true  "Datos del documento"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/documents [post]
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	doc, err := h.uc.CreateDraft(c.UserContext(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toDocumentResponse(doc))
}

// GetByID godoc
// @Summary      Obtener documento
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	doc, err := h.uc.GetDocument(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toDocumentResponse(doc))
}

// List godoc
// @Summary      Listar documentos de la empresa
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {array}  dto.DocumentResponse
// @Router       /api/documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros de paginación inválidos"})
	}
	page.DefaultPage()
	docs, err := h.uc.ListDocuments(c.UserContext(), GetCompanyID(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	return c.JSON(out)
}

// UpdateItems godoc
// @Summary      Reemplazar líneas de un borrador
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del documento"
// @Param        body  body  dto.UpdateDocumentItemsRequest  true  "Nuevas líneas"
// @Success      200   {object}  dto.DocumentResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/items [put]
func (h *DocumentHandler) UpdateItems(c *fiber.Ctx) error {
	var in dto.UpdateDocumentItemsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	doc, err := h.uc.UpdateDraftItems(c.UserContext(), GetCompanyID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toDocumentResponse(doc))
}

// IssueNonFiscal godoc
// @Summary      Emitir como comprobante interno (sin CAE)
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/issue-nonfiscal [post]
func (h *DocumentHandler) IssueNonFiscal(c *fiber.Ctx) error {
	doc, err := h.uc.IssueNonFiscal(c.UserContext(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toDocumentResponse(doc))
}

// IssueFiscal godoc
// @Summary      Emitir como comprobante fiscal (solicita CAE a AFIP)
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      422  {object}  dto.ErrorResponse  "rechazo fiscal con observaciones"
// @Failure      503  {object}  dto.ErrorResponse  "AFIP no disponible"
// @Router       /api/documents/{id}/issue-fiscal [post]
func (h *DocumentHandler) IssueFiscal(c *fiber.Ctx) error {
	doc, err := h.uc.IssueFiscal(c.UserContext(), GetCompanyID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toDocumentResponse(doc))
}

// Void godoc
// @Summary      Anular documento (nota de crédito si era fiscal)
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del documento"
// @Param        body  body  dto.VoidDocumentRequest  true  "Motivo de anulación"
// @Success      200   {object}  dto.DocumentResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/void [post]
func (h *DocumentHandler) Void(c *fiber.Ctx) error {
	var in dto.VoidDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "reason es requerido"})
	}
	doc, err := h.uc.Void(c.UserContext(), GetCompanyID(c), GetUserID(c), c.Params("id"), in.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toDocumentResponse(doc))
}

// DownloadPDF godoc
// @Summary      Descargar la representación gráfica del comprobante
// @Tags         documents
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "ID del documento"
// @Success      200  {file}  binary
// @Failure      400  {object}  dto.ErrorResponse  "borrador sin representación"
// @Router       /api/documents/{id}/pdf [get]
func (h *DocumentHandler) DownloadPDF(c *fiber.Ctx) error {
	pdfBytes, filename, err := h.pdf.DownloadDocumentPDF(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdfBytes)
}

// ── Conversión entidad → DTO ──────────────────────────────────────────────────

func toDocumentResponse(d *entity.Document) dto.DocumentResponse {
	items := make([]dto.DocumentItemResponse, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, dto.DocumentItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Detail:    item.Detail,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			IVARateID: item.IVARateID,
			Exempt:    item.Exempt,
		})
	}
	var levies []dto.LevyLineResponse
	for _, line := range d.Levies {
		levies = append(levies, dto.LevyLineResponse{
			Name:       line.Levy.Name,
			TributeID:  line.Levy.TributeID,
			BaseAmount: line.BaseAmount,
			Amount:     line.Amount,
		})
	}
	return dto.DocumentResponse{
		ID:                   d.ID,
		CompanyID:            d.CompanyID,
		CustomerID:           d.CustomerID,
		Kind:                 d.Kind,
		State:                d.State,
		VoucherType:          d.VoucherType,
		PointOfSale:          d.PointOfSale,
		SequentialNumber:     d.SequentialNumber,
		Concept:              d.Concept,
		IssueDate:            d.IssueDate,
		Currency:             d.Currency,
		CurrencyRate:         d.CurrencyRate,
		GrossAmount:          d.GrossAmount,
		VATAmount:            d.VATAmount,
		ExemptAmount:         d.ExemptAmount,
		LeviesAmount:         d.LeviesAmount,
		TotalAmount:          d.TotalAmount,
		CAE:                  d.CAE,
		CAEExpiration:        d.CAEExpiration,
		AssociatedDocumentID: d.AssociatedDocumentID,
		VoidReason:           d.VoidReason,
		Items:                items,
		Levies:               levies,
	}
}
