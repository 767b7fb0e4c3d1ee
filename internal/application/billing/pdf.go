package billing

import (
	"context"
	"fmt"

	"github.com/gestionpos/facturacion-api/internal/domain"
	"github.com/gestionpos/facturacion-api/internal/domain/entity"
	"github.com/gestionpos/facturacion-api/internal/domain/repository"
)

// DocumentPDFGenerator puerto hacia el renderizador de comprobantes.
type DocumentPDFGenerator interface {
	GenerateDocumentPDF(ctx context.Context, doc *entity.Document, company *entity.Company, customer *entity.Customer) ([]byte, error)
}

// PDFUseCase genera la representación gráfica (PDF) de un documento emitido.
// Un borrador no tiene número asignado, por lo que no tiene representación.
type PDFUseCase struct {
	documentRepo repository.DocumentRepository
	companyRepo  repository.CompanyRepository
	customerRepo repository.CustomerRepository
	generator    DocumentPDFGenerator
}

// NewPDFUseCase construye el caso de uso.
func NewPDFUseCase(
	documentRepo repository.DocumentRepository,
	companyRepo repository.CompanyRepository,
	customerRepo repository.CustomerRepository,
	generator DocumentPDFGenerator,
) *PDFUseCase {
	return &PDFUseCase{
		documentRepo: documentRepo,
		companyRepo:  companyRepo,
		customerRepo: customerRepo,
		generator:    generator,
	}
}

// DownloadDocumentPDF carga el documento con sus datos de emisor y receptor y
// genera el PDF. Devuelve los bytes y un nombre de archivo sugerido.
func (uc *PDFUseCase) DownloadDocumentPDF(ctx context.Context, companyID, documentID string) ([]byte, string, error) {
	doc, err := uc.documentRepo.GetByID(documentID)
	if err != nil || doc == nil {
		return nil, "", domain.ErrNotFound
	}
	if doc.CompanyID != companyID {
		return nil, "", domain.ErrForbidden
	}
	if doc.State == entity.StateDraft {
		return nil, "", fmt.Errorf("%w: un borrador no tiene representación gráfica", domain.ErrInvalidInput)
	}

	company, err := uc.companyRepo.GetByID(companyID)
	if err != nil || company == nil {
		return nil, "", fmt.Errorf("pdf: obtener empresa: %w", err)
	}
	customer, err := uc.customerRepo.GetByID(doc.CustomerID)
	if err != nil || customer == nil {
		return nil, "", fmt.Errorf("pdf: obtener cliente: %w", err)
	}

	pdfBytes, err := uc.generator.GenerateDocumentPDF(ctx, doc, company, customer)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}

	filename := fmt.Sprintf("comprobante_%02d_%05d-%08d.pdf", doc.VoucherType, doc.PointOfSale, doc.SequentialNumber)
	return pdfBytes, filename, nil
}
