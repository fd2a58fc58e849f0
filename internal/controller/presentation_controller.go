package controller

import (
	"io"

	"ai-slidegen-be/internal/dto"
	"ai-slidegen-be/internal/pkg/serverutils"
	"ai-slidegen-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// maxUploadSize caps PDF uploads at 50MB.
const maxUploadSize = 50 << 20

type IPresentationController interface {
	RegisterRoutes(r fiber.Router)
	ProcessDocument(ctx *fiber.Ctx) error
	ProcessReport(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
}

type presentationController struct {
	presentationService service.IPresentationService
}

func NewPresentationController(presentationService service.IPresentationService) IPresentationController {
	return &presentationController{
		presentationService: presentationService,
	}
}

func (c *presentationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/presentation/v1")
	h.Post("process", c.ProcessDocument)
	h.Post("process-report", c.ProcessReport)
	h.Get(":processId/status", c.Status)
}

// ProcessDocument accepts a multipart PDF upload and runs it through the
// whole pipeline. The process_id for the websocket channel comes from the
// process_id form field when the client opened the socket first, otherwise
// the server mints one.
func (c *presentationController) ProcessDocument(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "Missing file upload")
	}
	if fileHeader.Size > maxUploadSize {
		return serverutils.NewAppError(fiber.StatusRequestEntityTooLarge, "File exceeds 50MB limit")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "Cannot read file upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "Cannot read file upload")
	}

	processID := ctx.FormValue("process_id")
	if processID == "" {
		processID = c.presentationService.NewProcessID()
	}

	res, err := c.presentationService.ProcessDocument(ctx.Context(), processID, fileHeader.Filename, data)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success process document", res))
}

// ProcessReport runs the slide pipeline on an already-extracted report,
// skipping OCR.
func (c *presentationController) ProcessReport(ctx *fiber.Ctx) error {
	var req dto.ProcessReportRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	processID := ctx.Query("process_id")
	if processID == "" {
		processID = c.presentationService.NewProcessID()
	}

	res, err := c.presentationService.ProcessReport(ctx.Context(), processID, req.ToReport())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success process report", res))
}

func (c *presentationController) Status(ctx *fiber.Ctx) error {
	processID := ctx.Params("processId")

	res, found := c.presentationService.Status(processID)
	if !found {
		return serverutils.NewAppError(fiber.StatusNotFound, "Process not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show process status", res))
}
