package handler

import (
	"context"
	"database/sql"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"signapi/internal/model"
	"signapi/internal/service"
)

// userHeader carries the authenticated user id. Verifying the session and
// stamping the header is the edge proxy's job; the API trusts it.
const (
	userHeader  = "X-User-ID"
	adminHeader = "X-Admin"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// Owner-facing document management
	app.Get("/documents", ListDocuments(docSvc))
	app.Post("/documents", UploadDocument(docSvc))
	app.Get("/documents/:id", GetDocument(docSvc))
	app.Delete("/documents/:id", DeleteDocument(docSvc))
	app.Post("/documents/:id/recipients", AddRecipients(docSvc))
	app.Post("/documents/:id/fields", AddFields(docSvc))
	app.Post("/documents/:id/send", SendDocument(docSvc))
	app.Get("/documents/:id/certificate", GetCertificate(docSvc))

	// Recipient-facing signing surface, addressed by token
	app.Get("/sign/:token", OpenSigning(docSvc))
	app.Post("/sign/:token/complete", CompleteSigning(docSvc))
}

// HealthCheck checks DB connectivity.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness probe.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListDocuments lists the caller's documents with limit & offset.
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := requireUser(c)
		if !ok {
			return nil
		}

		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := docSvc.List(c.UserContext(), userID, limit, offset)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(res)
	}
}

// UploadDocument accepts a multipart upload (field name: file) plus optional
// title and document-wide auth settings.
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := requireUser(c)
		if !ok {
			return nil
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		var authOpts *model.AuthOptions
		access := model.AuthMethod(c.FormValue("access_auth"))
		action := model.AuthMethod(c.FormValue("action_auth"))
		if access != "" || action != "" {
			authOpts = &model.AuthOptions{AccessAuth: access, ActionAuth: action}
		}

		doc, err := docSvc.Upload(c.UserContext(), f, fh.Filename, c.FormValue("title"), userID, ct, fh.Size, authOpts)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument returns a document by ID.
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := requireUser(c)
		if !ok {
			return nil
		}
		id, ok := documentID(c)
		if !ok {
			return nil
		}

		doc, err := docSvc.Get(c.UserContext(), id, userID)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument resolves and executes the deletion branch for the caller.
// The body may carry a reason (admin deletes) and the confirmation phrase
// (cancelling an in-flight document).
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := requireUser(c)
		if !ok {
			return nil
		}
		id, ok := documentID(c)
		if !ok {
			return nil
		}

		req := service.DeleteRequest{}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
			}
		}
		req.ActorUserID = userID
		req.IsAdmin = c.Get(adminHeader) == "true"

		decision, err := docSvc.Delete(c.UserContext(), id, req)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(fiber.Map{"action": decision.Action})
	}
}

// AddRecipients attaches recipients to a draft document.
func AddRecipients(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := requireUser(c)
		if !ok {
			return nil
		}
		id, ok := documentID(c)
		if !ok {
			return nil
		}

		var body struct {
			Recipients []service.RecipientInput `json:"recipients"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		rcps, err := docSvc.AddRecipients(c.UserContext(), id, userID, body.Recipients)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"recipients": rcps})
	}
}

// AddFields places fields on a draft document.
func AddFields(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := requireUser(c)
		if !ok {
			return nil
		}
		id, ok := documentID(c)
		if !ok {
			return nil
		}

		var body struct {
			Fields []service.FieldInput `json:"fields"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}

		fields, err := docSvc.AddFields(c.UserContext(), id, userID, body.Fields)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"fields": fields})
	}
}

// SendDocument performs the DRAFT -> PENDING transition and notifies recipients.
func SendDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := requireUser(c)
		if !ok {
			return nil
		}
		id, ok := documentID(c)
		if !ok {
			return nil
		}

		res, err := docSvc.SendForSigning(c.UserContext(), id, userID)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(res)
	}
}

// GetCertificate returns the signing certificate rows for a document.
func GetCertificate(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := requireUser(c)
		if !ok {
			return nil
		}
		id, ok := documentID(c)
		if !ok {
			return nil
		}

		rows, err := docSvc.Certificate(c.UserContext(), id, userID)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(fiber.Map{"recipients": rows})
	}
}

// OpenSigning resolves a signing token and returns the recipient's session.
func OpenSigning(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := docSvc.OpenByToken(c.UserContext(), c.Params("token"), requestMeta(c))
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(session)
	}
}

// CompleteSigning records the recipient's completion. A rendered signature
// image may be attached as a multipart field named signature.
func CompleteSigning(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sig io.Reader
		var sigSize int64
		if fh, err := c.FormFile("signature"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open signature upload")
			}
			defer f.Close()
			sig = f
			sigSize = fh.Size
		}

		res, err := docSvc.CompleteRecipient(c.UserContext(), c.Params("token"), sig, sigSize, requestMeta(c))
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(res)
	}
}

// requestMeta captures the caller context recorded in audit entries. A
// request counts as authenticated when the edge proxy stamped a user id.
func requestMeta(c *fiber.Ctx) service.RequestMeta {
	return service.RequestMeta{
		IPAddress:     c.IP(),
		UserAgent:     c.Get(fiber.HeaderUserAgent),
		Authenticated: c.Get(userHeader) != "",
	}
}

// requireUser reads the authenticated user id stamped by the edge proxy.
// When the header is missing the 401 is already written and ok is false.
func requireUser(c *fiber.Ctx) (string, bool) {
	userID := c.Get(userHeader)
	if userID == "" {
		_ = writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		return "", false
	}
	return userID, true
}

// documentID validates the :id path param. On a malformed id the 400 is
// already written and ok is false.
func documentID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		return "", false
	}
	return id, true
}
