package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"signapi/internal/certificate"
	"signapi/internal/deletion"
	"signapi/internal/docauth"
	"signapi/internal/lifecycle"
	"signapi/internal/mail"
	"signapi/internal/model"
	"signapi/internal/repository"
	"signapi/internal/roles"
	"signapi/internal/storage"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("document not found")
	ErrReaderNil  = errors.New("reader is nil")
)

// signatureURLExpiry bounds the presigned links embedded in a certificate.
const signatureURLExpiry = 15 * time.Minute

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// RecipientInput describes one recipient to attach to a draft.
type RecipientInput struct {
	Email        string             `json:"email"`
	Name         string             `json:"name"`
	Role         model.Role         `json:"role"`
	AuthOptions  *model.AuthOptions `json:"auth_options,omitempty"`
	SigningOrder int                `json:"signing_order"`
}

// FieldInput describes one field to place on a draft.
type FieldInput struct {
	RecipientID string          `json:"recipient_id"`
	Type        model.FieldType `json:"type"`
}

// RequestMeta carries the caller context recorded in per-recipient audit
// entries and checked against the resolved auth requirement.
// Authenticated is set by the transport once the session has satisfied the
// method the resolver demands; session mechanics live outside this core.
type RequestMeta struct {
	IPAddress     string
	UserAgent     string
	Authenticated bool
}

// DeleteRequest identifies the actor and carries the extra input some
// deletion branches demand.
type DeleteRequest struct {
	ActorUserID  string `json:"-"`
	IsAdmin      bool   `json:"-"`
	Reason       string `json:"reason"`
	Confirmation string `json:"confirmation"`
}

// SigningSession is what a recipient sees after opening their signing link.
type SigningSession struct {
	Document  *model.Document  `json:"document"`
	Recipient *model.Recipient `json:"recipient"`
	Fields    []model.Field    `json:"fields"`
}

// CertificateRow is one projected timeline row plus a presigned link to the
// signature artifact, when one exists.
type CertificateRow struct {
	certificate.RecipientTimeline
	SignatureURL string `json:"signature_url,omitempty"`
}

// DocumentService defines the use cases of the signing workflow.
type DocumentService interface {
	// Upload stores the PDF, creates the document in DRAFT and records the
	// creation in the audit log. Storage is rolled back if the DB save fails.
	Upload(ctx context.Context, r io.Reader, originalFilename, title, ownerUserID, contentType string, size int64, authOpts *model.AuthOptions) (*model.Document, error)

	// Get returns a document visible to the actor.
	Get(ctx context.Context, id, actorUserID string) (*model.Document, error)

	// List returns the actor's visible documents using limit/offset.
	List(ctx context.Context, ownerUserID string, limit, offset int) (*DocumentListResult, error)

	// AddRecipients attaches recipients to a draft and mints their signing
	// tokens.
	AddRecipients(ctx context.Context, documentID, actorUserID string, inputs []RecipientInput) ([]model.Recipient, error)

	// AddFields places fields on a draft.
	AddFields(ctx context.Context, documentID, actorUserID string, inputs []FieldInput) ([]model.Field, error)

	// SendForSigning performs DRAFT -> PENDING and notifies recipients.
	SendForSigning(ctx context.Context, documentID, actorUserID string) (lifecycle.Result, error)

	// OpenByToken resolves a signing token, enforces access auth and records
	// the open.
	OpenByToken(ctx context.Context, token string, meta RequestMeta) (*SigningSession, error)

	// CompleteRecipient records a recipient's completion, stores the rendered
	// signature when provided, and finalizes the document when every required
	// recipient is done.
	CompleteRecipient(ctx context.Context, token string, signature io.Reader, signatureSize int64, meta RequestMeta) (lifecycle.Result, error)

	// Delete resolves and executes the deletion branch for the actor.
	Delete(ctx context.Context, documentID string, req DeleteRequest) (deletion.Decision, error)

	// Certificate builds the signing certificate rows for the document.
	Certificate(ctx context.Context, documentID, actorUserID string) ([]CertificateRow, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store      storage.Storage
	docs       repository.DocumentRepository
	recipients repository.RecipientRepository
	fields     repository.FieldRepository
	audit      repository.AuditLogRepository
	mailer     mail.Mailer
	resolver   *docauth.Resolver
	appHost    string
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(
	store storage.Storage,
	docs repository.DocumentRepository,
	recipients repository.RecipientRepository,
	fields repository.FieldRepository,
	audit repository.AuditLogRepository,
	mailer mail.Mailer,
	resolver *docauth.Resolver,
	appHost string,
) DocumentService {
	return &documentService{
		store:      store,
		docs:       docs,
		recipients: recipients,
		fields:     fields,
		audit:      audit,
		mailer:     mailer,
		resolver:   resolver,
		appHost:    appHost,
	}
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, originalFilename, title, ownerUserID, contentType string, size int64, authOpts *model.AuthOptions) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	if title == "" {
		title = originalFilename
	}

	// Validate the document-wide auth options up front so a bad setting
	// never reaches a signing-time gate.
	if _, err := s.resolver.Resolve(authOpts, nil); err != nil {
		return nil, err
	}

	// Generate object key using UUID + original extension
	ext := filepath.Ext(originalFilename)
	genName := uuid.New().String() + ext
	key := storage.DocumentKey(genName)

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc := &model.Document{
		ID:          uuid.New().String(),
		Title:       title,
		Status:      model.StatusDraft,
		OwnerUserID: ownerUserID,
		StoragePath: objInfo.Key,
		ContentType: objInfo.ContentType,
		Size:        objInfo.Size,
		AuthOptions: authOpts,
		CreatedAt:   time.Now().UTC(),
	}
	stored, err := s.docs.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	if _, err := s.appendAudit(ctx, stored.ID, model.AuditDocumentCreated, nil, ownerUserID, "", RequestMeta{}); err != nil {
		return nil, err
	}

	return stored, nil
}

func (s *documentService) Get(ctx context.Context, id, actorUserID string) (*model.Document, error) {
	doc, err := s.findDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.OwnerUserID != actorUserID {
		return nil, &model.PermissionError{Message: "not allowed to view this document"}
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, ownerUserID string, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.docs.ListByOwner(ctx, ownerUserID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) Delete(ctx context.Context, documentID string, req DeleteRequest) (deletion.Decision, error) {
	doc, err := s.findDocument(ctx, documentID)
	if err != nil {
		return deletion.Decision{}, err
	}

	actor := deletion.Actor{
		IsAdmin:   req.IsAdmin,
		CanManage: doc.OwnerUserID == req.ActorUserID,
	}
	decision, err := deletion.Decide(doc.Status, actor)
	if err != nil {
		return deletion.Decision{}, err
	}

	if decision.RequiresReasonText {
		if err := deletion.ValidateReason(req.Reason); err != nil {
			return decision, err
		}
	}
	if decision.RequiresConfirmationPhrase {
		if err := deletion.ValidateConfirmation(req.Confirmation); err != nil {
			return decision, err
		}
	}

	switch decision.Action {
	case deletion.HardDelete:
		return decision, s.hardDelete(ctx, doc, req)
	case deletion.CancelAndNotify:
		return decision, s.cancelAndNotify(ctx, doc, req)
	case deletion.SoftHide:
		// Only the owner's hide stamps the shared row. Anyone else hides the
		// document from their own view alone; the owner's dashboard and every
		// other viewer never notice.
		if actor.CanManage {
			return decision, s.docs.SoftHide(ctx, doc.ID)
		}
		return decision, s.docs.HideForUser(ctx, doc.ID, req.ActorUserID)
	default:
		return decision, &model.ConfigurationError{Field: "deletion action", Value: string(decision.Action)}
	}
}

// hardDelete destroys the document. The audit entry is written before the
// rows go away; audit entries do not cascade with the document.
func (s *documentService) hardDelete(ctx context.Context, doc *model.Document, req DeleteRequest) error {
	if _, err := s.appendAudit(ctx, doc.ID, model.AuditDocumentDeleted, nil, req.ActorUserID, req.Reason, RequestMeta{}); err != nil {
		return fmt.Errorf("audit delete: %w", err)
	}
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.docs.Delete(ctx, doc.ID)
}

// cancelAndNotify voids an in-flight signing: inserted signatures are
// cleared, every recipient is told, and the document is then destroyed.
func (s *documentService) cancelAndNotify(ctx context.Context, doc *model.Document, req DeleteRequest) error {
	rcps, err := s.recipients.ListByDocument(ctx, doc.ID)
	if err != nil {
		return err
	}

	if err := s.fields.VoidSignatures(ctx, doc.ID); err != nil {
		return fmt.Errorf("void signatures: %w", err)
	}

	if _, err := s.appendAudit(ctx, doc.ID, model.AuditDocumentCancelled, nil, req.ActorUserID, req.Reason, RequestMeta{}); err != nil {
		return fmt.Errorf("audit cancel: %w", err)
	}

	for _, rcp := range rcps {
		msg := mail.Message{
			To:      rcp.Email,
			ToName:  rcp.Name,
			Subject: "Proceso de firma cancelado",
			Body: fmt.Sprintf(
				"El proceso de firma de %q fue cancelado. Todas las firmas insertadas fueron anuladas.",
				doc.Title,
			),
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			return fmt.Errorf("notify %s: %w", rcp.Email, err)
		}
	}

	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.docs.Delete(ctx, doc.ID)
}

func (s *documentService) Certificate(ctx context.Context, documentID, actorUserID string) ([]CertificateRow, error) {
	doc, err := s.findDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerUserID != actorUserID {
		return nil, &model.PermissionError{Message: "not allowed to view this certificate"}
	}

	rcps, err := s.recipients.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	fields, err := s.fields.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	log, err := s.audit.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	timelines, err := certificate.Project(rcps, fields, log, s.resolver, doc.AuthOptions)
	if err != nil {
		return nil, err
	}

	rows := make([]CertificateRow, 0, len(timelines))
	for _, tl := range timelines {
		row := CertificateRow{RecipientTimeline: tl}
		if tl.SignatureImagePath != "" {
			url, err := s.store.PresignGet(ctx, tl.SignatureImagePath, signatureURLExpiry)
			if err != nil {
				return nil, fmt.Errorf("presign signature: %w", err)
			}
			row.SignatureURL = url
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// findDocument maps the repository's sql.ErrNoRows to the service-level
// sentinel.
func (s *documentService) findDocument(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// appendAudit writes one audit log entry.
func (s *documentService) appendAudit(ctx context.Context, documentID string, t model.AuditLogType, recipientID *string, actorID, reason string, meta RequestMeta) (*model.AuditLogEntry, error) {
	entry := &model.AuditLogEntry{
		ID:          uuid.New().String(),
		DocumentID:  documentID,
		Type:        t,
		RecipientID: recipientID,
		ActorID:     actorID,
		Reason:      reason,
		IPAddress:   meta.IPAddress,
		UserAgent:   meta.UserAgent,
		CreatedAt:   time.Now().UTC(),
	}
	return s.audit.Append(ctx, entry)
}

// requestEmail builds the role-specific request email for one recipient.
func (s *documentService) requestEmail(doc *model.Document, rcp model.Recipient) (mail.Message, error) {
	desc, err := roles.Describe(rcp.Role)
	if err != nil {
		return mail.Message{}, err
	}
	return mail.Message{
		To:      rcp.Email,
		ToName:  rcp.Name,
		Subject: fmt.Sprintf("%s: %s", desc.ActionVerb, doc.Title),
		Body: fmt.Sprintf(
			"%s, te invitaron como %s de %q.\n\nAbre el documento aquí: https://%s/sign/%s\n",
			rcp.Name, desc.RoleName, doc.Title, s.appHost, rcp.Token,
		),
	}, nil
}
