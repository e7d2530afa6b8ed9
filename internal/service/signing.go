package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"signapi/internal/lifecycle"
	"signapi/internal/mail"
	"signapi/internal/model"
	"signapi/internal/roles"
	"signapi/internal/storage"
)

func (s *documentService) AddRecipients(ctx context.Context, documentID, actorUserID string, inputs []RecipientInput) ([]model.Recipient, error) {
	doc, err := s.findDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerUserID != actorUserID {
		return nil, &model.PermissionError{Message: "not allowed to modify this document"}
	}
	if doc.Status != model.StatusDraft {
		return nil, model.NewValidationError("DOCUMENT_NOT_DRAFT", "recipients can only be added to a draft")
	}
	if len(inputs) == 0 {
		return nil, model.NewValidationError("NO_RECIPIENTS", "at least one recipient is required")
	}

	rcps := make([]model.Recipient, 0, len(inputs))
	for _, in := range inputs {
		if in.Email == "" {
			return nil, model.NewValidationError("EMAIL_REQUIRED", "recipient email is required")
		}
		if !in.Role.IsValid() {
			return nil, model.NewValidationError("UNKNOWN_ROLE", fmt.Sprintf("unknown recipient role %q", in.Role))
		}
		// Reject auth overrides that would fail at signing time.
		if _, err := s.resolver.Resolve(doc.AuthOptions, in.AuthOptions); err != nil {
			return nil, err
		}

		rcps = append(rcps, model.Recipient{
			ID:           uuid.New().String(),
			DocumentID:   doc.ID,
			Email:        in.Email,
			Name:         in.Name,
			Role:         in.Role,
			Token:        uuid.New().String(),
			AuthOptions:  in.AuthOptions,
			SigningOrder: in.SigningOrder,
		})
	}

	if err := s.recipients.CreateMany(ctx, rcps); err != nil {
		return nil, fmt.Errorf("save recipients: %w", err)
	}
	return rcps, nil
}

func (s *documentService) AddFields(ctx context.Context, documentID, actorUserID string, inputs []FieldInput) ([]model.Field, error) {
	doc, err := s.findDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerUserID != actorUserID {
		return nil, &model.PermissionError{Message: "not allowed to modify this document"}
	}
	if doc.Status != model.StatusDraft {
		return nil, model.NewValidationError("DOCUMENT_NOT_DRAFT", "fields can only be added to a draft")
	}
	if len(inputs) == 0 {
		return nil, model.NewValidationError("NO_FIELDS", "at least one field is required")
	}

	rcps, err := s.recipients.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(rcps))
	for _, r := range rcps {
		known[r.ID] = true
	}

	fields := make([]model.Field, 0, len(inputs))
	for _, in := range inputs {
		if !in.Type.IsValid() {
			return nil, model.NewValidationError("UNKNOWN_FIELD_TYPE", fmt.Sprintf("unknown field type %q", in.Type))
		}
		if !known[in.RecipientID] {
			return nil, model.NewValidationError("UNKNOWN_RECIPIENT", fmt.Sprintf("recipient %s is not on this document", in.RecipientID))
		}
		fields = append(fields, model.Field{
			ID:          uuid.New().String(),
			DocumentID:  doc.ID,
			RecipientID: in.RecipientID,
			Type:        in.Type,
		})
	}

	if err := s.fields.CreateMany(ctx, fields); err != nil {
		return nil, fmt.Errorf("save fields: %w", err)
	}
	return fields, nil
}

func (s *documentService) SendForSigning(ctx context.Context, documentID, actorUserID string) (lifecycle.Result, error) {
	doc, err := s.findDocument(ctx, documentID)
	if err != nil {
		return lifecycle.Result{}, err
	}
	if doc.OwnerUserID != actorUserID {
		return lifecycle.Result{}, &model.PermissionError{Message: "not allowed to send this document"}
	}

	rcps, err := s.recipients.ListByDocument(ctx, doc.ID)
	if err != nil {
		return lifecycle.Result{}, err
	}
	fields, err := s.fields.ListByDocument(ctx, doc.ID)
	if err != nil {
		return lifecycle.Result{}, err
	}

	res, err := lifecycle.SendForSigning(doc.Status, rcps, fields)
	if err != nil {
		return res, err
	}

	if err := s.docs.UpdateStatus(ctx, doc.ID, res.NewStatus); err != nil {
		return lifecycle.Result{}, fmt.Errorf("persist status: %w", err)
	}
	if _, err := s.appendAudit(ctx, doc.ID, model.AuditDocumentSent, nil, actorUserID, "", RequestMeta{}); err != nil {
		return lifecycle.Result{}, err
	}

	// Request emails go out per role; CC recipients only ever receive the
	// completed copy, so they get no request email and no EMAIL_SENT entry.
	for i := range rcps {
		rcp := rcps[i]
		_, wantsEmail, err := roles.RequestEmailType(rcp.Role)
		if err != nil {
			return lifecycle.Result{}, err
		}
		if !wantsEmail {
			continue
		}

		msg, err := s.requestEmail(doc, rcp)
		if err != nil {
			return lifecycle.Result{}, err
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			return lifecycle.Result{}, fmt.Errorf("send request email to %s: %w", rcp.Email, err)
		}
		if _, err := s.appendAudit(ctx, doc.ID, model.AuditEmailSent, &rcp.ID, actorUserID, "", RequestMeta{}); err != nil {
			return lifecycle.Result{}, err
		}
	}

	return res, nil
}

func (s *documentService) OpenByToken(ctx context.Context, token string, meta RequestMeta) (*SigningSession, error) {
	rcp, err := s.findRecipientByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	doc, err := s.findDocument(ctx, rcp.DocumentID)
	if err != nil {
		return nil, err
	}

	derived, err := s.resolver.Resolve(doc.AuthOptions, rcp.AuthOptions)
	if err != nil {
		return nil, err
	}
	if derived.AccessAuth == model.AuthAccount && !meta.Authenticated {
		return nil, &model.PermissionError{Message: "this document requires a signed-in account to view"}
	}

	all, err := s.fields.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	own := make([]model.Field, 0, len(all))
	for _, f := range all {
		if f.RecipientID == rcp.ID {
			own = append(own, f)
		}
	}

	if _, err := s.appendAudit(ctx, doc.ID, model.AuditDocumentOpened, &rcp.ID, rcp.Email, "", meta); err != nil {
		return nil, err
	}

	return &SigningSession{Document: doc, Recipient: rcp, Fields: own}, nil
}

func (s *documentService) CompleteRecipient(ctx context.Context, token string, signature io.Reader, signatureSize int64, meta RequestMeta) (lifecycle.Result, error) {
	rcp, err := s.findRecipientByToken(ctx, token)
	if err != nil {
		return lifecycle.Result{}, err
	}

	// A copy-only recipient has nothing to complete; accepting the request
	// would put a bogus completion row on the certificate.
	required, err := roles.RequiresCompletion(rcp.Role)
	if err != nil {
		return lifecycle.Result{}, err
	}
	if !required {
		return lifecycle.Result{}, model.NewValidationError(
			"ROLE_CANNOT_COMPLETE",
			fmt.Sprintf("role %s only receives a copy and cannot complete the document", rcp.Role),
		)
	}

	doc, err := s.findDocument(ctx, rcp.DocumentID)
	if err != nil {
		return lifecycle.Result{}, err
	}

	// A completion arriving after finalization is tolerated, not rejected:
	// retried deliveries of the same action must not surface as errors.
	if doc.Status == model.StatusCompleted {
		return lifecycle.Result{NewStatus: model.StatusCompleted}, nil
	}
	if doc.Status == model.StatusDraft {
		return lifecycle.Result{NewStatus: doc.Status}, &model.InvalidTransitionError{From: doc.Status, To: model.StatusCompleted}
	}

	derived, err := s.resolver.Resolve(doc.AuthOptions, rcp.AuthOptions)
	if err != nil {
		return lifecycle.Result{}, err
	}
	switch derived.ActionAuth {
	case model.AuthAccount, model.AuthPasskey, model.AuthTwoFactor:
		if !meta.Authenticated {
			return lifecycle.Result{}, &model.PermissionError{
				Message: fmt.Sprintf("signing requires %s authentication", derived.ActionAuth),
			}
		}
	}

	log, err := s.audit.ListByDocument(ctx, doc.ID)
	if err != nil {
		return lifecycle.Result{}, err
	}

	if !lifecycle.IsRecipientComplete(rcp.ID, log) {
		if signature != nil {
			if err := s.storeSignature(ctx, doc.ID, rcp.ID, signature, signatureSize); err != nil {
				return lifecycle.Result{}, err
			}
		}

		reason, err := roles.SigningReason(rcp.Role)
		if err != nil {
			return lifecycle.Result{}, err
		}
		entry, err := s.appendAudit(ctx, doc.ID, model.AuditDocumentRecipientCompleted, &rcp.ID, rcp.Email, reason, meta)
		if err != nil {
			return lifecycle.Result{}, err
		}
		log = append(log, *entry)
	}

	rcps, err := s.recipients.ListByDocument(ctx, doc.ID)
	if err != nil {
		return lifecycle.Result{}, err
	}
	res, err := lifecycle.EvaluateCompletion(doc.Status, rcps, log)
	if err != nil {
		return res, err
	}
	if !res.Transitioned {
		return res, nil
	}

	// Compare-and-swap so two concurrent final completions finalize once.
	// Losing the race is success: the other writer already finalized.
	swapped, err := s.docs.SetStatusIfCurrent(ctx, doc.ID, model.StatusPending, model.StatusCompleted)
	if err != nil {
		return lifecycle.Result{}, fmt.Errorf("finalize status: %w", err)
	}
	if !swapped {
		return lifecycle.Result{NewStatus: model.StatusCompleted}, nil
	}

	if _, err := s.appendAudit(ctx, doc.ID, model.AuditDocumentCompleted, nil, "system", "", RequestMeta{}); err != nil {
		return lifecycle.Result{}, err
	}
	for _, r := range rcps {
		msg := mail.Message{
			To:      r.Email,
			ToName:  r.Name,
			Subject: "Documento completado: " + doc.Title,
			Body: fmt.Sprintf(
				"%s, el documento %q fue completado por todas las partes.\n\nDescarga tu copia aquí: https://%s/sign/%s\n",
				r.Name, doc.Title, s.appHost, r.Token,
			),
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			return lifecycle.Result{}, fmt.Errorf("send completed email to %s: %w", r.Email, err)
		}
	}

	return res, nil
}

// storeSignature uploads the rendered signature image and attaches it to the
// recipient's first signature-capable field.
func (s *documentService) storeSignature(ctx context.Context, documentID, recipientID string, r io.Reader, size int64) error {
	fields, err := s.fields.ListByDocument(ctx, documentID)
	if err != nil {
		return err
	}

	var target *model.Field
	for i := range fields {
		if fields[i].RecipientID == recipientID && fields[i].Type.IsSignatureCapable() {
			target = &fields[i]
			break
		}
	}
	if target == nil {
		return model.NewValidationError("NO_SIGNATURE_FIELD", "recipient has no signature field to attach the image to")
	}

	key := storage.SignatureKey(uuid.New().String() + ".png")
	if _, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: "image/png",
	}); err != nil {
		return fmt.Errorf("upload signature: %w", err)
	}
	return s.fields.SetSignatureImage(ctx, target.ID, key)
}

func (s *documentService) findRecipientByToken(ctx context.Context, token string) (*model.Recipient, error) {
	if token == "" {
		return nil, ErrIDRequired
	}
	rcp, err := s.recipients.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rcp, nil
}
