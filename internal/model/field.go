package model

// FieldType identifies the kind of input a field collects.
type FieldType string

const (
	FieldSignature     FieldType = "SIGNATURE"
	FieldFreeSignature FieldType = "FREE_SIGNATURE"
	FieldName          FieldType = "NAME"
	FieldEmail         FieldType = "EMAIL"
	FieldDate          FieldType = "DATE"
	FieldText          FieldType = "TEXT"
)

// IsValid reports whether t is a known field type.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldSignature, FieldFreeSignature, FieldName, FieldEmail, FieldDate, FieldText:
		return true
	}
	return false
}

// IsSignatureCapable reports whether the field type can carry a signature
// artifact. Send-for-signing requires at least one such field per
// completion-requiring recipient.
func (t FieldType) IsSignatureCapable() bool {
	return t == FieldSignature || t == FieldFreeSignature
}

// Field is a placeholder on the document assigned to one recipient.
type Field struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	RecipientID string    `json:"recipient_id"`
	Type        FieldType `json:"type"`
	// SignatureImagePath is the object-storage key of the rendered signature
	// once the recipient has completed; empty until then.
	SignatureImagePath string `json:"signature_image_path,omitempty"`
}
