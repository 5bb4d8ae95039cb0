package domain

import (
	"fmt"
	"strings"
)

// Role enumerates the fixed set of user roles.
type Role string

const (
	RoleCliente       Role = "cliente"
	RoleOperador      Role = "operador"
	RoleAdministrador Role = "administrador"
)

// DefaultRole is the lowest-privilege tier assigned to self-registered and
// federated accounts.
const DefaultRole = RoleCliente

// ParseRole converts a string to a Role.
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleCliente:
		return RoleCliente, nil
	case RoleOperador:
		return RoleOperador, nil
	case RoleAdministrador:
		return RoleAdministrador, nil
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// DocumentType enumerates the accepted identity document kinds.
type DocumentType string

const (
	DocumentCedula          DocumentType = "CEDULA"
	DocumentPasaporte       DocumentType = "PASAPORTE"
	DocumentTarjetaIdentidad DocumentType = "TARJETA_IDENTIDAD"
)

var documentDescriptions = map[DocumentType]string{
	DocumentCedula:           "Cédula de Ciudadanía",
	DocumentPasaporte:        "Pasaporte",
	DocumentTarjetaIdentidad: "Tarjeta de Identidad",
}

// Description returns the human-readable label for the document type.
func (d DocumentType) Description() string {
	return documentDescriptions[d]
}

// ParseDocumentType converts a string to a DocumentType. It accepts either
// the enum name or its description.
func ParseDocumentType(value string) (DocumentType, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("document type is required")
	}

	normalized := DocumentType(strings.ToUpper(trimmed))
	if _, ok := documentDescriptions[normalized]; ok {
		return normalized, nil
	}

	for dt, desc := range documentDescriptions {
		if strings.EqualFold(desc, trimmed) {
			return dt, nil
		}
	}

	return "", fmt.Errorf("invalid document type %q", value)
}

// User mirrors the persisted representation in the users table. An empty
// PasswordHash marks a federated-only account: it can never authenticate
// with a password and is excluded from the password reset flow.
type User struct {
	ID             int64
	FirstName      string
	LastName       string
	SecondLastName string
	DocumentType   DocumentType
	DocumentNumber string
	Email          string
	PasswordHash   string
	Phone          *string
	Role           Role
	IsActive       bool
}

// HasPassword reports whether the account carries a local credential.
func (u User) HasPassword() bool {
	return strings.TrimSpace(u.PasswordHash) != ""
}

// Enabled reports whether the account may authenticate at all.
func (u User) Enabled() bool {
	return u.IsActive
}

// AuthorityLabel returns the role label embedded in issued tokens.
func (u User) AuthorityLabel() string {
	return string(u.Role)
}

// CredentialDigest returns the stored one-way password digest.
func (u User) CredentialDigest() string {
	return u.PasswordHash
}
