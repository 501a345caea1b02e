package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CSR status values as reported by the backend
const (
	StatusPending    = "PENDING"
	StatusIssued     = "ISSUED"
	StatusRejected   = "REJECTED"
	StatusProcessing = "PROCESSING"
)

// Revocation reasons with client-side meaning
const (
	ReasonCertificateHold = "certificateHold"
	ReasonRemoveFromCRL   = "removeFromCRL"
)

// RevocationReasons are the CRL reason codes offered when revoking
var RevocationReasons = []string{
	"unspecified",
	"keyCompromise",
	"cACompromise",
	"affiliationChanged",
	"superseded",
	"cessationOfOperation",
	ReasonCertificateHold,
	"privilegeWithdrawn",
	"aACompromise",
}

// Authorities used for client-side gating
const (
	RoleAdmin    = "ROLE_ADMIN"
	RoleRA       = "ROLE_RA"
	RoleRADomain = "ROLE_RA_DOMAIN"
	RoleUser     = "ROLE_USER"
)

// NamedValue is a generic name/value attribute
type NamedValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CSRView is one row of the CSR list
type CSRView struct {
	ID                 int64     `json:"id"`
	CertificateID      int64     `json:"certificateId,omitempty"`
	Status             string    `json:"status"`
	Subject            string    `json:"subject"`
	Sans               string    `json:"sans,omitempty"`
	RequestedOn        time.Time `json:"requestedOn"`
	RequestedBy        string    `json:"requestedBy"`
	PipelineName       string    `json:"pipelineName,omitempty"`
	PipelineID         int64     `json:"pipelineId,omitempty"`
	PipelineType       string    `json:"pipelineType,omitempty"`
	X509KeySpec        string    `json:"x509KeySpec,omitempty"`
	PublicKeyAlgorithm string    `json:"publicKeyAlgorithm,omitempty"`
	SigningAlgorithm   string    `json:"signingAlgorithm,omitempty"`
	KeyLength          int       `json:"keyLength,omitempty"`
	RejectedOn         time.Time `json:"rejectedOn,omitempty"`
	RejectionReason    string    `json:"rejectionReason,omitempty"`
	IsAdministrable    bool      `json:"isAdministrable,omitempty"`
}

// Cell returns the display value of a list column
func (c CSRView) Cell(field string) string {
	switch field {
	case "id":
		return strconv.FormatInt(c.ID, 10)
	case "certificateId":
		return formatID(c.CertificateID)
	case "status":
		return c.Status
	case "subject":
		return c.Subject
	case "sans":
		return c.Sans
	case "requestedOn":
		return FormatDate(c.RequestedOn)
	case "requestedBy":
		return c.RequestedBy
	case "pipelineName":
		return c.PipelineName
	case "pipelineId":
		return formatID(c.PipelineID)
	case "pipelineType":
		return c.PipelineType
	case "x509KeySpec":
		return c.X509KeySpec
	case "publicKeyAlgorithm":
		return c.PublicKeyAlgorithm
	case "signingAlgorithm":
		return c.SigningAlgorithm
	case "keyLength":
		return formatInt(c.KeyLength)
	case "rejectedOn":
		return FormatDate(c.RejectedOn)
	case "rejectionReason":
		return c.RejectionReason
	}
	return ""
}

// RowID returns the identifier used to open the detail view
func (c CSRView) RowID() string { return strconv.FormatInt(c.ID, 10) }

// CertificateView is one row of the certificate list and the certificate detail
type CertificateView struct {
	ID                 int64        `json:"id"`
	CSRID              int64        `json:"csrId,omitempty"`
	Subject            string       `json:"subject"`
	Sans               string       `json:"sans,omitempty"`
	Issuer             string       `json:"issuer"`
	Type               string       `json:"type,omitempty"`
	Serial             string       `json:"serial"`
	ValidFrom          time.Time    `json:"validFrom"`
	ValidTo            time.Time    `json:"validTo"`
	KeyAlgorithm       string       `json:"keyAlgorithm,omitempty"`
	KeyLength          int          `json:"keyLength,omitempty"`
	HashAlgorithm      string       `json:"hashAlgorithm,omitempty"`
	PaddingAlgorithm   string       `json:"paddingAlgorithm,omitempty"`
	SigningAlgorithm   string       `json:"signingAlgorithm,omitempty"`
	Revoked            bool         `json:"revoked"`
	RevokedSince       time.Time    `json:"revokedSince,omitempty"`
	RevocationReason   string       `json:"revocationReason,omitempty"`
	RequestedBy        string       `json:"requestedBy,omitempty"`
	Fingerprint        string       `json:"fingerprint,omitempty"`
	DownloadFilename   string       `json:"downloadFilename,omitempty"`
	CertB64            string       `json:"certB64,omitempty"`
	SelfSigned         bool         `json:"selfsigned,omitempty"`
	Trusted            *bool        `json:"trusted,omitempty"`
	CA                 bool         `json:"ca,omitempty"`
	EndEntity          bool         `json:"endEntity,omitempty"`
	ServersideKeyGen   bool         `json:"serversideKeyGeneration,omitempty"`
	Comment            string       `json:"comment,omitempty"`
	ArArr              []NamedValue `json:"arArr,omitempty"`
	SanArr             []string     `json:"sanArr,omitempty"`
}

// Cell returns the display value of a list column
func (c CertificateView) Cell(field string) string {
	switch field {
	case "id":
		return strconv.FormatInt(c.ID, 10)
	case "subject":
		return c.Subject
	case "sans":
		return c.Sans
	case "issuer":
		return c.Issuer
	case "type":
		return c.Type
	case "serial":
		return c.Serial
	case "validFrom":
		return FormatDate(c.ValidFrom)
	case "validTo":
		return FormatDate(c.ValidTo)
	case "keyAlgorithm":
		return c.KeyAlgorithm
	case "keyLength":
		return formatInt(c.KeyLength)
	case "hashAlgorithm":
		return c.HashAlgorithm
	case "paddingAlgorithm":
		return c.PaddingAlgorithm
	case "revoked":
		return strconv.FormatBool(c.Revoked)
	case "revokedSince":
		return FormatDate(c.RevokedSince)
	case "revocationReason":
		return c.RevocationReason
	}
	return ""
}

// RowID returns the identifier used to open the detail view
func (c CertificateView) RowID() string { return strconv.FormatInt(c.ID, 10) }

// IsTrusted treats a missing trust flag as false
func (c CertificateView) IsTrusted() bool {
	return c.Trusted != nil && *c.Trusted
}

// Validity classifies how close a certificate is to its expiry
type Validity int

const (
	// ValidityNone covers expired, not yet valid and revoked certificates
	ValidityNone Validity = iota
	ValidityOK
	ValidityWarn
	ValidityAlarm
)

// Expiry thresholds in days
const (
	AlarmDays = 10
	WarnDays  = 35
)

// Validity returns the expiry class of the certificate at now
func (c CertificateView) Validity(now time.Time) Validity {
	if c.Revoked || c.ValidTo.IsZero() || !c.ValidTo.After(now) {
		return ValidityNone
	}
	switch {
	case c.ValidTo.Before(now.AddDate(0, 0, AlarmDays)):
		return ValidityAlarm
	case c.ValidTo.Before(now.AddDate(0, 0, WarnDays)):
		return ValidityWarn
	case !c.ValidFrom.After(now):
		return ValidityOK
	}
	return ValidityNone
}

// CSR is the detail view of a certificate signing request
type CSR struct {
	ID              int64        `json:"id"`
	Status          string       `json:"status"`
	Subject         string       `json:"subject"`
	RequestedOn     time.Time    `json:"requestedOn"`
	RequestedBy     string       `json:"requestedBy"`
	PipelineType    string       `json:"pipelineType,omitempty"`
	RejectedOn      time.Time    `json:"rejectedOn,omitempty"`
	RejectionReason string       `json:"rejectionReason,omitempty"`
	PublicKeyAlgo   string       `json:"publicKeyAlgorithm,omitempty"`
	KeyLength       int          `json:"keyLength,omitempty"`
	CertificateID   int64        `json:"certificateId,omitempty"`
	CSRAttributes   []NamedValue `json:"csrAttributes,omitempty"`
	IsAdministrable bool         `json:"isAdministrable,omitempty"`
}

// RequestorComment returns the REQUESTOR_COMMENT attribute, if any
func (c CSR) RequestorComment() string {
	for _, attr := range c.CSRAttributes {
		if attr.Name == "REQUESTOR_COMMENT" {
			return attr.Value
		}
	}
	return ""
}

// ArAttributes returns the additional request attributes, without their _ARA_ prefix
func (c CSR) ArAttributes() []NamedValue {
	result := []NamedValue{}
	for _, attr := range c.CSRAttributes {
		if strings.HasPrefix(attr.Name, "_ARA_") {
			result = append(result, NamedValue{Name: strings.TrimPrefix(attr.Name, "_ARA_"), Value: attr.Value})
		}
	}
	return result
}

// Sans returns the SAN attributes
func (c CSR) Sans() []string {
	var sans []string
	for _, attr := range c.CSRAttributes {
		if attr.Name == "SAN" {
			sans = append(sans, attr.Value)
		}
	}
	return sans
}

// PipelineView is an issuance workflow a CSR can be submitted through
type PipelineView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active,omitempty"`
}

// Account is the logged-in user as reported by the backend
type Account struct {
	Login       string   `json:"login"`
	FirstName   string   `json:"firstName,omitempty"`
	LastName    string   `json:"lastName,omitempty"`
	Email       string   `json:"email,omitempty"`
	LangKey     string   `json:"langKey,omitempty"`
	Authorities []string `json:"authorities"`
}

// HasRole reports whether the account carries the given authority
func (a *Account) HasRole(role string) bool {
	if a == nil {
		return false
	}
	for _, r := range a.Authorities {
		if r == role {
			return true
		}
	}
	return false
}

// CryptoConfigView carries the keystore defaults of the backend
type CryptoConfigView struct {
	DefaultPBEAlgo  string   `json:"defaultPBEAlgo,omitempty"`
	ValidPBEAlgoArr []string `json:"validPBEAlgoArr,omitempty"`
}

// UIConfig is returned by api/ui/config
type UIConfig struct {
	CryptoConfigView *CryptoConfigView `json:"cryptoConfigView,omitempty"`
	AutoSSOLogin     bool              `json:"autoSSOLogin,omitempty"`
	SSOProvider      []string          `json:"ssoProvider,omitempty"`
}

// DefaultPBEAlgo returns the configured PBE algorithm or the fallback
func (u *UIConfig) DefaultPBEAlgo(fallback string) string {
	if u == nil || u.CryptoConfigView == nil || u.CryptoConfigView.DefaultPBEAlgo == "" {
		return fallback
	}
	return u.CryptoConfigView.DefaultPBEAlgo
}

// ProblemDetail is the structured error object returned by the backend
type ProblemDetail struct {
	Type    string            `json:"type,omitempty"`
	Title   string            `json:"title,omitempty"`
	Status  int               `json:"status,omitempty"`
	Detail  string            `json:"detail,omitempty"`
	Message string            `json:"message,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
}

// IsEmpty reports whether no title was set
func (p ProblemDetail) IsEmpty() bool {
	return p.Title == ""
}

// AdministrationType is the kind of administration action
type AdministrationType string

const (
	AdminAccept    AdministrationType = "ACCEPT"
	AdminReject    AdministrationType = "REJECT"
	AdminUpdate    AdministrationType = "UPDATE"
	AdminUpdateCRL AdministrationType = "UPDATE_CRL"
	AdminRevoke    AdministrationType = "REVOKE"
)

// CSRAdministrationData is the payload for CSR actions
type CSRAdministrationData struct {
	CSRID              int64              `json:"csrId"`
	AdministrationType AdministrationType `json:"administrationType"`
	RejectionReason    string             `json:"rejectionReason,omitempty"`
	Comment            string             `json:"comment,omitempty"`
	ArAttributes       []NamedValue       `json:"arAttributes,omitempty"`
}

// CertificateAdministrationData is the payload for certificate actions
type CertificateAdministrationData struct {
	CertificateID      int64              `json:"certificateId"`
	AdministrationType AdministrationType `json:"administrationType"`
	RevocationReason   string             `json:"revocationReason,omitempty"`
	Comment            string             `json:"comment,omitempty"`
	Trusted            bool               `json:"trusted"`
	ArAttributes       []NamedValue       `json:"arAttributes,omitempty"`
}

// FormatDate renders a backend instant for table display
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func formatInt(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%d", n)
}
