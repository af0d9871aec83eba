package vc

import (
	"encoding/json"
	"time"
)

// ContainerSharingPurpose is the purpose attached to every pod access request.
const ContainerSharingPurpose = "https://utils.we-are-health.be/data/vocab/sharing/container-sharing-purpose#_ContainerSharingPurpose"

// Access modes as they appear in hasConsent.mode.
const (
	ModeRead   = "http://www.w3.org/ns/auth/acl#Read"
	ModeWrite  = "http://www.w3.org/ns/auth/acl#Write"
	ModeAppend = "http://www.w3.org/ns/auth/acl#Append"
)

// Access is the permission triple requested on the target resources.
type Access struct {
	Read   bool `json:"read"`
	Write  bool `json:"write"`
	Append bool `json:"append"`
}

// FullAccess grants read, write and append.
var FullAccess = Access{Read: true, Write: true, Append: true}

// Modes lists the ACL mode IRIs enabled in a.
func (a Access) Modes() []string {
	var modes []string
	if a.Read {
		modes = append(modes, ModeRead)
	}
	if a.Write {
		modes = append(modes, ModeWrite)
	}
	if a.Append {
		modes = append(modes, ModeAppend)
	}
	return modes
}

// Consent is the hasConsent / providedConsent block of an access credential.
type Consent struct {
	// Mode lists the granted ACL modes.
	// Example: ["http://www.w3.org/ns/auth/acl#Read"]
	Mode []string `json:"mode,omitempty"`

	// HasStatus is the consent state.
	// Example: "https://w3id.org/GConsent#ConsentStatusRequested"
	HasStatus string `json:"hasStatus,omitempty"`

	// ForPersonalData lists the resources the consent covers.
	// Example: ["https://pod.example/alice/"]
	ForPersonalData []string `json:"forPersonalData,omitempty"`

	// ForPurpose lists the purposes the data may be used for.
	ForPurpose []string `json:"forPurpose,omitempty"`

	// IsProvidedTo is the WebID of the requester (grants only).
	IsProvidedTo string `json:"isProvidedTo,omitempty"`

	// IsConsentForDataSubject is the WebID of the resource owner.
	IsConsentForDataSubject string `json:"isConsentForDataSubject,omitempty"`
}

// CredentialSubject is the subject of an access request or grant.
type CredentialSubject struct {
	// ID is the WebID of the party the credential is about.
	ID string `json:"id,omitempty"`

	// HasConsent is set on access requests.
	HasConsent *Consent `json:"hasConsent,omitempty"`

	// ProvidedConsent is set on access grants.
	ProvidedConsent *Consent `json:"providedConsent,omitempty"`
}

// Credential holds the fields shared by access requests and access grants.
type Credential struct {
	// ID is the resolvable URL of the credential; it is what gets forwarded
	// to the consent authority (requestVcUrl) or submitted (accessGrantId).
	ID string `json:"id"`

	// Type lists the credential types.
	// Example: ["VerifiableCredential", "SolidAccessRequest"]
	Type []string `json:"type,omitempty"`

	// Issuer is the access grant service that issued the credential.
	Issuer string `json:"issuer,omitempty"`

	IssuanceDate   *time.Time `json:"issuanceDate,omitempty"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`

	CredentialSubject CredentialSubject `json:"credentialSubject"`

	// Proof is kept opaque; verification is the backend's job.
	Proof json.RawMessage `json:"proof,omitempty"`
}

// Expired reports whether the credential has an expiration date at or before now.
func (c Credential) Expired(now time.Time) bool {
	return c.ExpirationDate != nil && !c.ExpirationDate.After(now)
}

func (c Credential) consent() *Consent {
	if c.CredentialSubject.ProvidedConsent != nil {
		return c.CredentialSubject.ProvidedConsent
	}
	return c.CredentialSubject.HasConsent
}

// Resources lists the resources the credential covers.
func (c Credential) Resources() []string {
	if consent := c.consent(); consent != nil {
		return consent.ForPersonalData
	}
	return nil
}

// Modes lists the ACL modes the credential covers.
func (c Credential) Modes() []string {
	if consent := c.consent(); consent != nil {
		return consent.Mode
	}
	return nil
}

// AccessRequest is issued by a requester and approved at the consent authority.
type AccessRequest struct {
	Credential
}

// AccessGrant is the credential produced when the resource owner approves an AccessRequest.
type AccessGrant struct {
	Credential
}

// AccessRequestBody is the payload the backend turns into an AccessRequest.
type AccessRequestBody struct {
	Data           []string  `json:"data"`
	WebID          string    `json:"webId"`
	Purpose        string    `json:"purpose"`
	ExpirationDate time.Time `json:"expirationDate"`
	Access         Access    `json:"access"`
}

// SubmitGrantBody installs an approved grant into the backend session.
type SubmitGrantBody struct {
	AccessGrantID string `json:"accessGrantId"`
}
