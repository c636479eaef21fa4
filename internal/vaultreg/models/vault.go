package models

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/sha3"

	id "aurum/pkg/domain"
	dErrors "aurum/pkg/domain-errors"
)

// Site is a physical storage location operated by a custodian member.
type Site struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Country   string      `json:"country"`
	Operator  id.MemberID `json:"operator"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Vault is a segregated storage unit within a site. Assets reference the
// vault by ID through their current custody status history.
type Vault struct {
	ID        string    `json:"id"`
	SiteID    string    `json:"site_id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentAnchor pins the digest of an off-system document (assay
// certificate, warehouse warrant scan) so its integrity can be re-checked
// later. Only the digest is stored.
type DocumentAnchor struct {
	ID        string     `json:"id"`
	TokenID   id.TokenID `json:"token_id"`
	Kind      string     `json:"kind"`
	Digest    string     `json:"digest"`
	CreatedAt time.Time  `json:"created_at"`
}

// AnchorDigest computes the hex digest stored with a document anchor.
func AnchorDigest(content []byte) string {
	sum := sha3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// VerifyAnchor reports whether content matches the anchored digest.
func (a *DocumentAnchor) VerifyAnchor(content []byte) bool {
	return a.Digest == AnchorDigest(content)
}

func NewSite(siteID, name, country string, operator id.MemberID, now time.Time) (*Site, error) {
	if siteID == "" || name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "site id and name are required")
	}
	if operator.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "operator member is required")
	}
	return &Site{
		ID:        siteID,
		Name:      name,
		Country:   country,
		Operator:  operator,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func NewVault(vaultID, siteID, label string, now time.Time) (*Vault, error) {
	if vaultID == "" || siteID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "vault id and site id are required")
	}
	return &Vault{
		ID:        vaultID,
		SiteID:    siteID,
		Label:     label,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func NewDocumentAnchor(anchorID string, tokenID id.TokenID, kind string, content []byte, now time.Time) (*DocumentAnchor, error) {
	if anchorID == "" || kind == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "anchor id and kind are required")
	}
	if tokenID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "token id is required")
	}
	if len(content) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "document content is required")
	}
	return &DocumentAnchor{
		ID:        anchorID,
		TokenID:   tokenID,
		Kind:      kind,
		Digest:    AnchorDigest(content),
		CreatedAt: now,
	}, nil
}
