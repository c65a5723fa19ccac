package models

import "time"

// ============================================
// Consent DTOs
// ============================================

type GrantConsentRequest struct {
	Signature     string `json:"signature" binding:"required"`
	TermsAccepted bool   `json:"termsAccepted"`
	// Optional; the server stamps the current terms version when omitted.
	TermsVersion string `json:"termsVersion,omitempty"`
}

type RevokeConsentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ConsentRecordResponse struct {
	ID            string    `json:"id"`
	Action        string    `json:"action"`
	ActorUserID   string    `json:"actorUserId"`
	Signature     *string   `json:"signature,omitempty"`
	TermsAccepted bool      `json:"termsAccepted"`
	TermsVersion  *string   `json:"termsVersion,omitempty"`
	RevokeReason  *string   `json:"revokeReason,omitempty"`
	IPAddress     *string   `json:"ipAddress,omitempty"`
	UserAgent     *string   `json:"userAgent,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
