package models

import "time"

// ============================================
// Profile switch / access log DTOs
// ============================================

type SwitchProfileResponse struct {
	Token         string               `json:"token"`
	RefreshToken  string               `json:"refreshToken"`
	ActiveProfile FamilyMemberResponse `json:"activeProfile"`
}

// DenialResponse is the typed decision value returned when a switch is
// refused. It is not an error: each reason maps to a distinct remediation
// flow upstream.
type DenialResponse struct {
	Denied bool   `json:"denied"`
	Reason string `json:"reason"`
}

type AccessLogResponse struct {
	ID             string    `json:"id"`
	HouseholdID    string    `json:"householdId"`
	ActorUserID    string    `json:"actorUserId"`
	TargetMemberID string    `json:"targetMemberId"`
	Outcome        string    `json:"outcome"`
	DenialReason   *string   `json:"denialReason,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type AccessLogListResponse struct {
	Entries []AccessLogResponse `json:"entries"`
	Total   int64               `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
}
