package socket

// Broadcaster provides high-level methods for publishing monitoring
// events to the feed. Every method is fire-and-forget: the audit trail of
// record lives in Postgres, this feed only mirrors it.
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// ============================================
// Access decision broadcasting
// ============================================

// BroadcastAccessAttempt publishes one profile switch evaluation to the
// member's household.
func (b *Broadcaster) BroadcastAccessAttempt(householdID string, entry map[string]interface{}) {
	b.hub.SendToHousehold(householdID, MessageAccessAttempt, entry)
}

// ============================================
// Consent lifecycle broadcasting
// ============================================

func (b *Broadcaster) BroadcastConsentGranted(householdID string, payload map[string]interface{}) {
	b.hub.SendToHousehold(householdID, MessageConsentGranted, payload)
}

func (b *Broadcaster) BroadcastConsentRevoked(householdID string, payload map[string]interface{}) {
	b.hub.SendToHousehold(householdID, MessageConsentRevoked, payload)
}

func (b *Broadcaster) BroadcastConsentRenewalDue(householdID string, payload map[string]interface{}) {
	b.hub.SendToHousehold(householdID, MessageConsentRenewalDue, payload)
}

// ============================================
// Member lifecycle broadcasting
// ============================================

func (b *Broadcaster) BroadcastMemberCreated(householdID string, payload map[string]interface{}) {
	b.hub.SendToHousehold(householdID, MessageMemberCreated, payload)
}

func (b *Broadcaster) BroadcastMemberAgeVerified(householdID string, payload map[string]interface{}) {
	b.hub.SendToHousehold(householdID, MessageMemberAgeVerified, payload)
}

func (b *Broadcaster) BroadcastMemberDeactivated(householdID string, payload map[string]interface{}) {
	b.hub.SendToHousehold(householdID, MessageMemberDeactivated, payload)
}

// ============================================
// Operational broadcasting
// ============================================

// BroadcastAuditDegraded tells every connected monitor that access log
// writes are failing and audit entries are being dropped.
func (b *Broadcaster) BroadcastAuditDegraded(droppedTotal int64) {
	b.hub.SendToAll(MessageAuditDegraded, map[string]interface{}{
		"droppedTotal": droppedTotal,
	})
}
