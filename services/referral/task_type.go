package referral

// ReferralProcessEarning credits points for a referral event. Enqueued by the
// events endpoint, consumed by the worker on the referral queue.
const ReferralProcessEarning = "referral:process_earning"

// ProcessEarningPayload is the task body. EventID doubles as the journal
// reference, which makes redelivery a no-op.
type ProcessEarningPayload struct {
	EventID        string `json:"event_id"`
	UserID         string `json:"user_id"`
	ReferredUserID string `json:"referred_user_id"`
	Points         int64  `json:"points"`
}
