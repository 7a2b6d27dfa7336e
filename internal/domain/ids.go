package domain

// UserID is the identity-provider-assigned identifier for a user record.
// We model it as an opaque identifier: its format is controlled by the IdP.
type UserID string

// QuestID is an internal identifier for a quest record.
type QuestID string
