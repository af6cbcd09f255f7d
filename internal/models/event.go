package models

// AccessEvent is one row of the access log. Rows are immutable once written;
// the store assigns ID and never reuses it.
//
// Timestamp is stored as sortable text ("2006-01-02 15:04:05") in the
// America/Sao_Paulo zone, matching what the store indexes and compares.
type AccessEvent struct {
	ID        int64  `json:"id"`
	UserID    string `json:"user_id"`
	Page      string `json:"page"`
	IP        string `json:"ip"`
	Browser   string `json:"browser"`
	Timestamp string `json:"timestamp"`
}

// AnonUserID marks an unauthenticated visitor. Unique-visitor aggregations
// key anon rows by (ip, browser) instead of user_id.
const AnonUserID = "anon"
