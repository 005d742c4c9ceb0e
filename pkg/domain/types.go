package domain

import "time"

type JobStatus string

const (
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusError      JobStatus = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Message is one chat message as exported by the client. Date stays the raw
// exported string; parsing happens in the analysis layer.
type Message struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
	Date   string `json:"date,omitempty"`
}

// Job is the ledger record for one analysis request. The plaintext result is
// never stored; EncryptedResult holds the serialized envelope bundle, or
// ResultKey points at it in object storage when offloading is enabled.
type Job struct {
	ID              string     `json:"job_id"`
	Status          JobStatus  `json:"status"`
	PersonName      string     `json:"person_name"`
	Language        string     `json:"language"`
	PublicKey       string     `json:"-"`
	EncryptedResult []byte     `json:"-"`
	ResultKey       string     `json:"-"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}
