package model

import "time"

// Document is the metadata row for a file held by the document engine.
// EngineID points into the engine and never changes once set; Size tracks the bytes
// stored there at the last successful write.
type Document struct {
	ID        string    `json:"id"`
	EngineID  string    `json:"document_engine_id"`
	Title     string    `json:"title"`
	Filename  string    `json:"filename"`
	FileType  string    `json:"file_type"`
	Size      int64     `json:"file_size"`
	Author    string    `json:"author"`
	OwnerID   string    `json:"owner_id"`
	Owner     *Owner    `json:"owner,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Owner is the public projection of the user owning a document.
type Owner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
