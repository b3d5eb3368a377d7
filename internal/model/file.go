package model

// FileRecord describes one discoverable file as seen during a scan.
// SHA256 holds a strong content hash, or a "sig:<size>:<mtime_ns>"
// fallback when the file could not be read. A persisted copy lives in
// the files table and is only written by the commit stage.
type FileRecord struct {
	Path          string `json:"path"`
	Bytes         int64  `json:"bytes"`
	MtimeNs       int64  `json:"mtime_ns"`
	SHA256        string `json:"sha256"`
	Mime          string `json:"mime"`
	Ext           string `json:"ext"`
	LastIndexedAt int64  `json:"last_indexed_at,omitempty"`
}
