package models

// Result holds either a value or an error from one task of a batch
type Result[T any] struct {
	Value T
	Err   error
}

// TransferResult is the outcome of one item of a batch download
type TransferResult struct {
	ItemID   string
	Provider string
	Path     string // Empty on failure
	Err      error
}

// OK reports whether the item was saved
func (r TransferResult) OK() bool {
	return r.Err == nil
}
