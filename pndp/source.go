package pndp

// Source hands out raw captured frames one at a time.
//
// ReadFrame blocks for at most the source's read timeout. It returns ErrTimeout when nothing
// arrived, io.EOF when the source is exhausted, and any other error when the source failed.
// The returned slice is only valid until the next call.
type Source interface {
	ReadFrame() ([]byte, error)
	Close() error
}
