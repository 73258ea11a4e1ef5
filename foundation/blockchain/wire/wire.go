// Package wire implements the frames nodes exchange and the length prefixed
// framing used to carry them over a stream connection.
package wire

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ardanlabs/fcoin/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/rlp"
)

// MaxFrameSize is the largest payload accepted from a connection.
const MaxFrameSize = 1 << 20

// prefixLength is the size of the big endian length prefix.
const prefixLength = 4

// ErrFrameSize is returned when a frame exceeds MaxFrameSize.
var ErrFrameSize = errors.New("frame too large")

// =============================================================================

// Kind identifies which variant a frame carries.
type Kind byte

// Set of frame variants.
const (
	KindBlock       Kind = 1
	KindTransaction Kind = 2
)

// String implements the fmt.Stringer interface.
func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindTransaction:
		return "transaction"
	}
	return fmt.Sprintf("kind(%d)", byte(k))
}

// Frame is a tagged value carrying either a block or a transaction.
type Frame struct {
	Kind        Kind
	Block       database.Block
	Transaction database.Transaction
}

// BlockFrame constructs a frame carrying a block.
func BlockFrame(block database.Block) Frame {
	return Frame{Kind: KindBlock, Block: block}
}

// TransactionFrame constructs a frame carrying a transaction.
func TransactionFrame(tx database.Transaction) Frame {
	return Frame{Kind: KindTransaction, Transaction: tx}
}

// Encode produces the payload for a frame: one tag byte followed by the RLP
// encoding of the carried value.
func Encode(f Frame) ([]byte, error) {
	var v any
	switch f.Kind {
	case KindBlock:
		v = f.Block
	case KindTransaction:
		v = f.Transaction
	default:
		return nil, fmt.Errorf("encode: unknown frame %s", f.Kind)
	}

	data, err := rlp.EncodeToBytes(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", f.Kind, err)
	}

	return append([]byte{byte(f.Kind)}, data...), nil
}

// Decode reverses Encode.
func Decode(payload []byte) (Frame, error) {
	if len(payload) == 0 {
		return Frame{}, errors.New("decode: empty frame")
	}

	f := Frame{Kind: Kind(payload[0])}

	var err error
	switch f.Kind {
	case KindBlock:
		err = rlp.DecodeBytes(payload[1:], &f.Block)
	case KindTransaction:
		err = rlp.DecodeBytes(payload[1:], &f.Transaction)
	default:
		return Frame{}, fmt.Errorf("decode: unknown frame %s", f.Kind)
	}

	if err != nil {
		return Frame{}, fmt.Errorf("decode %s: %w", f.Kind, err)
	}

	return f, nil
}

// =============================================================================

// Conn reads and writes length prefixed frames over a stream. Read must be
// called from a single goroutine, Write is safe for concurrent use.
type Conn struct {
	rwc io.ReadWriteCloser
	r   *bufio.Reader
	mu  sync.Mutex
}

// NewConn constructs a frame connection over the stream.
func NewConn(rwc io.ReadWriteCloser) *Conn {
	return &Conn{
		rwc: rwc,
		r:   bufio.NewReader(rwc),
	}
}

// Read blocks until the next frame arrives. io.EOF is returned when the
// remote side closed the stream between frames.
func (c *Conn) Read() (Frame, error) {
	var prefix [prefixLength]byte
	if _, err := io.ReadFull(c.r, prefix[:]); err != nil {
		return Frame{}, err
	}

	size := binary.BigEndian.Uint32(prefix[:])
	if size > MaxFrameSize {
		return Frame{}, fmt.Errorf("read %d bytes: %w", size, ErrFrameSize)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(c.r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.ErrUnexpectedEOF
		}
		return Frame{}, err
	}

	return Decode(payload)
}

// Write sends one frame.
func (c *Conn) Write(f Frame) error {
	payload, err := Encode(f)
	if err != nil {
		return err
	}

	if len(payload) > MaxFrameSize {
		return fmt.Errorf("write %d bytes: %w", len(payload), ErrFrameSize)
	}

	buf := make([]byte, prefixLength, prefixLength+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	buf = append(buf, payload...)

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err = c.rwc.Write(buf)
	return err
}

// Close closes the underlying stream.
func (c *Conn) Close() error {
	return c.rwc.Close()
}
