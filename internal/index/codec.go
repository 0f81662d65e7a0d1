package index

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/tagsplorer/tagsplorer/internal/config"
	"github.com/tagsplorer/tagsplorer/internal/engine"
)

// On-disk index format: an optional zlib layer around a length-prefixed
// binary payload with a magic/version header and an xxh3-64 integrity footer.
//
//	"TPIX" | u16 version | uvarint timestamp | uvarint compression |
//	bytes  config body   | strings arena | uvarints parent table |
//	rows   leaves vector | u64 xxh3(payload)
//
// All multi-byte fixed-width fields are little-endian; counts and indices are
// unsigned varints; strings are uvarint-length-prefixed UTF-8.
const (
	indexMagic   = "TPIX"
	indexVersion = 1
)

// ErrCorruptIndex wraps any decode failure. The caller reports it and exits
// non-zero; the user removes the index file and re-crawls.
var ErrCorruptIndex = fmt.Errorf("corrupt index file")

func putUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func putString(buf *bytes.Buffer, s string) {
	putUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

// encode serializes the index into the raw (uncompressed) payload.
func (ix *Index) encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(indexMagic)
	var version [2]byte
	binary.LittleEndian.PutUint16(version[:], indexVersion)
	buf.Write(version[:])

	putUvarint(&buf, uint64(ix.Timestamp))
	putUvarint(&buf, uint64(ix.Compression))

	body, err := ix.Cfg.EncodeBody()
	if err != nil {
		return nil, fmt.Errorf("encode embedded configuration: %w", err)
	}
	putUvarint(&buf, uint64(len(body)))
	buf.Write(body)

	putUvarint(&buf, uint64(len(ix.Arena)))
	for _, name := range ix.Arena {
		putString(&buf, name)
	}
	putUvarint(&buf, uint64(len(ix.Parent)))
	for _, parent := range ix.Parent {
		putUvarint(&buf, uint64(parent))
	}
	putUvarint(&buf, uint64(len(ix.Leaves)))
	for _, row := range ix.Leaves {
		putUvarint(&buf, uint64(len(row)))
		for _, leaf := range row {
			putUvarint(&buf, uint64(leaf))
		}
	}

	var footer [8]byte
	binary.LittleEndian.PutUint64(footer[:], xxh3.Hash(buf.Bytes()))
	buf.Write(footer[:])
	return buf.Bytes(), nil
}

// decoder reads the payload sequentially, remembering the first error.
type decoder struct {
	r   *bytes.Reader
	err error
}

func (d *decoder) uvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, err := binary.ReadUvarint(d.r)
	if err != nil {
		d.err = err
	}
	return v
}

func (d *decoder) bytes(n uint64) []byte {
	if d.err != nil {
		return nil
	}
	if n > uint64(d.r.Len()) {
		d.err = io.ErrUnexpectedEOF
		return nil
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(d.r, out); err != nil {
		d.err = err
		return nil
	}
	return out
}

func (d *decoder) string() string {
	return string(d.bytes(d.uvarint()))
}

// count validates a decoded element count against the bytes left: every
// element occupies at least one byte, so a larger count marks a corrupt
// payload before any oversized allocation happens.
func (d *decoder) count() uint64 {
	n := d.uvarint()
	if d.err == nil && n > uint64(d.r.Len()) {
		d.err = io.ErrUnexpectedEOF
		return 0
	}
	return n
}

// decode replaces the index contents with the deserialized payload.
func (ix *Index) decode(payload []byte) error {
	if len(payload) < len(indexMagic)+2+8 {
		return fmt.Errorf("%w: truncated payload", ErrCorruptIndex)
	}
	body, footer := payload[:len(payload)-8], payload[len(payload)-8:]
	if binary.LittleEndian.Uint64(footer) != xxh3.Hash(body) {
		return fmt.Errorf("%w: checksum mismatch", ErrCorruptIndex)
	}
	if string(body[:len(indexMagic)]) != indexMagic {
		return fmt.Errorf("%w: bad magic", ErrCorruptIndex)
	}
	if v := binary.LittleEndian.Uint16(body[len(indexMagic) : len(indexMagic)+2]); v != indexVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorruptIndex, v)
	}

	d := &decoder{r: bytes.NewReader(body[len(indexMagic)+2:])}
	timestamp := d.uvarint()
	compression := d.uvarint()
	cfgBody := d.bytes(d.uvarint())

	arenaLen := d.count()
	arena := make([]string, 0, arenaLen)
	for i := uint64(0); i < arenaLen && d.err == nil; i++ {
		arena = append(arena, d.string())
	}
	parentLen := d.count()
	parent := make([]int, 0, parentLen)
	for i := uint64(0); i < parentLen && d.err == nil; i++ {
		parent = append(parent, int(d.uvarint()))
	}
	leavesLen := d.count()
	leaves := make([][]int, 0, leavesLen)
	for i := uint64(0); i < leavesLen && d.err == nil; i++ {
		rowLen := d.count()
		var row []int
		for j := uint64(0); j < rowLen && d.err == nil; j++ {
			row = append(row, int(d.uvarint()))
		}
		leaves = append(leaves, row)
	}
	if d.err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptIndex, d.err)
	}
	if parentLen != arenaLen {
		return fmt.Errorf("%w: parent table length %d does not match arena length %d",
			ErrCorruptIndex, parentLen, arenaLen)
	}

	cfg, err := config.DecodeBody(cfgBody)
	if err != nil {
		return fmt.Errorf("%w: embedded configuration: %v", ErrCorruptIndex, err)
	}
	cfg.Timestamp = int64(timestamp)

	ix.Timestamp = int64(timestamp)
	ix.Compression = int(compression)
	ix.Cfg = cfg
	ix.Arena = arena
	ix.Parent = parent
	ix.Leaves = leaves
	ix.allPaths = nil
	ix.rebuildFirstIdx()
	return nil
}

// Store persists the index (and the configuration with the matching
// timestamp) into indexDir. The timestamp is bumped monotonically so it
// always differs from the previous one.
func (ix *Index) Store(indexDir string) error {
	now := time.Now().UnixMilli()
	if now <= ix.Timestamp {
		ix.Timestamp++
	} else {
		ix.Timestamp = now
	}

	payload, err := ix.encode()
	if err != nil {
		return err
	}
	data := payload
	if ix.Compression > 0 {
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, ix.Compression)
		if err != nil {
			return fmt.Errorf("compression level %d: %w", ix.Compression, err)
		}
		if _, err := zw.Write(payload); err != nil {
			return fmt.Errorf("compress index: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("compress index: %w", err)
		}
		data = buf.Bytes()
	}

	path := filepath.Join(indexDir, config.IndexName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write index %s: %w", path, err)
	}
	ix.logger.Info("index stored",
		"path", path,
		"bytes", len(data),
		"entries", len(ix.Arena),
	)

	if err := ix.Cfg.Store(indexDir, ix.Timestamp); err != nil {
		return fmt.Errorf("update configuration timestamp: %w", err)
	}
	return nil
}

// LoadOptions controls freshness handling during Load.
type LoadOptions struct {
	// KeepIndex never rebuilds: a stale index is refused with a stale error
	// instead of being recreated.
	KeepIndex bool

	// Recreate forces a rebuild even when timestamps still match.
	Recreate bool
}

// Load reads the index file from indexDir, verifies it, and transparently
// rebuilds it when the configuration's timestamp disagrees with the embedded
// one; with opts.KeepIndex a stale index is refused instead. The zlib layer
// is probed first; bytes that do not decompress are treated as a raw
// payload.
func (ix *Index) Load(ctx context.Context, indexDir string, opts LoadOptions) error {
	path := filepath.Join(indexDir, config.IndexName)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read index %s: %w", path, err)
	}

	payload := data
	if zr, zerr := zlib.NewReader(bytes.NewReader(data)); zerr == nil {
		if raw, rerr := io.ReadAll(zr); rerr == nil {
			payload = raw
		}
		zr.Close()
	}
	if err := ix.decode(payload); err != nil {
		return engine.NewError(fmt.Sprintf("cannot load index %s, remove it and re-crawl", path), err)
	}
	ix.n.SetCaseSensitive(ix.Cfg.Settings.CaseSensitive)

	cfg := config.New()
	changed, err := cfg.Load(indexDir, ix.Timestamp)
	if err != nil {
		return err
	}
	if (changed || opts.Recreate) && opts.KeepIndex {
		return engine.NewStaleError("index is outdated and --keep-index prevents rebuilding it")
	}
	if changed || opts.Recreate {
		ix.logger.Info("configuration changed, recreating index")
		ix.n.SetCaseSensitive(cfg.Settings.CaseSensitive)
		if err := ix.Walk(ctx, cfg); err != nil {
			return err
		}
		return ix.Store(indexDir)
	}
	return nil
}
