package flat

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
)

// On-disk layout: a binary vector file (magic, dimension, count, then
// the float32 arena, little-endian) plus a JSON metadata file holding
// the unit list positionally aligned with the vectors. Both are written
// to temp files and renamed into place, so a crash mid-save never
// corrupts the previous copy.

var indexMagic = [8]byte{'F', 'L', 'A', 'T', 'I', 'D', 'X', '1'}

type metadataFile struct {
	Units  []domain.RetrievalUnit `json:"units"`
	NextID int64                  `json:"next_id"`
}

// Save persists the active snapshot.
func (x *Index) Save() error {
	snap := x.active.Load()

	dir := filepath.Dir(x.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	if err := writeVectorFile(x.path, snap); err != nil {
		return err
	}
	return writeMetadataFile(metadataPath(x.path), snap)
}

// Load reads a persisted index. A missing vector file is ErrIndexNotFound
// so the caller can decide to bootstrap; a missing or misaligned
// metadata file is corruption and is never repaired here.
func Load(path string) (*Index, error) {
	dim, arena, count, err := readVectorFile(path)
	if err != nil {
		return nil, err
	}

	meta, err := readMetadataFile(metadataPath(path))
	if err != nil {
		return nil, err
	}
	if len(meta.Units) != count {
		return nil, domain.WrapError(domain.ErrCorruptedIndex, "load index",
			fmt.Errorf("index/metadata mismatch: %d vectors, %d units", count, len(meta.Units)))
	}

	nextID := meta.NextID
	if nextID <= 0 {
		nextID = int64(count + 1)
	}

	x := &Index{path: path}
	x.active.Store(newSnapshot(dim, arena, meta.Units, nextID))
	return x, nil
}

func metadataPath(path string) string {
	return strings.TrimSuffix(path, ".bin") + "_metadata.json"
}

func writeVectorFile(path string, snap *snapshot) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create vector file: %w", err)
	}

	w := bufio.NewWriter(f)
	writeErr := func() error {
		if _, err := w.Write(indexMagic[:]); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(snap.dim)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(snap.count())); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, snap.arena); err != nil {
			return err
		}
		return w.Flush()
	}()
	if writeErr != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write vector file: %w", writeErr)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close vector file: %w", err)
	}
	return os.Rename(tmp, path)
}

func readVectorFile(path string) (dim int, arena []float32, count int, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil, 0, domain.WrapError(domain.ErrIndexNotFound, "load index", err)
		}
		return 0, nil, 0, fmt.Errorf("open vector file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return 0, nil, 0, domain.WrapError(domain.ErrCorruptedIndex, "load index", err)
	}
	if magic != indexMagic {
		return 0, nil, 0, domain.WrapError(domain.ErrCorruptedIndex, "load index",
			fmt.Errorf("unrecognized vector file header"))
	}

	var dim32 uint32
	var count64 uint64
	if err := binary.Read(r, binary.LittleEndian, &dim32); err != nil {
		return 0, nil, 0, domain.WrapError(domain.ErrCorruptedIndex, "load index", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &count64); err != nil {
		return 0, nil, 0, domain.WrapError(domain.ErrCorruptedIndex, "load index", err)
	}

	// The header is untrusted input. Check dim*count against the actual
	// file size before allocating so a corrupt header cannot trigger a
	// huge or overflowing allocation.
	info, err := f.Stat()
	if err != nil {
		return 0, nil, 0, fmt.Errorf("stat vector file: %w", err)
	}
	const headerLen = int64(len(indexMagic)) + 4 + 8
	payload := info.Size() - headerLen
	if payload < 0 || payload%4 != 0 {
		return 0, nil, 0, domain.WrapError(domain.ErrCorruptedIndex, "load index",
			fmt.Errorf("vector file size %d does not fit the header layout", info.Size()))
	}
	elems := uint64(payload) / 4
	valid := dim32 == 0 && count64 == 0 && elems == 0 ||
		dim32 != 0 && elems%uint64(dim32) == 0 && elems/uint64(dim32) == count64
	if !valid {
		return 0, nil, 0, domain.WrapError(domain.ErrCorruptedIndex, "load index",
			fmt.Errorf("header claims dim=%d count=%d but file holds %d values", dim32, count64, elems))
	}

	dim = int(dim32)
	count = int(count64)
	arena = make([]float32, elems)
	if err := binary.Read(r, binary.LittleEndian, arena); err != nil {
		return 0, nil, 0, domain.WrapError(domain.ErrCorruptedIndex, "load index",
			fmt.Errorf("truncated vector data: %w", err))
	}
	return dim, arena, count, nil
}

func writeMetadataFile(path string, snap *snapshot) error {
	payload, err := json.Marshal(metadataFile{Units: snap.units, NextID: snap.nextID})
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write metadata file: %w", err)
	}
	return os.Rename(tmp, path)
}

func readMetadataFile(path string) (*metadataFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapError(domain.ErrCorruptedIndex, "load index",
				fmt.Errorf("metadata file missing: %s", path))
		}
		return nil, fmt.Errorf("read metadata file: %w", err)
	}

	var meta metadataFile
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, domain.WrapError(domain.ErrCorruptedIndex, "load index",
			fmt.Errorf("decode metadata: %w", err))
	}
	return &meta, nil
}
