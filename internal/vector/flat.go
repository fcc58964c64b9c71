package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hyperjump/synergy/internal/models"
	"github.com/hyperjump/synergy/pkg/utils"
)

const (
	flatMagic   = "SYNX"
	flatVersion = 1
	// maxIDLen guards against reading a garbage length prefix from a corrupt file.
	maxIDLen = 1 << 16
)

// FlatIndex is an exact brute-force index. It scores every vector on each query.
type FlatIndex struct {
	metric  models.Metric
	dim     int
	ids     []string
	vectors [][]float32
}

// NewFlatIndex builds a flat index over src in position order. Vectors are shared with src,
// which must not change afterwards.
func NewFlatIndex(src Source, metric models.Metric) (*FlatIndex, error) {
	if src.Dimension() <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	idx := &FlatIndex{
		metric:  metric,
		dim:     src.Dimension(),
		ids:     make([]string, src.Len()),
		vectors: make([][]float32, src.Len()),
	}
	for pos := 0; pos < src.Len(); pos++ {
		vec := src.Vector(pos)
		if len(vec) != idx.dim {
			return nil, &models.DimensionMismatchError{Got: len(vec), Want: idx.dim}
		}
		idx.ids[pos] = src.ID(pos)
		idx.vectors[pos] = vec
	}
	return idx, nil
}

// Query returns the k closest vectors to vec, ties broken by ascending position.
func (f *FlatIndex) Query(ctx context.Context, vec []float32, k int) ([]Neighbor, error) {
	if err := checkQuery(vec, f.dim); err != nil {
		return nil, err
	}
	k = clampK(k, len(f.ids))
	if k == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all := make([]Neighbor, len(f.vectors))
	for pos, v := range f.vectors {
		var d float32
		if f.metric == models.MetricInnerProduct {
			d = float32(InnerProduct(vec, v))
		} else {
			d = float32(L2Distance(vec, v))
		}
		all[pos] = Neighbor{ID: f.ids[pos], Position: pos, Distance: d}
	}
	sortNeighbors(all, f.metric)
	return all[:k:k], nil
}

// Metric returns the metric the index ranks by.
func (f *FlatIndex) Metric() models.Metric { return f.metric }

// Dimension returns the vector dimension.
func (f *FlatIndex) Dimension() int { return f.dim }

// Size returns the number of vectors.
func (f *FlatIndex) Size() int { return len(f.ids) }

// Type returns the index type identifier.
func (f *FlatIndex) Type() string { return string(IndexTypeFlat) }

// Close is a no-op for FlatIndex.
func (f *FlatIndex) Close() error { return nil }

// Save persists the index to path. Directory is created if needed. Format (little endian):
// magic "SYNX", version, metric code, dimension, count (all uint32), then per vector:
// idLen (uint32), id bytes, vector (dimension*4 bytes).
func (f *FlatIndex) Save(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if _, err := w.WriteString(flatMagic); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	header := []uint32{flatVersion, metricCode(f.metric), uint32(f.dim), uint32(len(f.ids))}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, id := range f.ids {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(id))); err != nil {
			return fmt.Errorf("write id len: %w", err)
		}
		if _, err := w.WriteString(id); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		if _, err := w.Write(utils.EncodeFloat32s(f.vectors[i])); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush index file: %w", err)
	}
	return file.Close()
}

// LoadFlat reads a prebuilt flat index from path and checks that it matches src: same
// count, same dimension and the same ids in the same order. A missing file is a
// models.LoadError of kind NotFound; any other failure is Corrupt.
func LoadFlat(path string, src Source) (*FlatIndex, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.NotFound(path, err)
		}
		return nil, &models.LoadError{Kind: models.LoadCorrupt, Source: path, Err: err}
	}
	defer file.Close()
	r := bufio.NewReader(file)

	magic := make([]byte, len(flatMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != flatMagic {
		return nil, models.Corrupt(path, "not a flat index file")
	}
	var header [4]uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, models.Corrupt(path, "read header: %v", err)
	}
	version, code, dim, n := header[0], header[1], int(header[2]), int(header[3])
	if version != flatVersion {
		return nil, models.Corrupt(path, "unsupported index version %d", version)
	}
	metric, ok := metricFromCode(code)
	if !ok {
		return nil, models.Corrupt(path, "unknown metric code %d", code)
	}
	if dim != src.Dimension() {
		return nil, models.Corrupt(path, "index dimension %d does not match store dimension %d", dim, src.Dimension())
	}
	if n != src.Len() {
		return nil, models.Corrupt(path, "index holds %d vectors, store holds %d", n, src.Len())
	}

	idx := &FlatIndex{
		metric:  metric,
		dim:     dim,
		ids:     make([]string, n),
		vectors: make([][]float32, n),
	}
	buf := make([]byte, dim*4)
	for pos := 0; pos < n; pos++ {
		var idLen uint32
		if err := binary.Read(r, binary.LittleEndian, &idLen); err != nil {
			return nil, models.Corrupt(path, "read id len: %v", err)
		}
		if idLen > maxIDLen {
			return nil, models.Corrupt(path, "id length %d out of range", idLen)
		}
		id := make([]byte, idLen)
		if _, err := io.ReadFull(r, id); err != nil {
			return nil, models.Corrupt(path, "read id: %v", err)
		}
		if string(id) != src.ID(pos) {
			return nil, models.Corrupt(path, "position %d holds %q, store has %q", pos, id, src.ID(pos))
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, models.Corrupt(path, "read vector: %v", err)
		}
		vec, err := utils.DecodeFloat32s(buf)
		if err != nil {
			return nil, models.Corrupt(path, "decode vector: %v", err)
		}
		idx.ids[pos] = string(id)
		idx.vectors[pos] = vec
	}
	if _, err := r.ReadByte(); err != io.EOF {
		return nil, models.Corrupt(path, "trailing data after %d vectors", n)
	}
	return idx, nil
}

func metricCode(m models.Metric) uint32 {
	if m == models.MetricInnerProduct {
		return 1
	}
	return 0
}

func metricFromCode(c uint32) (models.Metric, bool) {
	switch c {
	case 0:
		return models.MetricL2, true
	case 1:
		return models.MetricInnerProduct, true
	default:
		return "", false
	}
}
