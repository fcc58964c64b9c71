//go:build faiss && cgo
// +build faiss,cgo

package vector

/*
#cgo CFLAGS: -I/opt/homebrew/include -I/usr/local/include
#cgo LDFLAGS: -L/opt/homebrew/lib -L/usr/local/lib -lfaiss_c

#include <stdlib.h>
#include <faiss/c_api/Index_c.h>
#include <faiss/c_api/IndexFlat_c.h>
#include <faiss/c_api/index_io_c.h>
#include <faiss/c_api/error_c.h>
*/
import "C"

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"unsafe"

	"github.com/hyperjump/synergy/internal/models"
)

const faissCompiled = true

// FAISSIndex wraps a FAISS IndexFlatL2 or IndexFlatIP. FAISS labels are store positions,
// since vectors are added once in position order.
type FAISSIndex struct {
	index  *C.FaissIndex
	metric models.Metric
	dim    int
	ids    []string
	// closeMu guards index against Close racing with Query.
	closeMu sync.RWMutex
}

// NewFAISSIndex creates a FAISS flat index for metric and adds every vector of src.
func NewFAISSIndex(src Source, metric models.Metric) (*FAISSIndex, error) {
	dim := src.Dimension()
	if dim <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}

	var index *C.FaissIndex
	var ret C.int
	if metric == models.MetricInnerProduct {
		ret = C.faiss_IndexFlatIP_new_with((**C.FaissIndexFlatIP)(unsafe.Pointer(&index)), C.idx_t(dim))
	} else {
		ret = C.faiss_IndexFlatL2_new_with((**C.FaissIndexFlatL2)(unsafe.Pointer(&index)), C.idx_t(dim))
	}
	if ret != 0 {
		return nil, fmt.Errorf("failed to create FAISS index: %s", faissLastError())
	}

	n := src.Len()
	ids := make([]string, n)
	flat := make([]float32, n*dim)
	for pos := 0; pos < n; pos++ {
		vec := src.Vector(pos)
		if len(vec) != dim {
			C.faiss_Index_free(index)
			return nil, &models.DimensionMismatchError{Got: len(vec), Want: dim}
		}
		copy(flat[pos*dim:(pos+1)*dim], vec)
		ids[pos] = src.ID(pos)
	}
	if n > 0 {
		ret = C.faiss_Index_add(index, C.idx_t(n), (*C.float)(unsafe.Pointer(&flat[0])))
		if ret != 0 {
			C.faiss_Index_free(index)
			return nil, fmt.Errorf("failed to add vectors to FAISS index: %s", faissLastError())
		}
	}

	return &FAISSIndex{index: index, metric: metric, dim: dim, ids: ids}, nil
}

// faissLastError returns the last FAISS error message.
func faissLastError() string {
	cErr := C.faiss_get_last_error()
	if cErr == nil {
		return "unknown error"
	}
	return C.GoString(cErr)
}

// Query searches the whole index and re-sorts so that equal distances keep position order;
// FAISS itself does not guarantee a tie order.
func (f *FAISSIndex) Query(ctx context.Context, vec []float32, k int) ([]Neighbor, error) {
	if err := checkQuery(vec, f.dim); err != nil {
		return nil, err
	}
	k = clampK(k, len(f.ids))
	if k == 0 {
		return nil, nil
	}

	f.closeMu.RLock()
	defer f.closeMu.RUnlock()
	if f.index == nil {
		return nil, fmt.Errorf("FAISS index is closed")
	}

	n := len(f.ids)
	distances := make([]float32, n)
	labels := make([]int64, n)
	ret := C.faiss_Index_search(
		f.index,
		1,
		(*C.float)(unsafe.Pointer(&vec[0])),
		C.idx_t(n),
		(*C.float)(unsafe.Pointer(&distances[0])),
		(*C.idx_t)(unsafe.Pointer(&labels[0])),
	)
	if ret != 0 {
		return nil, fmt.Errorf("FAISS search failed: %s", faissLastError())
	}

	all := make([]Neighbor, 0, n)
	for i, label := range labels {
		if label < 0 || int(label) >= n {
			continue
		}
		d := distances[i]
		if f.metric == models.MetricL2 {
			// IndexFlatL2 reports squared distances.
			d = float32(math.Sqrt(float64(d)))
		}
		all = append(all, Neighbor{ID: f.ids[label], Position: int(label), Distance: d})
	}
	sortNeighbors(all, f.metric)
	if k > len(all) {
		k = len(all)
	}
	return all[:k:k], nil
}

// Metric returns the metric the index ranks by.
func (f *FAISSIndex) Metric() models.Metric { return f.metric }

// Dimension returns the vector dimension.
func (f *FAISSIndex) Dimension() int { return f.dim }

// Size returns the number of vectors.
func (f *FAISSIndex) Size() int { return len(f.ids) }

// Type returns the index type identifier.
func (f *FAISSIndex) Type() string { return string(IndexTypeFAISS) }

// Save writes the native FAISS index to path.
func (f *FAISSIndex) Save(path string) error {
	if path == "" {
		return nil
	}
	f.closeMu.RLock()
	defer f.closeMu.RUnlock()
	if f.index == nil {
		return fmt.Errorf("FAISS index is closed")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	if ret := C.faiss_write_index_fname(f.index, cPath); ret != 0 {
		return fmt.Errorf("failed to save FAISS index: %s", faissLastError())
	}
	return nil
}

// Close frees the FAISS index resources.
func (f *FAISSIndex) Close() error {
	f.closeMu.Lock()
	defer f.closeMu.Unlock()
	if f.index != nil {
		C.faiss_Index_free(f.index)
		f.index = nil
	}
	return nil
}
