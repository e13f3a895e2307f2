// Package volume reads BOLD series and brain masks from NIfTI-1 files into
// a Dataset and writes voxel weights back as NIfTI volumes.
package volume

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KyungWonPark/Decoding/internal/calc"
	"github.com/KyungWonPark/Decoding/internal/dataset"
	"github.com/KyungWonPark/nifti"
	"github.com/gonum/matrix/mat64"
)

// ErrInput is returned for missing, malformed or mismatched image files.
var ErrInput = errors.New("volume: bad input image")

// Voxel is a position in the image grid.
type Voxel struct {
	X, Y, Z int
}

// voxelSource is the read side of a NIfTI image.
type voxelSource interface {
	GetAt(x, y, z, t uint32) float32
}

// Mapper relates Dataset feature columns to mask voxels.
type Mapper struct {
	// Dims is the x, y, z extent of the mask.
	Dims [3]int
	// Voxels holds the position of every feature column.
	Voxels []Voxel

	header nifti.Nifti1Header
}

// NFeatures returns the number of in-mask voxels.
func (m *Mapper) NFeatures() int { return len(m.Voxels) }

// Load reads the 4D BOLD image at boldPath restricted to the non-zero voxels
// of the 3D mask at maskPath. Both may be gzip-compressed. Row t of the
// result is volume t, with TimeIndex t and TimeCoord t*TR seconds.
func Load(boldPath, maskPath string, pl *calc.PipeLine) (*dataset.Dataset, *Mapper, error) {
	mh, err := readHeader(maskPath)
	if err != nil {
		return nil, nil, err
	}
	md := dims(mh)
	if mh.Dim[0] < 3 || md[3] != 1 {
		return nil, nil, fmt.Errorf("%w: mask %s is not a single 3D volume", ErrInput, maskPath)
	}

	maskImg, err := loadImage(maskPath, 1)
	if err != nil {
		return nil, nil, err
	}
	voxels := maskVoxels(withScaling(maskImg, mh), [3]int{md[0], md[1], md[2]})
	if len(voxels) == 0 {
		return nil, nil, fmt.Errorf("%w: mask %s is empty", ErrInput, maskPath)
	}

	bh, err := readHeader(boldPath)
	if err != nil {
		return nil, nil, err
	}
	bd := dims(bh)
	if bd[0] != md[0] || bd[1] != md[1] || bd[2] != md[2] {
		return nil, nil, fmt.Errorf("%w: bold grid %v does not match mask grid %v", ErrInput, bd[:3], md[:3])
	}
	if bh.Dim[0] < 4 {
		return nil, nil, fmt.Errorf("%w: bold %s is not a time series", ErrInput, boldPath)
	}
	tr := repetitionTime(bh)
	if tr <= 0 {
		return nil, nil, fmt.Errorf("%w: bold %s has TR %g", ErrInput, boldPath, tr)
	}

	boldImg, err := loadImage(boldPath, bd[3])
	if err != nil {
		return nil, nil, err
	}
	samples := fillSamples(withScaling(boldImg, bh), voxels, bd[3], pl)

	attrs := make([]dataset.Sample, bd[3])
	for t := range attrs {
		attrs[t] = dataset.Sample{TimeIndex: t, TimeCoord: float64(t) * tr}
	}

	ds, err := dataset.New(samples, attrs)
	if err != nil {
		return nil, nil, err
	}
	return ds, &Mapper{Dims: [3]int{md[0], md[1], md[2]}, Voxels: voxels, header: mh}, nil
}

// loadImage reads the voxel data at path and checks that it holds at least
// frames volumes, so later GetAt calls stay in range.
func loadImage(path string, frames int) (*nifti.Nifti1Image, error) {
	img := new(nifti.Nifti1Image)
	if err := catch(func() { img.LoadImage(path, true) }); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInput, path, err)
	}
	if got := len(img.GetTimeSeries(0, 0, 0)); got < frames {
		return nil, fmt.Errorf("%w: %s: data holds %d of %d volumes", ErrInput, path, got, frames)
	}
	return img, nil
}

// maskVoxels lists non-zero voxels, x fastest.
func maskVoxels(src voxelSource, dims [3]int) []Voxel {
	var voxels []Voxel
	for z := 0; z < dims[2]; z++ {
		for y := 0; y < dims[1]; y++ {
			for x := 0; x < dims[0]; x++ {
				if src.GetAt(uint32(x), uint32(y), uint32(z), 0) != 0 {
					voxels = append(voxels, Voxel{x, y, z})
				}
			}
		}
	}
	return voxels
}

// fillSamples reads one row per time point, spreading time points over pl.
func fillSamples(src voxelSource, voxels []Voxel, nt int, pl *calc.PipeLine) *mat64.Dense {
	samples := mat64.NewDense(nt, len(voxels), nil)
	pl.Each(nt, func(t int) {
		row := samples.RawRowView(t)
		for i, v := range voxels {
			row[i] = float64(src.GetAt(uint32(v.X), uint32(v.Y), uint32(v.Z), uint32(t)))
		}
	})
	return samples
}

// mapHeader is the mask header turned into a single float32 volume.
func (m *Mapper) mapHeader() nifti.Nifti1Header {
	h := m.header
	h.SizeofHdr = headerSize
	h.Dim[0] = 3
	for i := 4; i < len(h.Dim); i++ {
		h.Dim[i] = 1
	}
	h.Datatype = dtFloat32
	h.Bitpix = bitpixOf[dtFloat32]
	h.VoxOffset = voxOffset
	h.SclSlope = 1
	h.SclInter = 0
	h.Magic = [4]byte{'n', '+', '1', 0}
	return h
}

// WriteMap writes weights, one per mask voxel, into the mask geometry with
// zeros outside the mask. The file is gzip-compressed, so path must end in
// .gz.
func (m *Mapper) WriteMap(path string, weights []float64) error {
	if len(weights) != len(m.Voxels) {
		return fmt.Errorf("volume: %d weights for %d voxels", len(weights), len(m.Voxels))
	}
	if !strings.HasSuffix(path, ".gz") {
		return fmt.Errorf("volume: map %s must have a .gz suffix", path)
	}

	newImg := nifti.NewImg(m.Dims[0], m.Dims[1], m.Dims[2], 1)
	newImg.SetNewHeader(m.mapHeader())
	for i, v := range m.Voxels {
		newImg.SetAt(uint32(v.X), uint32(v.Y), uint32(v.Z), 0, float32(weights[i]))
	}

	// Save appends the .gz itself.
	if err := catch(func() { newImg.Save(strings.TrimSuffix(path, ".gz")) }); err != nil {
		return fmt.Errorf("volume: write %s: %v", path, err)
	}
	return nil
}
