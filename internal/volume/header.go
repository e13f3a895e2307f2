package volume

import (
	"fmt"
	"os"

	"github.com/KyungWonPark/nifti"
)

const (
	headerSize = 348
	voxOffset  = 352

	unitsMask = 0x38
	unitsMsec = 16
	unitsUsec = 24
)

// Datatype codes the nifti reader decodes faithfully. Signed integers are
// read as unsigned by it, so they are refused.
const (
	dtUint8   = 2
	dtFloat32 = 16
	dtFloat64 = 64
	dtUint16  = 512
)

var bitpixOf = map[int16]int16{
	dtUint8:   8,
	dtUint16:  16,
	dtFloat32: 32,
	dtFloat64: 64,
}

// catch runs a nifti call and returns any panic it raises as an error.
func catch(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	f()
	return nil
}

// readHeader loads the header of the .nii or .nii.gz file at path and
// checks it is one the nifti reader can decode. The reader is little-endian
// only, so a big-endian file fails the sizeof_hdr check.
func readHeader(path string) (nifti.Nifti1Header, error) {
	var h nifti.Nifti1Header
	if _, err := os.Stat(path); err != nil {
		return h, fmt.Errorf("%w: %v", ErrInput, err)
	}
	if err := catch(func() { h.LoadHeader(path) }); err != nil {
		return h, fmt.Errorf("%w: %s: %v", ErrInput, path, err)
	}

	switch {
	case h.SizeofHdr != headerSize:
		return h, fmt.Errorf("%w: %s: sizeof_hdr is %d, want little-endian %d", ErrInput, path, h.SizeofHdr, headerSize)
	case h.Dim[0] < 1 || h.Dim[0] > 7:
		return h, fmt.Errorf("%w: %s: dim[0] is %d", ErrInput, path, h.Dim[0])
	case h.VoxOffset < headerSize:
		return h, fmt.Errorf("%w: %s: vox_offset is %g", ErrInput, path, h.VoxOffset)
	}
	for i := 1; i <= int(h.Dim[0]); i++ {
		if h.Dim[i] < 1 {
			return h, fmt.Errorf("%w: %s: dim[%d] is %d", ErrInput, path, i, h.Dim[i])
		}
	}

	bitpix, ok := bitpixOf[h.Datatype]
	if !ok {
		return h, fmt.Errorf("%w: %s: unsupported datatype %d", ErrInput, path, h.Datatype)
	}
	if h.Bitpix != bitpix {
		return h, fmt.Errorf("%w: %s: bitpix %d for datatype %d", ErrInput, path, h.Bitpix, h.Datatype)
	}
	return h, nil
}

// dims returns the x, y, z and t extents. Missing dimensions are 1.
func dims(h nifti.Nifti1Header) [4]int {
	d := [4]int{1, 1, 1, 1}
	for i := 0; i < 4 && i < int(h.Dim[0]); i++ {
		d[i] = int(h.Dim[i+1])
	}
	return d
}

// repetitionTime returns pixdim[4] in seconds.
func repetitionTime(h nifti.Nifti1Header) float64 {
	tr := float64(h.Pixdim[4])
	switch h.XyztUnits & unitsMask {
	case unitsMsec:
		return tr / 1e3
	case unitsUsec:
		return tr / 1e6
	default:
		return tr
	}
}

// scaled applies scl_slope and scl_inter, which the nifti reader ignores.
type scaled struct {
	voxelSource
	slope, inter float32
}

func (s scaled) GetAt(x, y, z, t uint32) float32 {
	return s.voxelSource.GetAt(x, y, z, t)*s.slope + s.inter
}

// withScaling wraps src when h carries a non-identity scaling. A zero
// slope means unscaled.
func withScaling(src voxelSource, h nifti.Nifti1Header) voxelSource {
	if h.SclSlope == 0 || (h.SclSlope == 1 && h.SclInter == 0) {
		return src
	}
	return scaled{voxelSource: src, slope: h.SclSlope, inter: h.SclInter}
}
