package inference

// HWCToCHW re-lays an interleaved three-channel pixel buffer (height, width,
// channel) into planar channel-first order (channel, height, width).
//
// The mapping is CHW[c*H*W + y*W + x] = HWC[(y*W + x)*3 + c].
//
// Arguments:
// - src: Interleaved buffer of length height*width*3.
// - height: Row count.
// - width: Column count.
//
// Returns:
// - []float32: A new planar buffer of the same length.
func HWCToCHW(src []float32, height, width int) []float32 {
	dst := make([]float32, len(src))
	plane := height * width
	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			pixel := (row + x) * 3
			dst[row+x] = src[pixel]
			dst[plane+row+x] = src[pixel+1]
			dst[2*plane+row+x] = src[pixel+2]
		}
	}
	return dst
}

// CHWToHWC is the inverse of HWCToCHW.
func CHWToHWC(src []float32, height, width int) []float32 {
	dst := make([]float32, len(src))
	plane := height * width
	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			pixel := (row + x) * 3
			dst[pixel] = src[row+x]
			dst[pixel+1] = src[plane+row+x]
			dst[pixel+2] = src[2*plane+row+x]
		}
	}
	return dst
}
