package gpu

// Unique handle of an image owned by a Resources instance.
type ImageID uint32

// Virtual image ids are allocated by task graphs and resolved through a
// resource map at execution time.
const virtualImageBit ImageID = 1 << 31

// Reports whether the id refers to a virtual (unbound) image.
func (id ImageID) Virtual() bool {
	return id&virtualImageBit != 0
}

// A 2-D RGBA render target.
type Image struct {
	id     ImageID
	name   string
	extent [2]uint32
	pix    []byte
}

// Get image id.
func (im *Image) ID() ImageID {
	return im.id
}

// Get image extent as {width, height}.
func (im *Image) Extent() [2]uint32 {
	return im.extent
}

// Get the raw RGBA pixel storage.
func (im *Image) Pix() []byte {
	return im.pix
}

// Clear every pixel to the given RGBA value.
func (im *Image) Clear(r, g, b, a byte) {
	for i := 0; i < len(im.pix); i += 4 {
		im.pix[i] = r
		im.pix[i+1] = g
		im.pix[i+2] = b
		im.pix[i+3] = a
	}
}
