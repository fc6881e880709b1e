package jpegengine

import "sort"

// JPEG markers the header walk cares about.
const (
	markerSOF0  = 0xC0 // Baseline DCT
	markerSOF1  = 0xC1 // Extended sequential DCT
	markerSOF2  = 0xC2 // Progressive DCT
	markerDHT   = 0xC4
	markerDAC   = 0xCC
	markerRST0  = 0xD0
	markerRST7  = 0xD7
	markerSOI   = 0xD8
	markerEOI   = 0xD9
	markerSOS   = 0xDA
	markerDQT   = 0xDB
	markerDNL   = 0xDC
	markerDRI   = 0xDD
	markerAPP0  = 0xE0
	markerAPP1  = 0xE1
	markerAPP2  = 0xE2
	markerAPP14 = 0xEE
	markerAPP15 = 0xEF
	markerJPG0  = 0xF0
	markerJPG13 = 0xFD
	markerCOM   = 0xFE
	markerTEM   = 0x01
)

// Header holds the facts learned without decoding any entropy-coded data.
type Header struct {
	Width, Height int
	// Components is the number of color components in the frame (1, 3 or 4).
	Components int
	// Precision is the sample precision in bits.
	Precision int
	// ColorSpace is the color space of the encoded samples.
	ColorSpace ColorSpace
	// Progressive is true for SOF2 frames.
	Progressive bool
	// Orientation is the EXIF orientation code (1-8), or 0 when absent or invalid.
	Orientation int
	// ICC is the reassembled ICC profile, or nil.
	ICC []byte
}

// headerParser walks the marker segments that precede the first scan.
type headerParser struct {
	data   []byte // Input buffer containing the entire JPEG file.
	pos    int    // Current position index in the input buffer.
	size   int    // Remaining bytes to be processed.
	length int    // Length of the current marker segment.

	h              Header
	compIDs        [4]int
	adobeTransform int // -1 when there is no Adobe APP14 segment.
	jfif           bool
	iccChunks      map[int][]byte
	iccCount       int
}

// parseHeader parses every segment up to the first SOS.
func parseHeader(data []byte) (Header, error) {
	p := &headerParser{data: data, size: len(data), adobeTransform: -1}
	if err := p.parse(); err != nil {
		return Header{}, err
	}

	return p.h, nil
}

// skip advances the current position in the data buffer by 'count' bytes.
func (p *headerParser) skip(count int) error {
	p.pos += count
	p.size -= count

	if p.length >= count {
		p.length -= count
	} else {
		p.length = 0
	}

	if p.size < 0 {
		return errTruncated
	}

	return nil
}

// decode16 reads a 16-bit big-endian integer from the specified offset.
func (p *headerParser) decode16(offset int) int {
	i := p.pos + offset

	return (int(p.data[i]) << 8) | int(p.data[i+1])
}

// decodeLength reads the 16-bit length field of a marker segment.
// Afterwards p.length holds the size of the remaining payload.
func (p *headerParser) decodeLength() error {
	if p.size < 2 {
		return errTruncated
	}

	p.length = p.decode16(0)
	if p.length < 2 {
		return errorf(KindFormat, "segment length %d is too short", p.length)
	}

	if p.length > p.size {
		return errTruncated
	}

	return p.skip(2)
}

// skipMarker reads the length of the current marker's payload and skips it.
func (p *headerParser) skipMarker() error {
	if err := p.decodeLength(); err != nil {
		return err
	}

	return p.skip(p.length)
}

func (p *headerParser) parse() error {
	if p.size < 2 || p.data[0] != 0xFF || p.data[1] != markerSOI {
		return errNoJPEG
	}

	if err := p.skip(2); err != nil {
		return err
	}

	var sofDecoded bool

markerLoop:
	for {
		if p.size < 2 {
			return errTruncated
		}

		if p.data[p.pos] != 0xFF {
			return errorf(KindFormat, "expected marker at offset %d, found 0x%02x", p.pos, p.data[p.pos])
		}

		marker := p.data[p.pos+1]
		if marker == 0xFF {
			// Fill byte before a marker.
			if err := p.skip(1); err != nil {
				return err
			}

			continue
		}

		if err := p.skip(2); err != nil {
			return err
		}

		switch {
		case marker == markerSOF0 || marker == markerSOF1 || marker == markerSOF2:
			if sofDecoded {
				return errorf(KindFormat, "multiple SOF markers")
			}

			if err := p.decodeSOF(marker); err != nil {
				return err
			}

			sofDecoded = true
		case marker > markerSOF2 && marker <= 0xCF && marker != markerDHT && marker != markerDAC:
			// SOF3 and SOF5-SOF15: lossless, hierarchical and arithmetic-coded frames.
			return errorf(KindUnsupported, "SOF marker 0x%02x", marker)
		case marker == markerSOS:
			if !sofDecoded {
				return errorf(KindFormat, "scan data found before SOF")
			}

			break markerLoop
		case marker == markerEOI:
			if !sofDecoded {
				return errorf(KindFormat, "no image found before EOI")
			}

			break markerLoop
		case marker == markerTEM || (marker >= markerRST0 && marker <= markerRST7):
			// Standalone markers without a payload.
		case marker == markerAPP0:
			if err := p.decodeAPP0(); err != nil {
				return err
			}
		case marker == markerAPP1:
			if err := p.decodeAPP1(); err != nil {
				return err
			}
		case marker == markerAPP2:
			if err := p.decodeAPP2(); err != nil {
				return err
			}
		case marker == markerAPP14:
			if err := p.decodeAPP14(); err != nil {
				return err
			}
		case marker >= markerAPP0 && marker <= markerAPP15,
			marker >= markerJPG0 && marker <= markerJPG13,
			marker == markerDHT, marker == markerDAC, marker == markerDQT,
			marker == markerDRI, marker == markerDNL, marker == markerCOM:
			if err := p.skipMarker(); err != nil {
				return err
			}
		default:
			return errorf(KindUnsupported, "marker 0x%02x", marker)
		}
	}

	p.h.ColorSpace = p.colorSpace()
	p.h.ICC = p.assembleICC()

	return nil
}

// decodeSOF decodes the Start of Frame segment: dimensions, precision and component IDs.
func (p *headerParser) decodeSOF(marker byte) error {
	if err := p.decodeLength(); err != nil {
		return err
	}

	if p.length < 6 {
		return errorf(KindFormat, "SOF segment too short")
	}

	p.h.Precision = int(p.data[p.pos])
	if p.h.Precision != 8 {
		return errorf(KindUnsupported, "%d-bit sample precision", p.h.Precision)
	}

	p.h.Height = p.decode16(1)
	p.h.Width = p.decode16(3)
	if p.h.Width == 0 {
		return errorf(KindFormat, "zero image width")
	}

	if p.h.Height == 0 {
		return errorf(KindUnsupported, "image height defined by DNL marker")
	}

	p.h.Components = int(p.data[p.pos+5])
	if err := p.skip(6); err != nil {
		return err
	}

	switch p.h.Components {
	case 1, 3, 4:
	default:
		return errorf(KindUnsupported, "%d color components", p.h.Components)
	}

	if p.length < p.h.Components*3 {
		return errorf(KindFormat, "SOF segment too short for %d components", p.h.Components)
	}

	for i := 0; i < p.h.Components; i++ {
		p.compIDs[i] = int(p.data[p.pos])

		hv := p.data[p.pos+1]
		if hv>>4 == 0 || hv&15 == 0 {
			return errorf(KindFormat, "invalid sampling factors 0x%02x", hv)
		}

		if err := p.skip(3); err != nil {
			return err
		}
	}

	p.h.Progressive = marker == markerSOF2

	return p.skip(p.length)
}

// decodeAPP0 records the presence of a JFIF segment, which implies YCbCr for 3 components.
func (p *headerParser) decodeAPP0() error {
	if err := p.decodeLength(); err != nil {
		return err
	}

	if p.length >= 5 && string(p.data[p.pos:p.pos+5]) == "JFIF\x00" {
		p.jfif = true
	}

	return p.skip(p.length)
}

// decodeAPP1 decodes the APP1 marker segment, looking for the EXIF orientation tag.
func (p *headerParser) decodeAPP1() error {
	if err := p.decodeLength(); err != nil {
		return err
	}

	// Check for "Exif\0\0" signature (6 bytes).
	if p.length >= 6 && string(p.data[p.pos:p.pos+6]) == "Exif\x00\x00" {
		p.parseExif(6)
	}

	return p.skip(p.length)
}

// parseExif parses the TIFF header and IFD0 within the EXIF payload to find the orientation tag.
// 'offset' is relative to the start of the APP1 payload (p.pos).
func (p *headerParser) parseExif(offset int) {
	// Check if there is enough data for the TIFF header (8 bytes).
	if p.length < offset+8 {
		return
	}

	tiffHeaderPos := p.pos + offset

	var littleEndian bool
	switch string(p.data[tiffHeaderPos : tiffHeaderPos+2]) {
	case "II":
		littleEndian = true
	case "MM":
	default:
		return
	}

	read16 := func(relOffset int) uint16 {
		i := tiffHeaderPos + relOffset
		if littleEndian {
			return uint16(p.data[i]) | (uint16(p.data[i+1]) << 8)
		}

		return (uint16(p.data[i]) << 8) | uint16(p.data[i+1])
	}

	read32 := func(relOffset int) uint32 {
		i := tiffHeaderPos + relOffset
		if littleEndian {
			return uint32(p.data[i]) | (uint32(p.data[i+1]) << 8) | (uint32(p.data[i+2]) << 16) | (uint32(p.data[i+3]) << 24)
		}

		return (uint32(p.data[i]) << 24) | (uint32(p.data[i+1]) << 16) | (uint32(p.data[i+2]) << 8) | uint32(p.data[i+3])
	}

	if read16(2) != 42 {
		return
	}

	ifdOffset := read32(4)
	available := uint32(p.length - offset)
	if ifdOffset < 8 || available < 2 || ifdOffset > available-2 {
		return
	}

	numEntries := uint32(read16(int(ifdOffset)))

	// Truncate the entry count to what fits in the segment.
	if maxEntries := (available - ifdOffset - 2) / 12; numEntries > maxEntries {
		numEntries = maxEntries
	}

	const orientationTag = 0x0112

	entryOffset := int(ifdOffset) + 2
	for i := uint32(0); i < numEntries; i++ {
		if read16(entryOffset) == orientationTag {
			// Orientation is a single SHORT stored in the first 2 bytes of the value field.
			if read16(entryOffset+2) != 3 || read32(entryOffset+4) != 1 {
				return
			}

			if o := read16(entryOffset + 8); o >= 1 && o <= 8 {
				p.h.Orientation = int(o)
			}

			return
		}

		entryOffset += 12
	}
}

// decodeAPP2 collects ICC_PROFILE chunks. Each chunk carries a 1-based
// sequence number and the total chunk count after the 12-byte signature.
func (p *headerParser) decodeAPP2() error {
	if err := p.decodeLength(); err != nil {
		return err
	}

	const sig = "ICC_PROFILE\x00"
	if p.length >= len(sig)+2 && string(p.data[p.pos:p.pos+len(sig)]) == sig {
		seq := int(p.data[p.pos+len(sig)])
		count := int(p.data[p.pos+len(sig)+1])

		if seq >= 1 && count >= 1 && seq <= count && (p.iccCount == 0 || p.iccCount == count) {
			if p.iccChunks == nil {
				p.iccChunks = make(map[int][]byte, count)
			}

			p.iccCount = count
			start := p.pos + len(sig) + 2
			p.iccChunks[seq] = p.data[start : p.pos+p.length]
		}
	}

	return p.skip(p.length)
}

// assembleICC concatenates the ICC chunks in sequence order.
// An incomplete set yields nil.
func (p *headerParser) assembleICC() []byte {
	if p.iccCount == 0 || len(p.iccChunks) != p.iccCount {
		return nil
	}

	seqs := make([]int, 0, len(p.iccChunks))
	total := 0
	for seq, chunk := range p.iccChunks {
		seqs = append(seqs, seq)
		total += len(chunk)
	}
	sort.Ints(seqs)

	icc := make([]byte, 0, total)
	for _, seq := range seqs {
		icc = append(icc, p.iccChunks[seq]...)
	}

	return icc
}

// decodeAPP14 decodes the APP14 "Adobe" marker segment, which specifies the color transform.
func (p *headerParser) decodeAPP14() error {
	if err := p.decodeLength(); err != nil {
		return err
	}

	if p.length >= 12 && string(p.data[p.pos:p.pos+5]) == "Adobe" {
		// The colorTransform byte is at offset 11.
		// 0: RGB or CMYK, 1: YCbCr, 2: YCCK
		p.adobeTransform = int(p.data[p.pos+11])
	}

	return p.skip(p.length)
}

// colorSpace derives the encoded color space from the component count and the APP0/APP14 hints.
func (p *headerParser) colorSpace() ColorSpace {
	switch p.h.Components {
	case 1:
		return Luma
	case 3:
		switch {
		case p.adobeTransform >= 0:
			if p.adobeTransform == 0 {
				return RGB
			}

			return YCbCr
		case p.jfif:
			return YCbCr
		case p.compIDs[0] == 'R' && p.compIDs[1] == 'G' && p.compIDs[2] == 'B':
			return RGB
		default:
			return YCbCr
		}
	case 4:
		if p.adobeTransform == 2 {
			return YCCK
		}

		return CMYK
	default:
		return Unknown
	}
}
