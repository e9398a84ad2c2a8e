package models

// RGB is a color triple as exchanged with clients ([r, g, b]).
type RGB [3]uint8

// PackColor packs an RGB triple into a 24-bit integer for storage and
// the binary wire format.
func PackColor(c RGB) int32 {
	return int32(c[0])<<16 | int32(c[1])<<8 | int32(c[2])
}

// UnpackColor expands a packed 24-bit color back into an RGB triple.
func UnpackColor(v int32) RGB {
	return RGB{
		uint8((v >> 16) & 0xFF),
		uint8((v >> 8) & 0xFF),
		uint8(v & 0xFF),
	}
}
