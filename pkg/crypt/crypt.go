// Package crypt implements the incrementing-key XOR stream ciphers used by
// the RFF archive and MAP world-file formats. Both transforms are their own
// inverse: encrypting and decrypting are the same operation.
package crypt

// Cipher is an incrementing-key XOR transform. Each byte is XORed with the
// masked key shifted right by Shift, then the key advances by one. The key
// advance happens for every byte regardless of content, so partial
// applications of the same cipher stay in step with the on-disk data.
type Cipher struct {
	Shift   uint
	KeyMask uint32
}

// The two parameterizations that appear on disk.
var (
	// Dictionary is used for archive dictionaries and entry payloads:
	// 16-bit key, each byte XORed with key>>1.
	Dictionary = Cipher{Shift: 1, KeyMask: 0xFFFF}

	// Record is used for world-file headers and sector/wall/sprite
	// records: 32-bit key, each byte XORed with the low key byte.
	Record = Cipher{Shift: 0, KeyMask: 0xFFFFFFFF}
)

// Apply transforms buf in place starting from the given key.
func (c Cipher) Apply(buf []byte, key uint32) {
	key &= c.KeyMask
	for i := range buf {
		buf[i] ^= byte(key >> c.Shift)
		key = (key + 1) & c.KeyMask
	}
}
