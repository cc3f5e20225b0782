package codec

/*
	Checksum returns the header checksum of a block: the sum of all 512
	bytes, with the 8 bytes of the checksum field itself substituted by
	ASCII spaces.

	Two sums come back.  The format says bytes are unsigned, and the
	unsigned sum is the canonical one; but enough historic archivers
	summed signed chars that rejecting their output would be pedantry,
	so the signed interpretation is computed too and a stored value
	matching either is accepted.
*/
func Checksum(b *Block) (unsigned int64, signed int64) {
	for i := 0; i < BlockSize; i++ {
		c := b[i]
		if i >= posChksum && i < posChksum+lenChksum {
			c = ' '
		}
		unsigned += int64(c)
		signed += int64(int8(c))
	}
	return
}
