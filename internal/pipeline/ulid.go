package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Job IDs are ULIDs: 48-bit millisecond timestamp plus 80 random bits,
// Crockford base32 encoded to 26 characters. A counter in the first two
// random bytes keeps IDs from the same millisecond ordered.

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var ulidGen = struct {
	sync.Mutex
	lastMs uint64
	seq    uint16
}{}

func newULID() string {
	ulidGen.Lock()
	ms := uint64(time.Now().UnixMilli())
	if ms == ulidGen.lastMs {
		ulidGen.seq++
	} else {
		ulidGen.lastMs, ulidGen.seq = ms, 0
	}
	seq := ulidGen.seq
	ulidGen.Unlock()

	var id [16]byte
	binary.BigEndian.PutUint64(id[0:8], ms<<16)
	rand.Read(id[6:])
	binary.BigEndian.PutUint16(id[6:8], seq)
	return encodeCrockford(id)
}

// encodeCrockford writes the 128-bit id as 26 base32 digits, most
// significant first. The leading digit carries only the top 3 bits.
func encodeCrockford(id [16]byte) string {
	hi := binary.BigEndian.Uint64(id[0:8])
	lo := binary.BigEndian.Uint64(id[8:16])

	var out [26]byte
	for i := 25; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}
