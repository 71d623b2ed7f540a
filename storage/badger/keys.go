package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types. The record prefix must not be a
// byte prefix of any index prefix, so prefix scans stay disjoint.
const (
	chunkRecordPrefix = "chunk:"
	chunkSeqPrefix    = "chunkseq:"
	chunkSourcePrefix = "chunksrc:"
	chunkDimensionKey = "chunkdim"
	chunkSeqName      = "chunkidseq"
)

// makeChunkKey generates a key for a chunk record by ID.
func makeChunkKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", chunkRecordPrefix, id))
}

// makeSeqKey generates a key in the insertion-order index.
// The sequence number is written BigEndian so lexicographic iteration
// yields creation order.
func makeSeqKey(seqNo uint64) []byte {
	prefixBytes := []byte(chunkSeqPrefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], seqNo)
	return buf
}

// makeSourceKey generates a key in the distinct-source index.
func makeSourceKey(sourcePath string) []byte {
	return []byte(chunkSourcePrefix + sourcePath)
}
