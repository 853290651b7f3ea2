package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/archivist/core"
)

// Key prefixes for different data types
const (
	chunkRecordPrefix  = "chkrec"
	chunkDocPrefix     = "chkdoc"
	documentPrefix     = "docrec"
	taskRecordPrefix   = "taskrec"
	taskDocPrefix      = "taskdoc"
	taskReadyPrefix    = "taskrdy"
	taskCreatedPrefix  = "taskcre"
	taskRecordIDSeq    = "taskrecseq"
)

// Ready-index status classes. Pending sorts before retryable failed, which
// makes the lexicographic order of ready keys the claim order.
const (
	readyClassPending byte = 0
	readyClassFailed  byte = 1
)

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkRecordPrefix, id))
}

// makeChunkDocKey generates a composite key for the document chunk index.
// Format: prefix:documentID:chunkIndex
func makeChunkDocKey(documentId core.ID, chunkIndex int) []byte {
	prefix := chunkDocPrefix + ":"
	prefixBytes := []byte(prefix)
	totalSize := len(prefixBytes) + 16 // 8 bytes for documentID + 8 bytes for chunk index
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkIndex))
	return buf
}

// makePartialChunkDocKey generates a partial key for per-document chunk scans.
// Format: prefix:documentID
func makePartialChunkDocKey(documentId core.ID) []byte {
	prefix := chunkDocPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentId))
	return buf
}

// makeDocumentKey generates a key for a document by ID.
// The ID is big-endian so documents iterate in ascending ID order.
func makeDocumentKey(id core.ID) []byte {
	prefix := documentPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeTaskKey generates a key for a task by ID.
func makeTaskKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", taskRecordPrefix, id))
}

// makeTaskDocKey generates the active-task marker key for a document.
// At most one task per document holds this marker at any time.
func makeTaskDocKey(documentId core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", taskDocPrefix, documentId))
}

// makeTaskReadyKey generates a claim-order index key for a claimable task.
// Format: prefix:class:invertedPriority:createdAt:id
//
// The byte order of the composite encodes the full claim order: pending
// before retryable failed, then priority descending, then oldest first,
// then ID. Iterating the prefix in key order therefore visits tasks in
// exactly the order ClaimNext must hand them out.
func makeTaskReadyKey(class byte, priority int, createdAt time.Time, id core.ID) []byte {
	prefix := taskReadyPrefix + ":"
	prefixBytes := []byte(prefix)
	totalSize := len(prefixBytes) + 1 + 24 // class + priority + timestamp + ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	buf[offset] = class
	offset++
	// Shift signed priority into unsigned order, then invert for descending sort
	binary.BigEndian.PutUint64(buf[offset:], ^(uint64(int64(priority)) ^ (1 << 63)))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// readyClassFor returns the ready-index class for a claimable task.
func readyClassFor(status core.TaskStatus) byte {
	if status == core.TaskStatusFailed {
		return readyClassFailed
	}
	return readyClassPending
}

// makeTaskCreatedKey generates a creation-time index key for a task.
// Format: prefix:createdAt:id. Used for status listings in creation order.
func makeTaskCreatedKey(createdAt time.Time, id core.ID) []byte {
	prefix := taskCreatedPrefix + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
